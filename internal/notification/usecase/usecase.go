package usecase

import (
	"context"
	"errors"
	"html/template"

	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const WelcomeSubject = "Welcome to Journal App"

var ErrAuthRequired = goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)

// ErrDeliveryInProgress is returned while another consumer holds the delivery,
// so the broker redelivers the event once the holder finished or its lease ran out.
var ErrDeliveryInProgress = errors.New("notification: delivery in progress")

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!doctype html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Welcome to Journal App, {{.Username}}!</h2>
    <p>Your account is verified. Start your first entry whenever you are ready.</p>
    <p style="color: #888; font-size: 12px;">&copy; {{.Year}} Journal App</p>
  </body>
</html>`))

type welcomeData struct {
	Username string
	Year     int
}

type repoDB interface {
	ClaimDelivery(ctx context.Context, nd entity.NewDelivery) (entity.Delivery, bool, error)
	UpdateDeliveryStatus(ctx context.Context, id int64, status entity.DeliveryStatus, errMsg string) error
	ListDeliveries(ctx context.Context, principalID int64) ([]entity.Delivery, error)
}

type repoMail interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

type Usecase struct {
	repoDB    repoDB
	repoMail  repoMail
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMail   repoMail
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMail:  dep.RepoMail,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
