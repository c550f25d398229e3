package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 200 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

// Notifier delivers passcodes by email.
type Notifier struct {
	client   mail.Mail
	ins      instrument.Instrumentation
	attempts uint64
	backoff  time.Duration
}

func New(client mail.Mail, ins instrument.Instrumentation) *Notifier {
	return &Notifier{
		client:   client,
		ins:      ins,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// Deliver sends body to address, retrying transient SMTP failures a few times.
// Any final failure wraps entity.ErrDeliveryFailed.
func (n *Notifier) Deliver(ctx context.Context, address, subject, body string) (err error) {
	ctx, span := n.ins.Tracer("auth.outbound.email").Start(ctx, "Deliver")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	msg := mail.Message{
		To:       []string{address},
		Subject:  subject,
		TextBody: body,
	}

	b := retry.NewFibonacci(n.backoff)
	b = retry.WithCappedDuration(maxBackoff, b)
	b = retry.WithMaxRetries(n.attempts-1, b)

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := n.client.Send(ctx, msg)
		if err == nil || permanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
	span.SetAttributes(attribute.Int("mail.attempts", attempt))

	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, err)
	}
	return nil
}

func permanent(err error) bool {
	return errors.Is(err, mail.ErrSMTPNoRecipients) ||
		errors.Is(err, mail.ErrSMTPNoSender) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
