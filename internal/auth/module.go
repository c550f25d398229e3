package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mindjournal/internal/auth/inbound"
	"github.com/shandysiswandi/mindjournal/internal/auth/outbound/cache"
	"github.com/shandysiswandi/mindjournal/internal/auth/outbound/db"
	"github.com/shandysiswandi/mindjournal/internal/auth/outbound/email"
	"github.com/shandysiswandi/mindjournal/internal/auth/outbound/mq"
	"github.com/shandysiswandi/mindjournal/internal/auth/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goroutine"
	"github.com/shandysiswandi/mindjournal/internal/pkg/hash"
	"github.com/shandysiswandi/mindjournal/internal/pkg/idempotency"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/mail"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/pkg/otp"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/pkg/validator"
)

// PublicEndpoints must be handed to the router so these routes skip authentication.
var PublicEndpoints = inbound.PublicEndpoints

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Denylist    *cache.TokenDenylist       `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Publisher        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Bcrypt      hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	OTP         otp.OTP                    `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

// NewTokenDenylist builds the revocation store shared by the router and Logout.
func NewTokenDenylist(client redis.UniversalClient, ins instrument.Instrumentation) *cache.TokenDenylist {
	return cache.NewTokenDenylist(client, ins)
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc, err := usecase.New(usecase.Dependency{
		Config: usecase.Config{
			PasscodeTTL:    dep.Config.GetDuration("modules.auth.passcode_ttl"),
			ResendCooldown: dep.Config.GetDuration("modules.auth.resend_cooldown"),
			SignupLock:     dep.Config.GetDuration("modules.auth.signup_lock"),
		},
		RepoDB:        db.NewDB(dep.DBConn, dep.Clock, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Notifier:      email.New(dep.Mail, dep.Instrument),
		Denylist:      dep.Denylist,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Hasher:        dep.Bcrypt,
		OTP:           dep.OTP,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})
	if err != nil {
		return err
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
