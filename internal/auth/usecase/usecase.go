package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goroutine"
	"github.com/shandysiswandi/mindjournal/internal/pkg/hash"
	"github.com/shandysiswandi/mindjournal/internal/pkg/idempotency"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/otp"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	// PasscodeSubject is the subject line of passcode emails.
	PasscodeSubject = "Your Journal App OTP Code"

	DefaultPasscodeTTL    = 10 * time.Minute
	DefaultResendCooldown = time.Minute
	DefaultSignupLock     = 30 * time.Second
)

var (
	// ErrInvalidOrExpiredCode is the only failure a caller sees for a rejected passcode.
	ErrInvalidOrExpiredCode = goerror.NewBusiness("invalid or expired code", goerror.CodeInvalidInput)
	ErrInvalidCredentials   = goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	ErrAlreadyRegistered    = goerror.NewBusiness("username or email already registered", goerror.CodeConflict)
	ErrResendTooSoon        = goerror.NewBusiness("please wait before requesting a new code", goerror.CodeTooManyRequest)
	ErrAuthRequired         = goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
)

// Config is the immutable auth configuration, built once at startup.
type Config struct {
	PasscodeTTL    time.Duration
	ResendCooldown time.Duration
	SignupLock     time.Duration
}

func (c Config) withDefaults() Config {
	if c.PasscodeTTL <= 0 {
		c.PasscodeTTL = DefaultPasscodeTTL
	}
	if c.ResendCooldown <= 0 {
		c.ResendCooldown = DefaultResendCooldown
	}
	if c.SignupLock <= 0 {
		c.SignupLock = DefaultSignupLock
	}
	return c
}

type PrincipalVerifiedEvent struct {
	PrincipalID int64
	Username    string
	Email       string
	VerifiedAt  time.Time
}

type repoDB interface {
	FindPrincipalByIdentifier(ctx context.Context, identifier string) (entity.Principal, error)
	GetPrincipalByID(ctx context.Context, id int64) (entity.Principal, error)
	RegisterPrincipal(ctx context.Context, np entity.NewPrincipal, code string, ttl time.Duration) (entity.Principal, entity.Passcode, error)

	IssuePasscode(ctx context.Context, principalID int64, code string, ttl time.Duration) (entity.Passcode, error)
	FetchPasscode(ctx context.Context, principalID int64) (entity.Passcode, error)
	ConsumePasscode(ctx context.Context, principalID int64, code string, now time.Time) (entity.ConsumeResult, error)
}

type repoMessaging interface {
	PublishPrincipalVerified(ctx context.Context, msg PrincipalVerifiedEvent) error
}

type notifier interface {
	Deliver(ctx context.Context, address, subject, body string) error
}

type tokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type Usecase struct {
	cfg           Config
	repoDB        repoDB
	repoMessaging repoMessaging
	notifier      notifier
	denylist      tokenDenylist
	idemp         idempotency.Idempotency
	validator     validator.Validator
	hasher        hash.Hash
	otp           otp.OTP
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	// dummyHash is verified against when the principal does not exist so a
	// miss costs as much as a wrong password.
	dummyHash string
}

type Dependency struct {
	Config        Config
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Notifier      notifier
	Denylist      tokenDenylist
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Hasher        hash.Hash
	OTP           otp.OTP
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) (*Usecase, error) {
	dummy, err := dep.Hasher.Hash("mindjournal-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}

	return &Usecase{
		cfg:           dep.Config.withDefaults(),
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		denylist:      dep.Denylist,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		hasher:        dep.Hasher,
		otp:           dep.OTP,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		dummyHash:     dummy,
	}, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// dependencyError turns a repository failure into the error the client sees.
func dependencyError(err error) error {
	if errors.Is(err, goerror.ErrUnavailable) {
		return goerror.NewUnavailable(err, "service temporarily unavailable")
	}
	return goerror.NewServer(err)
}

func deliveryError(err error) error {
	return goerror.NewBadGateway(err, "failed to deliver verification code")
}

func passcodeBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your OTP code is %s. It is valid for %d minutes.", code, int(ttl.Round(time.Minute)/time.Minute))
}

// issueAndDeliver replaces the principal's passcode with a fresh one and emails it.
func (s *Usecase) issueAndDeliver(ctx context.Context, p entity.Principal) (entity.Passcode, error) {
	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "principal_id", p.ID, "error", err)
		return entity.Passcode{}, goerror.NewServer(err)
	}

	pc, err := s.repoDB.IssuePasscode(ctx, p.ID, code, s.cfg.PasscodeTTL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo issue passcode", "principal_id", p.ID, "error", err)
		return entity.Passcode{}, dependencyError(err)
	}

	if err := s.deliver(ctx, p, pc); err != nil {
		return entity.Passcode{}, err
	}

	return pc, nil
}

func (s *Usecase) deliver(ctx context.Context, p entity.Principal, pc entity.Passcode) error {
	if err := s.notifier.Deliver(ctx, p.Email, PasscodeSubject, passcodeBody(pc.Code, s.cfg.PasscodeTTL)); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode", "principal_id", p.ID, "error", err)
		return deliveryError(err)
	}
	return nil
}

func (s *Usecase) issueToken(ctx context.Context, p entity.Principal) (jwt.Token, error) {
	tok, err := s.jwt.Generate(p.ID, p.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "principal_id", p.ID, "error", err)
		return jwt.Token{}, goerror.NewServer(err)
	}
	return tok, nil
}

// guard runs fn at most once per ttl for key. Any repeat inside the window
// returns busy without calling fn.
func (s *Usecase) guard(ctx context.Context, key string, ttl time.Duration, busy error, fn func(context.Context) error) error {
	err := s.idemp.Exec(ctx, key, fn,
		idempotency.WithLockDuration(ttl),
		idempotency.WithStateTTL(ttl),
		idempotency.WithReleaseOnFailure(),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrDuplicate):
		slog.WarnContext(ctx, "request rejected by guard", "key", key)
		return busy
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return err
	}

	slog.ErrorContext(ctx, "failed to run guarded operation", "key", key, "error", err)
	return goerror.NewUnavailable(err, "service temporarily unavailable")
}
