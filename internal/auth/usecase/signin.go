package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
)

type SignInInput struct {
	Identifier string `validate:"required,identifier"`
	Password   string `validate:"required"`
}

type SignInOutput struct {
	VerificationRequired bool
	PasscodeExpiresAt    time.Time

	AccessToken string
	ExpiresAt   time.Time
}

func (s *Usecase) SignIn(ctx context.Context, in SignInInput) (*SignInOutput, error) {
	ctx, span := s.startSpan(ctx, "SignIn")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	principal, err := s.repoDB.FindPrincipalByIdentifier(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		s.hasher.Verify(in.Password, s.dummyHash)
		slog.WarnContext(ctx, "principal not found", "identifier", in.Identifier)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal", "identifier", in.Identifier, "error", err)
		return nil, dependencyError(err)
	}

	if !s.hasher.Verify(in.Password, principal.PasswordHash) {
		slog.WarnContext(ctx, "password principal not match", "principal_id", principal.ID)
		return nil, ErrInvalidCredentials
	}

	if !principal.IsVerified {
		return s.requireVerification(ctx, principal)
	}

	tok, err := s.issueToken(ctx, principal)
	if err != nil {
		return nil, err
	}

	return &SignInOutput{AccessToken: tok.Value, ExpiresAt: tok.ExpiresAt}, nil
}

// requireVerification reissues a passcode for an unverified principal. Inside
// the resend cooldown the code already in flight is reported instead.
func (s *Usecase) requireVerification(ctx context.Context, principal entity.Principal) (*SignInOutput, error) {
	var pc entity.Passcode
	err := s.guard(ctx, resendKey(principal.ID), s.cfg.ResendCooldown, ErrResendTooSoon, func(ctx context.Context) error {
		var err error
		pc, err = s.issueAndDeliver(ctx, principal)
		return err
	})
	if errors.Is(err, ErrResendTooSoon) {
		pc, err = s.repoDB.FetchPasscode(ctx, principal.ID)
		if errors.Is(err, goerror.ErrNotFound) {
			return &SignInOutput{VerificationRequired: true}, nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo fetch passcode", "principal_id", principal.ID, "error", err)
			return nil, dependencyError(err)
		}
	}
	if err != nil {
		return nil, err
	}

	return &SignInOutput{VerificationRequired: true, PasscodeExpiresAt: pc.ExpiresAt}, nil
}

func resendKey(principalID int64) string {
	return "auth:resend:" + strconv.FormatInt(principalID, 10)
}
