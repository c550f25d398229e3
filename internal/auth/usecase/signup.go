package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/hash"
)

type SignUpInput struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,username"`
	Password string `validate:"required,password"`
}

type SignUpOutput struct {
	PrincipalID int64
	ExpiresAt   time.Time
}

func (s *Usecase) SignUp(ctx context.Context, in SignUpInput) (*SignUpOutput, error) {
	ctx, span := s.startSpan(ctx, "SignUp")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var out *SignUpOutput
	err := s.guard(ctx, "auth:signup:"+in.Email, s.cfg.SignupLock, ErrAlreadyRegistered, func(ctx context.Context) error {
		hashed, err := s.hasher.Hash(in.Password)
		if errors.Is(err, hash.ErrPlaintextTooLong) {
			slog.WarnContext(ctx, "password exceeds hash input limit", "email", in.Email)
			return goerror.NewInvalidInput(nil, "password", "password is too long")
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash password", "error", err)
			return goerror.NewServer(err)
		}

		code, err := s.otp.Generate()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
			return goerror.NewServer(err)
		}

		principal, pc, err := s.repoDB.RegisterPrincipal(ctx, entity.NewPrincipal{
			ID:           s.uid.Generate(),
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hashed,
		}, code, s.cfg.PasscodeTTL)
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "principal already registered", "email", in.Email, "username", in.Username)
			return ErrAlreadyRegistered
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo register principal", "email", in.Email, "error", err)
			return dependencyError(err)
		}

		// The principal exists from here on, a failed delivery is recovered by resend.
		if err := s.deliver(ctx, principal, pc); err != nil {
			return err
		}

		out = &SignUpOutput{PrincipalID: principal.ID, ExpiresAt: pc.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
