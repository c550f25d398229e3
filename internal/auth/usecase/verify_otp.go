package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Identifier string `validate:"required,identifier"`
	Code       string `validate:"required,passcode"`
}

type VerifyOTPOutput struct {
	PrincipalID int64
	Username    string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// VerifyOTP consumes the principal's passcode. Every rejection, including an
// unknown identifier, surfaces as ErrInvalidOrExpiredCode.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	principal, err := s.repoDB.FindPrincipalByIdentifier(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "principal not found", "identifier", in.Identifier)
		return nil, ErrInvalidOrExpiredCode
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal", "identifier", in.Identifier, "error", err)
		return nil, dependencyError(err)
	}

	res, err := s.repoDB.ConsumePasscode(ctx, principal.ID, in.Code, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume passcode", "principal_id", principal.ID, "error", err)
		return nil, dependencyError(err)
	}

	if res.Outcome != entity.ConsumeOK {
		slog.WarnContext(ctx, "passcode rejected", "principal_id", principal.ID, "outcome", res.Outcome.String())
		return nil, ErrInvalidOrExpiredCode
	}

	principal = res.Principal
	tok, err := s.issueToken(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.publishVerified(ctx, principal)

	return &VerifyOTPOutput{
		PrincipalID: principal.ID,
		Username:    principal.Username,
		Email:       principal.Email,
		AccessToken: tok.Value,
		ExpiresAt:   tok.ExpiresAt,
	}, nil
}

func (s *Usecase) publishVerified(ctx context.Context, principal entity.Principal) {
	msg := PrincipalVerifiedEvent{
		PrincipalID: principal.ID,
		Username:    principal.Username,
		Email:       principal.Email,
		VerifiedAt:  principal.UpdatedAt,
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishPrincipalVerified(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish principal verified", "principal_id", msg.PrincipalID, "error", err)
		}
		return nil
	})
}
