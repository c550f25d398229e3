package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
)

type ResendOTPInput struct {
	Identifier string `validate:"required,identifier"`
}

// ResendOTP reissues a passcode for an unverified principal. Unknown and
// already verified identifiers succeed without doing anything.
func (s *Usecase) ResendOTP(ctx context.Context, in ResendOTPInput) error {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	principal, err := s.repoDB.FindPrincipalByIdentifier(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "resend for unknown principal", "identifier", in.Identifier)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find principal", "identifier", in.Identifier, "error", err)
		return dependencyError(err)
	}

	if principal.IsVerified {
		slog.WarnContext(ctx, "resend for verified principal", "principal_id", principal.ID)
		return nil
	}

	return s.guard(ctx, resendKey(principal.ID), s.cfg.ResendCooldown, ErrResendTooSoon, func(ctx context.Context) error {
		_, err := s.issueAndDeliver(ctx, principal)
		return err
	})
}
