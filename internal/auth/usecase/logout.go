package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
)

func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return ErrAuthRequired
	}

	if err := s.denylist.Revoke(ctx, clm.ID, clm.RemainingTTL(s.clock.Now())); err != nil {
		slog.ErrorContext(ctx, "failed to revoke access token", "principal_id", clm.PrincipalID, "error", err)
		return dependencyError(err)
	}

	return nil
}
