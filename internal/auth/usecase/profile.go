package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
)

type ProfileOutput struct {
	ID         int64
	Username   string
	Email      string
	IsVerified bool
	CreatedAt  time.Time
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, ErrAuthRequired
	}

	principal, err := s.repoDB.GetPrincipalByID(ctx, clm.PrincipalID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "principal from token not found", "principal_id", clm.PrincipalID)
		return nil, ErrAuthRequired
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get principal", "principal_id", clm.PrincipalID, "error", err)
		return nil, dependencyError(err)
	}

	return &ProfileOutput{
		ID:         principal.ID,
		Username:   principal.Username,
		Email:      principal.Email,
		IsVerified: principal.IsVerified,
		CreatedAt:  principal.CreatedAt,
	}, nil
}
