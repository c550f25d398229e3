package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
)

// ListDeliveries returns the notifications sent to the signed-in principal.
func (s *Usecase) ListDeliveries(ctx context.Context) ([]entity.Delivery, error) {
	ctx, span := s.startSpan(ctx, "ListDeliveries")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, ErrAuthRequired
	}

	items, err := s.repoDB.ListDeliveries(ctx, clm.PrincipalID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list deliveries", "principal_id", clm.PrincipalID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}
