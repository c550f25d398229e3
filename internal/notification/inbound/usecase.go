package inbound

import (
	"context"

	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
	"github.com/shandysiswandi/mindjournal/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumePrincipalVerified(ctx context.Context, in usecase.ConsumePrincipalVerifiedInput) error
}

type uc interface {
	ucConsumer

	ListDeliveries(ctx context.Context) ([]entity.Delivery, error)
}
