package entity

import (
	"time"

	"github.com/shandysiswandi/mindjournal/internal/pkg/valueobject"
)

type NewDelivery struct {
	ID          int64
	PrincipalID int64
	Kind        Kind
	Channel     Channel
	Data        valueobject.JSONMap
}

type Delivery struct {
	ID          int64
	PrincipalID int64
	Kind        Kind
	Channel     Channel
	Status      DeliveryStatus
	Data        valueobject.JSONMap
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
