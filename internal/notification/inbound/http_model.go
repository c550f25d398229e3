package inbound

import "time"

type DeliveryResponse struct {
	ID        int64     `json:"id,string"`
	Kind      string    `json:"kind"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveriesResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
}

func (DeliveriesResponse) Message() string { return "deliveries retrieved" }
