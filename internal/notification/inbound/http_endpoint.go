package inbound

import "github.com/shandysiswandi/mindjournal/internal/pkg/router"

type HTTPEndpoint struct {
	uc uc
}

// ListDeliveries returns the notifications sent to the signed-in principal.
func (h *HTTPEndpoint) ListDeliveries(r *router.Request) (any, error) {
	items, err := h.uc.ListDeliveries(r.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]DeliveryResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, DeliveryResponse{
			ID:        item.ID,
			Kind:      item.Kind.String(),
			Channel:   item.Channel.String(),
			Status:    item.Status.String(),
			Error:     item.Error,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}

	return DeliveriesResponse{Deliveries: resp}, nil
}
