package inbound

import "github.com/shandysiswandi/mindjournal/internal/pkg/router"

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/notification/deliveries", end.ListDeliveries)
}
