package router

import (
	"net/http"
	"slices"

	"github.com/samber/lo"

	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
)

const maintenanceRetryAfter = "120"

// middlewareMaintenance answers 503 for the route patterns listed in
// app.maintenance.endpoints. The entry "*" covers every route except the
// quiet ones such as /health.
func middlewareMaintenance(cfg config.Config) Middleware {
	var listed []string
	if cfg != nil {
		listed = cfg.GetArray("app.maintenance.endpoints")
	}
	blockAll := slices.Contains(listed, "*")
	blocked := lo.Keyify(listed)

	return func(next http.Handler) http.Handler {
		if len(listed) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, hit := blocked[route]
			_, quiet := quietRoutes[route]
			if !hit && (!blockAll || quiet) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", maintenanceRetryAfter)
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
