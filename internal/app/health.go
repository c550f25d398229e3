package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
)

const healthPath = "/health"

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (HealthResponse) Message() string { return "service healthy" }

// health pings the database and redis. Either failing makes the service
// report 503.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"database": a.dbConn.Ping,
		"redis":    func(ctx context.Context) error { return a.cacheConn.Ping(ctx).Err() },
	}

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
	var errs []error
	for name, check := range checks {
		if err := check(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", name, "error", err)
			resp.Checks[name] = "down"
			errs = append(errs, err)
			continue
		}
		resp.Checks[name] = "up"
	}

	if len(errs) > 0 {
		return nil, goerror.NewUnavailable(errors.Join(errs...), "service unhealthy")
	}

	return resp, nil
}
