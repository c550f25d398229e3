package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mindjournal/internal/auth/outbound/cache"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goroutine"
	"github.com/shandysiswandi/mindjournal/internal/pkg/hash"
	"github.com/shandysiswandi/mindjournal/internal/pkg/idempotency"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/mail"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/pkg/otp"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	otp       otp.OTP
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn redis.UniversalClient
	idemp     idempotency.Idempotency
	denylist  *cache.TokenDenylist
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	// closed in reverse order by Stop
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application from cfg. Resources opened before a failed
// step are released before the error is returned.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{config: cfg}
	app.ctx, app.cancel = context.WithCancel(ctx)
	app.addCloser("Config", func(context.Context) error { return cfg.Close() })

	steps := []struct {
		name string
		fn   func() error
	}{
		{name: "instrument", fn: app.initInstrument},
		{name: "libraries", fn: app.initLibraries},
		{name: "jwt", fn: app.initJWT},
		{name: "database", fn: app.initDatabase},
		{name: "cache", fn: app.initCache},
		{name: "mail", fn: app.initMail},
		{name: "messaging", fn: app.initMessaging},
		{name: "http server", fn: app.initHTTPServer},
		{name: "modules", fn: app.initModules},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			app.cancel()
			app.close(context.Background())
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	return app, nil
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
