package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/mindjournal/internal/auth"
	"github.com/shandysiswandi/mindjournal/internal/migration"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
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

const pingTimeout = 5 * time.Second

func (a *App) initInstrument() error {
	endpoint := a.config.GetString("instrument.otlp_endpoint")
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          endpoint != "",
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		OTLPEndpoint:     endpoint,
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: float64(a.config.GetInt("instrument.trace_sample_percent")) / 100,
		MetricsInterval:  a.config.GetDuration("instrument.metrics_interval"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		return err
	}

	a.ins = ins
	a.addCloser("Instrument", ins.Shutdown)

	return nil
}

func (a *App) initLibraries() error {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("goroutine.max"))
	a.otp = otp.NewNumeric()

	bcrypt, err := hash.NewBcrypt(a.config.GetInt("hash.bcrypt_cost"), a.config.GetString("hash.pepper"))
	if err != nil {
		return err
	}
	a.bcrypt = bcrypt

	v, err := validator.NewV10Validator()
	if err != nil {
		return err
	}
	a.validator = v

	snow, err := uid.NewSnowflake()
	if err != nil {
		return err
	}
	a.uid = snow

	return nil
}

func (a *App) initJWT() error {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetDuration("jwt.access_ttl"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		return err
	}

	a.jwt = defaultJWT
	return nil
}

func (a *App) initDatabase() error {
	cfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return err
	}

	if v := a.config.GetInt("database.pool.max_conns"); v > 0 {
		cfg.MaxConns = int32(v) //nolint:gosec // bounded by config
	}
	if v := a.config.GetInt("database.pool.min_conns"); v > 0 {
		cfg.MinConns = int32(v) //nolint:gosec // bounded by config
	}
	if v := a.config.GetDuration("database.pool.max_conn_idle"); v > 0 {
		cfg.MaxConnIdleTime = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		return err
	}
	a.dbConn = pool
	a.addCloser("Database", func(context.Context) error {
		pool.Close()
		return nil
	})

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return err
	}

	if a.config.GetBool("database.migrate_on_start") {
		slog.InfoContext(a.ctx, "applying database migrations")
		if err := migration.Up(a.ctx, pool); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) initCache() error {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    a.config.GetArray("redis.addrs"),
		Password: a.config.GetString("redis.password"),
		DB:       a.config.GetInt("redis.db"),
	})
	a.cacheConn = rdb
	a.addCloser("Redis", func(context.Context) error { return rdb.Close() })

	pingCtx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return err
	}

	a.idemp = idempotency.New(rdb)
	a.denylist = auth.NewTokenDenylist(rdb, a.ins)

	return nil
}

func (a *App) initMail() error {
	m, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
		Timeout:  a.config.GetDuration("mail.timeout"),
		StartTLS: a.config.GetBool("mail.starttls"),
	})
	if err != nil {
		return err
	}

	a.mail = m
	return nil
}

func (a *App) initMessaging() error {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.lookupd_addrs"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("app.name")),
				nats.RetryOnFailedConnect(true),
				nats.MaxReconnects(-1),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
		},
	})
	if err != nil {
		return err
	}

	slog.InfoContext(a.ctx, "messaging ready", "driver", driver)
	a.messaging = client
	a.addCloser("Messaging", func(context.Context) error { return client.Close() })

	return nil
}

func (a *App) initHTTPServer() error {
	public := map[string][]string{http.MethodGet: {healthPath}}
	for method, paths := range auth.PublicEndpoints {
		public[method] = append(public[method], paths...)
	}

	a.router = router.NewRouter(router.Config{
		Config:          a.config,
		UUID:            a.uuid,
		JWT:             a.jwt,
		Instrument:      a.ins,
		Revocation:      a.denylist,
		PublicEndpoints: public,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("http.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("http.address"),
		Handler:           routerWithCORS,
		ReadHeaderTimeout: a.config.GetDuration("http.read_header_timeout"),
	}

	return nil
}
