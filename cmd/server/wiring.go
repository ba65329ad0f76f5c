package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/twmb/franz-go/pkg/kgo"

	"finwell/internal/analysis"
	"finwell/internal/audit"
	audithandler "finwell/internal/audit/handler"
	auditstore "finwell/internal/audit/store"
	"finwell/internal/ciphertext"
	ciphertexthandler "finwell/internal/ciphertext/handler"
	ciphertextstore "finwell/internal/ciphertext/store"
	"finwell/internal/events"
	jwttoken "finwell/internal/jwt_token"
	"finwell/internal/ledger"
	ledgerstore "finwell/internal/ledger/store"
	"finwell/internal/oracle"
	oraclehandler "finwell/internal/oracle/handler"
	"finwell/internal/platform/config"
	"finwell/internal/platform/kafka"
	"finwell/internal/platform/metrics"
	"finwell/internal/platform/postgres"
	"finwell/internal/platform/redis"
	"finwell/internal/protocol"
	protocolhandler "finwell/internal/protocol/handler"
	"finwell/internal/ratelimit"
	ratelimitmw "finwell/internal/ratelimit/middleware"
	ratelimitstore "finwell/internal/ratelimit/store"
	recordstore "finwell/internal/records/store"
	scorestore "finwell/internal/scores/store"
	httptransport "finwell/internal/transport/http"
	id "finwell/pkg/domain"
)

// application holds the long-running components and the resources they own.
type application struct {
	router  http.Handler
	bus     *events.Bus
	oracle  *oracle.Local
	sweeper *protocol.Sweeper
	badger  *ciphertextstore.BadgerStore

	closers []func() error
	log     *slog.Logger
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
}

// backends are the optional external stores. Nil fields select in-memory
// implementations.
type backends struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func connect(ctx context.Context, cfg config.Server, app *application) (backends, error) {
	var b backends
	var err error

	if b.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
		return b, err
	}
	if b.db != nil {
		app.closers = append(app.closers, b.db.Close)
	}

	if b.redis, err = redis.New(cfg.Redis); err != nil {
		return b, err
	}
	if b.redis != nil {
		app.closers = append(app.closers, b.redis.Close)
	}

	if b.kafka, err = kafka.New(ctx, cfg.Kafka); err != nil {
		return b, err
	}
	if b.kafka != nil {
		client := b.kafka
		app.closers = append(app.closers, func() error { client.Close(); return nil })
	}
	return b, nil
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *application, err error) {
	app := &application{log: log}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	b, err := connect(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	blobs, err := openBlobs(cfg, app)
	if err != nil {
		return nil, err
	}

	var (
		records protocol.RecordStore   = recordstore.NewInMemory()
		scores  protocol.ScoreStore    = scorestore.NewInMemory()
		pending ledger.Store           = ledgerstore.NewInMemory()
		ids     oracle.RequestIDSource = oracle.NewAtomicSource(0)
		trail   audit.Store            = auditstore.NewInMemory()
	)
	if b.db != nil {
		pg := recordstore.NewPostgres(b.db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate records: %w", err)
		}
		records = pg
		archive := auditstore.NewPostgres(b.db)
		if err := archive.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate audit: %w", err)
		}
		trail = archive
	}
	if b.redis != nil {
		scores = scorestore.NewRedis(b.redis.Client)
		pending = ledgerstore.NewRedis(b.redis.Client)
		ids = oracle.NewRedisSource(b.redis.Client)
	}

	keys, err := oracle.LoadOrGenerateKeyMaterial(cfg.OracleKeyFile)
	if err != nil {
		return nil, err
	}
	signer, err := oracle.NewSigner(cfg.OracleSignerKey)
	if err != nil {
		return nil, fmt.Errorf("oracle signer: %w", err)
	}
	local := oracle.NewLocal(keys, blobs, ids, signer,
		oracle.WithLogger(log),
		oracle.WithMetrics(oracle.NewMetrics()),
		oracle.WithWorkers(cfg.Protocol.RelayerWorkers),
	)
	app.oracle = local

	bus := events.NewBus(events.WithBusLogger(log))
	app.bus = bus
	auditLog := audit.NewPublisher(trail)
	publisher := events.Fanout{bus, events.NewLogPublisher(log), auditLog}
	if b.kafka != nil {
		publisher = append(publisher, events.NewKafkaPublisher(b.kafka, cfg.Kafka.Topic,
			events.WithKafkaLogger(log),
			events.WithKafkaMetrics(events.NewKafkaMetrics()),
		))
	}

	operators, err := parseOperators(cfg.Operators)
	if err != nil {
		return nil, err
	}
	service := protocol.New(records, scores, ledger.New(pending), local,
		protocol.WithLogger(log),
		protocol.WithMetrics(protocol.NewMetrics()),
		protocol.WithPublisher(publisher),
		protocol.WithOwnershipEnforcement(cfg.EnforceOwnership),
		protocol.WithOperators(operators...),
	)
	local.SetCallback(service)
	app.sweeper = protocol.NewSweeper(service, cfg.Protocol.PendingTTL, cfg.Protocol.SweepInterval, log)

	analysis.New(blobs, local.Keys(), service, analysis.WithLogger(log)).Subscribe(bus)

	app.router = newRouter(cfg, log, b, blobs, local, service, auditLog)
	return app, nil
}

func openBlobs(cfg config.Server, app *application) (ciphertext.Store, error) {
	if cfg.BadgerDir == "" {
		return ciphertextstore.NewInMemory(), nil
	}
	store, err := ciphertextstore.OpenBadger(cfg.BadgerDir)
	if err != nil {
		return nil, err
	}
	app.badger = store
	app.closers = append(app.closers, store.Close)
	return store, nil
}

func newRouter(cfg config.Server, log *slog.Logger, b backends, blobs ciphertext.Store, local *oracle.Local, service *protocol.Service, trail audithandler.Trail) http.Handler {
	tokens := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.Issuer, jwttoken.Audience),
		cfg.Operators...,
	)
	protocolHandler := protocolhandler.New(service, log)

	health := map[string]httptransport.HealthCheck{}
	if b.db != nil {
		health["postgres"] = b.db.PingContext
	}
	if b.redis != nil {
		health["redis"] = b.redis.Health
	}
	if b.kafka != nil {
		health["kafka"] = b.kafka.Ping
	}

	return httptransport.NewRouter(httptransport.Config{
		Logger:      log,
		Metrics:     metrics.New(),
		Tokens:      tokens,
		OracleToken: cfg.OracleToken,
		Health:      health,
		RateLimit:   newRateLimiter(cfg.RateLimit, log, b).Limit,
	}, httptransport.Routes{
		Public: []httptransport.Mount{
			oraclehandler.New(local.Keys(), log).Register,
		},
		Authenticated: []httptransport.Mount{
			ciphertexthandler.New(blobs, local.Keys(), log).Register,
			protocolHandler.Register,
			audithandler.New(trail, log).Register,
		},
		Callbacks: []httptransport.Mount{
			protocolHandler.RegisterCallbacks,
		},
	})
}

func newRateLimiter(cfg config.RateLimitConfig, log *slog.Logger, b backends) *ratelimitmw.Middleware {
	var store ratelimit.Store = ratelimitstore.NewInMemory()
	if b.redis != nil {
		store = ratelimitstore.NewRedis(b.redis.Client)
	}
	limits := ratelimit.Limits{
		ratelimit.ClassRead:       {Requests: cfg.Read, Window: cfg.Window},
		ratelimit.ClassWrite:      {Requests: cfg.Write, Window: cfg.Window},
		ratelimit.ClassDecryption: {Requests: cfg.Decryption, Window: cfg.Window},
	}
	return ratelimitmw.New(store, limits, log,
		ratelimitmw.WithDisabled(cfg.Disabled),
		ratelimitmw.WithMetrics(ratelimit.NewMetrics()),
	)
}

func parseOperators(raw []string) ([]id.Identity, error) {
	out := make([]id.Identity, 0, len(raw))
	var errs []error
	for _, r := range raw {
		ident, err := id.ParseIdentity(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("operator %q: %w", r, err))
			continue
		}
		out = append(out, ident)
	}
	return out, errors.Join(errs...)
}
