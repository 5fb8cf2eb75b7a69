package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"bookerregistry/internal/booker/handler"
	bookermetrics "bookerregistry/internal/booker/metrics"
	"bookerregistry/internal/booker/service"
	bookerstore "bookerregistry/internal/booker/store"
	"bookerregistry/internal/booker/store/authdetail"
	"bookerregistry/internal/booker/store/permission"
	"bookerregistry/internal/booker/store/visitorrequest"
	"bookerregistry/internal/contacts"
	"bookerregistry/internal/events"
	jwttoken "bookerregistry/internal/jwt_token"
	"bookerregistry/internal/platform/config"
	"bookerregistry/internal/platform/httpclient"
	"bookerregistry/internal/platform/httpserver"
	"bookerregistry/internal/platform/logger"
	"bookerregistry/internal/platform/metrics"
	"bookerregistry/internal/platform/middleware"
	"bookerregistry/internal/platform/postgres"
	"bookerregistry/internal/platform/redis"
	"bookerregistry/internal/prisoner"
	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/platform/audit/publisher"
	auditmemory "bookerregistry/pkg/platform/audit/store/memory"
	auditpostgres "bookerregistry/pkg/platform/audit/store/postgres"
	"bookerregistry/pkg/platform/circuit"
	"bookerregistry/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("booker registry stopped", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	service *service.Service
	health  []func(ctx context.Context) error
	closers []func() error
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(deps.closers) - 1; i >= 0; i-- {
			if err := deps.closers[i](); err != nil {
				log.Warn("failed to close dependency", "error", err)
			}
		}
	}()

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := newRouter(cfg, log, deps, jwttoken.NewJWTServiceAdapter(jwtService))
	srv := httpserver.New(cfg.Addr, otelhttp.NewHandler(router, "booker-registry"))

	log.Info("starting booker registry", "addr", cfg.Addr, "events_sink", cfg.Events.Sink, "postgres", cfg.DatabaseURL != "")
	if err := httpserver.Serve(ctx, srv, httpserver.DefaultShutdownGrace); err != nil {
		return err
	}
	log.Info("booker registry stopped")
	return nil
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(bookermetrics.New()),
		service.WithMaxInProgressRequests(cfg.MaxInProgressRequests),
	}

	var (
		permissions service.PermissionStore
		requests    service.RequestStore
		tx          service.StoreTx
		auditStore  audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, db.Close)
		deps.health = append(deps.health, db.PingContext)

		pgPermissions := permission.NewPostgres(db)
		permissions = pgPermissions
		requests = visitorrequest.NewPostgres(db)
		tx = bookerstore.NewPostgresTx(db, pgPermissions)
		auditStore = auditpostgres.New(db)
		opts = append(opts, service.WithAuthDetailStore(authdetail.NewPostgres(db)))
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		permissions = permission.NewInMemory()
		requests = visitorrequest.NewInMemory()
		tx = service.NewShardedTx()
		auditStore = auditmemory.NewInMemoryStore()
		opts = append(opts, service.WithAuthDetailStore(authdetail.NewInMemory()))
	}
	opts = append(opts, service.WithAuditPublisher(publisher.NewPublisher(auditStore,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
	)))

	upstream := httpclient.New(httpclient.Options{
		Timeout:        cfg.Upstream.Timeout,
		RateLimit:      rate.Limit(cfg.Upstream.RateLimit),
		RateLimitBurst: cfg.Upstream.RateLimitBurst,
	})
	if cfg.Upstream.ContactRegistryURL != "" {
		var lookup contacts.Lookup = contacts.NewClient(cfg.Upstream.ContactRegistryURL, upstream)
		rdb, err := redis.New(ctx, cfg.Redis)
		switch {
		case err != nil:
			log.Warn("redis unavailable, contact lists will not be cached", "error", err)
		case rdb != nil:
			deps.closers = append(deps.closers, rdb.Close)
			deps.health = append(deps.health, rdb.Health)
			lookup = contacts.NewCachedLookup(lookup, rdb, cfg.Upstream.ContactsCacheTTL, log)
		}
		opts = append(opts, service.WithContactLookup(lookup))
	} else {
		log.Warn("CONTACT_REGISTRY_URL not set, contact lists treated as empty")
	}
	if cfg.Upstream.PrisonerSearchURL != "" {
		search := prisoner.NewClient(cfg.Upstream.PrisonerSearchURL, upstream).
			WithBreaker(circuit.New("prisoner-search"))
		opts = append(opts, service.WithPrisonerLookup(search))
	} else {
		log.Warn("PRISONER_SEARCH_URL not set, prisoner registration unavailable")
	}

	sink, err := newEventSink(ctx, cfg.Events, log)
	if err != nil {
		return nil, err
	}
	if c, ok := sink.(interface{ Close() }); ok {
		deps.closers = append(deps.closers, func() error { c.Close(); return nil })
	}
	opts = append(opts, service.WithNotifier(
		events.NewBestEffort(sink, cfg.Events.PublishTimeout, log, events.NewMetrics()),
	))

	deps.service = service.New(permissions, requests, tx, opts...)
	return deps, nil
}

type kafkaSink struct {
	*events.KafkaPublisher
	close func()
}

func (k kafkaSink) Close() { k.close() }

func newEventSink(ctx context.Context, cfg config.EventsConfig, log *slog.Logger) (events.Publisher, error) {
	switch cfg.Sink {
	case config.EventsSinkKafka:
		client, err := events.NewKafkaClient(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka client: %w", err)
		}
		return kafkaSink{KafkaPublisher: events.NewKafkaPublisher(client, cfg.KafkaTopic), close: client.Close}, nil
	case config.EventsSinkSQS:
		client, err := events.NewSQSClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("sqs client: %w", err)
		}
		return events.NewSQSPublisher(client, cfg.SQSQueueURL), nil
	default:
		return events.NewLogPublisher(log), nil
	}
}

func newRouter(cfg config.Server, log *slog.Logger, deps *infra, validator middleware.JWTValidator) http.Handler {
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		for _, check := range deps.health {
			if err := check(r.Context()); err != nil {
				log.WarnContext(r.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	r.Handle("/metrics", promhttp.Handler())

	bookers := handler.New(deps.service, log,
		handler.WithStaffMiddleware(middleware.RequireRole(cfg.StaffRole, log)),
	)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, log))
		bookers.Register(r)
	})
	return r
}
