package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"electionhub/internal/admin"
	"electionhub/internal/dashboard"
	dashboardCache "electionhub/internal/dashboard/cache"
	dashboardHandler "electionhub/internal/dashboard/handler"
	electionHandler "electionhub/internal/election/handler"
	electionService "electionhub/internal/election/service"
	electionStore "electionhub/internal/election/store"
	jwttoken "electionhub/internal/jwt_token"
	"electionhub/internal/platform/config"
	"electionhub/internal/platform/httpserver"
	"electionhub/internal/platform/logger"
	"electionhub/internal/platform/metrics"
	"electionhub/internal/platform/middleware"
	"electionhub/internal/platform/postgres"
	platformredis "electionhub/internal/platform/redis"
	principal "electionhub/internal/principal/models"
	principalStore "electionhub/internal/principal/store"
	"electionhub/internal/realtime/bus"
	"electionhub/internal/realtime/emitter"
	"electionhub/internal/realtime/mirror"
	"electionhub/internal/realtime/policy"
	"electionhub/internal/realtime/registry"
	"electionhub/internal/realtime/ws"
	"electionhub/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.SlogLevel(), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	principals middleware.PrincipalFinder
	redis      *goredis.Client
	kafka      *kgo.Client
	closers    []func()
}

func (i *infra) close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	a := newApp(cfg, log, reg, deps)
	// Sockets must outlive the signal so the registry can close them with 1001.
	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()
	srv := httpserver.New(base, cfg.Addr, a.router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting electionhub", "addr", cfg.Addr, "env", cfg.Env, "channel_layer", a.bus.Type())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.mirror != nil {
		g.Go(func() error { return a.mirror.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked WebSocket connections are not tracked by Shutdown, so the
		// registry closes them explicitly.
		err := srv.Shutdown(shutdownCtx)
		a.close()
		cancelBase()
		return err
	})
	return g.Wait()
}

// app is the wired fabric behind one router.
type app struct {
	router   chi.Router
	bus      *bus.Bus
	sessions *registry.Registry
	mirror   *mirror.Mirror
}

// close stops accepting events, drains the group queues and closes every
// socket with 1001.
func (a *app) close() {
	a.bus.Close()
	a.sessions.Close()
}

func newApp(cfg config.Server, log *slog.Logger, reg *prometheus.Registry, deps *infra) *app {
	m := metrics.New(reg)
	a := &app{}

	a.sessions = registry.New(policy.MayReceive, log,
		registry.WithMaxQueue(cfg.Realtime.MaxWriteQueue),
		registry.WithWriteTimeout(cfg.Realtime.WriteTimeout),
		registry.WithMetrics(m),
	)

	busOpts := []bus.Option{bus.WithQueueDepth(cfg.Realtime.BusQueueDepth), bus.WithMetrics(m)}
	if deps.kafka != nil {
		a.mirror = mirror.New(deps.kafka, cfg.Kafka.Topic, log, mirror.WithMetrics(m))
		busOpts = append(busOpts, bus.WithMirror(a.mirror))
	}
	a.bus = bus.New(a.sessions, log, busOpts...)

	cacheMetrics := dashboardCache.NewMetrics(reg)
	var cache dashboardCache.Cache = dashboardCache.NewMemory(dashboardCache.WithMemoryMetrics(cacheMetrics))
	if deps.redis != nil {
		cache = dashboardCache.NewRedis(deps.redis, dashboardCache.WithRedisMetrics(cacheMetrics))
	}

	events := emitter.New(a.bus, cache, log, emitter.WithMetrics(m))
	elections := electionStore.NewInMemory()
	electionSvc := electionService.New(elections, events, electionService.WithLogger(log))
	dashboardSvc := dashboard.NewService(elections, cache, events, cfg.Dashboard.CacheTTL, log)

	verifier := jwttoken.NewVerifier(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	ws.New(verifier, deps.principals, a.sessions, cfg.Realtime, log, ws.WithMetrics(m)).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, deps.principals, log))
		electionHandler.New(electionSvc, log).Register(r)
		dashboardHandler.New(dashboardSvc, log).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, principal.RoleAdmin, principal.RoleSuperAdmin))
			admin.New(a.bus, a.sessions, log).Register(r)
		})
	})

	a.router = r
	return a
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		deps.principals = principalStore.NewPostgres(db)
		deps.closers = append(deps.closers, func() { _ = db.Close() })
		log.Info("using postgres principal store")
	} else {
		mem := principalStore.NewInMemory()
		if cfg.SeedFile != "" {
			n, err := principalStore.LoadSeedFile(ctx, mem, cfg.SeedFile)
			if err != nil {
				deps.close()
				return nil, err
			}
			log.Info("seeded in-memory principal store", "principals", n, "file", cfg.SeedFile)
		}
		deps.principals = mem
	}

	rc, err := platformredis.Open(ctx, cfg.Redis)
	if err != nil {
		deps.close()
		return nil, err
	}
	if rc != nil {
		deps.redis = rc
		deps.closers = append(deps.closers, func() { _ = rc.Close() })
		log.Info("using redis dashboard cache")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := mirror.NewClient(cfg.Kafka)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = mirror.EnsureTopic(topicCtx, client, cfg.Kafka.Topic, 3, 1)
		cancel()
		if err != nil {
			// The mirror is a monitoring feed; the fabric runs without it.
			log.Warn("kafka topic not ensured, mirror will retry on produce", "topic", cfg.Kafka.Topic, "error", err)
		}
		deps.kafka = client
	}

	return deps, nil
}
