package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/blogbox/internal/blog"
	"github.com/2beens/blogbox/internal/config"
	"github.com/2beens/blogbox/internal/db"
	"github.com/2beens/blogbox/internal/kvstore"
	"github.com/2beens/blogbox/internal/middleware"
	"github.com/2beens/blogbox/internal/telemetry/metrics"
	"github.com/2beens/blogbox/internal/telemetry/tracing"
	"github.com/2beens/blogbox/internal/web"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
)

const (
	serviceName    = "blogbox"
	apiRouterName  = "blogs-api"
	maxWaitOnClose = 15 * time.Second
	maxRequestBody = 1 << 20
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	store       kvstore.Store
	redisClient *redis.Client
	dbPool      *pgxpool.Pool
	repo        *blog.Repo
	sessions    *web.Sessions

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

// swapped in tests
var otelSetup = tracing.HoneycombSetup

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := otelSetup(cfg.HoneycombEnabled, serviceName)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		otelShutdown: otelShutdown,
	}

	// redis is used for rate limiting even with other storage backends
	if cfg.RedisHost != "" && cfg.RedisPort != "" {
		s.redisClient = newRedisClient(ctx, cfg)
	}

	var extraCollectors []prometheus.Collector
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: cfg.HoneycombEnabled,
		})
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		s.dbPool = dbPool

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		pgStore := kvstore.NewPostgresStore(dbPool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			s.abort()
			return nil, fmt.Errorf("ensure kv store schema: %w", err)
		}
		s.store = pgStore

		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	case config.StorageBackendRedis:
		if s.redisClient == nil {
			s.abort()
			return nil, errors.New("redis storage backend, but redis not configured")
		}
		s.store = kvstore.NewRedisStore(s.redisClient)
	case config.StorageBackendDisk:
		diskStore, err := kvstore.NewDiskStore(cfg.DiskStoreRoot)
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("new disk store: %w", err)
		}
		s.store = diskStore
	case config.StorageBackendMemory:
		s.store = kvstore.NewMemoryStore()
	default:
		s.abort()
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
	log.Debugf("using [%s] storage backend, key [%s]", cfg.StorageBackend, cfg.StorageKey)

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("blogbox", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.repo = blog.NewRepo(
		blog.NewStorage(s.store, cfg.StorageKey, s.metricsManager),
		cfg.DateLayout,
		s.metricsManager,
	)
	s.sessions = web.NewSessions(s.repo, cfg.SessionTTL, cfg.BannerDelay, s.metricsManager)

	return s, nil
}

func newRedisClient(ctx context.Context, cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})
	if cfg.HoneycombEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	return rdb
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	var writeMiddlewares []mux.MiddlewareFunc
	if s.redisClient != nil && s.config.APIRateLimitPerMin > 0 {
		writeMiddlewares = append(writeMiddlewares, middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			apiRouterName,
			s.config.APIRateLimitPerMin,
			s.metricsManager,
		))
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.Cors(s.config.AllowedOrigins))
	blog.NewBlogHandler(s.repo).SetupRoutes(apiRouter, writeMiddlewares...)

	webHandler, err := web.NewHandler(s.sessions, s.config.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("new web handler: %w", err)
	}
	webHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest(maxRequestBody))

	return r, nil
}

func (s *Server) Serve(host string, port int) error {
	router, err := s.routerSetup()
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.MetricsHost, s.config.MetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
	return nil
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitOnClose)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	s.sessions.Flush()
	err = multierr.Append(err, s.closeStores())

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	for _, e := range multierr.Errors(err) {
		log.Errorf(" >>> graceful shutdown: %s", e)
	}
}

// abort releases what NewServer set up before it failed.
func (s *Server) abort() {
	if err := s.closeStores(); err != nil {
		log.Errorf("new server aborted, close stores: %s", err)
	}
	s.otelShutdown()
}

func (s *Server) closeStores() error {
	var err error
	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
		s.redisClient = nil
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		s.dbPool = nil
		log.Debugln("db pool closed")
	}

	return err
}
