package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/medconnect/medconnect/internal/config"
	"github.com/medconnect/medconnect/internal/domain/ambulance"
	"github.com/medconnect/medconnect/internal/domain/appointment"
	"github.com/medconnect/medconnect/internal/domain/doctor"
	"github.com/medconnect/medconnect/internal/domain/schedule"
	"github.com/medconnect/medconnect/internal/platform/auth"
	"github.com/medconnect/medconnect/internal/platform/cache"
	"github.com/medconnect/medconnect/internal/platform/db"
	"github.com/medconnect/medconnect/internal/platform/events"
	"github.com/medconnect/medconnect/internal/platform/metrics"
	"github.com/medconnect/medconnect/internal/platform/middleware"
	"github.com/medconnect/medconnect/internal/platform/mongodb"
	"github.com/medconnect/medconnect/internal/platform/resilience"
)

const version = "0.1.0"

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "medconnect").Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// repositories is one store's implementation of every domain repository.
type repositories struct {
	schedules    schedule.Repository
	appointments appointment.Repository
	ambulances   ambulance.Repository
	doctors      doctor.Repository
	health       echo.HandlerFunc
	close        func()
}

func newGuard(cfg *config.Config, name string, transient func(error) bool, logger zerolog.Logger, m *metrics.Collector) *resilience.Guard {
	return resilience.NewGuard(resilience.GuardConfig{
		Name:        name,
		Timeout:     cfg.StoreTimeout,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
		Transient:   transient,
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.SetBreakerState(name, int(to))
		},
	}, logger)
}

func openRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Collector) (*repositories, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")

		guard := newGuard(cfg, "mongo", mongodb.IsTransient, logger, m)
		schedules := schedule.NewRepoMongo(store.DB, guard)
		appointments := appointment.NewRepoMongo(store.DB, guard)
		ambulances := ambulance.NewRepoMongo(store.DB, guard)
		doctors := doctor.NewRepoMongo(store.DB, guard)
		if err := mongodb.EnsureIndexes(ctx, schedules, appointments, ambulances, doctors); err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}
		return &repositories{
			schedules:    schedules,
			appointments: appointments,
			ambulances:   ambulances,
			doctors:      doctors,
			health:       db.HealthHandler(config.StoreDriverMongo, store, nil),
			close:        func() { _ = store.Close(context.Background()) },
		}, nil

	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")

		guard := newGuard(cfg, "postgres", db.IsTransient, logger, m)
		return &repositories{
			schedules:    schedule.NewRepoPG(pool, guard),
			appointments: appointment.NewRepoPG(pool, guard),
			ambulances:   ambulance.NewRepoPG(pool, guard),
			doctors:      doctor.NewRepoPG(pool, guard),
			health:       db.PoolHealthHandler(pool),
			close:        pool.Close,
		}, nil
	}
}

func newScheduleCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		return cache.Nop{}, func() {}
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, schedule cache disabled")
		return cache.Nop{}, func() {}
	}
	logger.Info().Msg("connected to redis")
	return cache.NewRedisCache(client, "medconnect:"), func() { _ = client.Close() }
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(logger)
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing booking events to kafka")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// newRouter builds the echo instance with the global middleware chain, the
// health and metrics endpoints and the authenticated /api/v1 group.
func newRouter(cfg *config.Config, logger zerolog.Logger, m *metrics.Collector) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(m.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))

	// Booking creation is public, so tokens are optional at this layer and
	// each route enforces its own requirement.
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	}
	if cfg.AuthSigningKey != "" {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
			Optional:   true,
		}))
	}
	return e, apiV1
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector("medconnect", reg)

	ctx := context.Background()
	repos, err := openRepositories(ctx, cfg, logger, m)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to connect to store")
	}
	defer repos.close()

	scheduleCache, closeCache := newScheduleCache(ctx, cfg, logger)
	defer closeCache()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()
	notifier := events.NewNotifier(publisher, logger, m.EventPublished)

	e, apiV1 := newRouter(cfg, logger, m)
	e.GET("/health/db", repos.health)

	// Domain services
	scheduleSvc := schedule.NewService(repos.schedules, scheduleCache, notifier, m, logger, schedule.Config{
		CacheTTL:     cfg.ScheduleCacheTTL,
		HorizonWeeks: cfg.ScheduleHorizonWeeks,
	})
	allocator := schedule.NewAllocator(repos.schedules, scheduleCache, m, logger)
	appointmentSvc := appointment.NewService(repos.appointments, allocator, notifier, m, logger)
	ambulanceSvc := ambulance.NewService(repos.ambulances, notifier, m, logger)
	doctorSvc := doctor.NewService(repos.doctors, m, logger)

	schedule.NewHandler(scheduleSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)
	ambulance.NewHandler(ambulanceSvc).RegisterRoutes(apiV1)
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
