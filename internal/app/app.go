package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/threadline/catalog-service/internal/assetstore"
	assetmemory "github.com/threadline/catalog-service/internal/assetstore/memory"
	"github.com/threadline/catalog-service/internal/auth"
	"github.com/threadline/catalog-service/internal/config"
	"github.com/threadline/catalog-service/internal/event"
	handler "github.com/threadline/catalog-service/internal/handler/http"
	pgrepo "github.com/threadline/catalog-service/internal/repository/postgres"
	redisrepo "github.com/threadline/catalog-service/internal/repository/redis"
	"github.com/threadline/catalog-service/internal/service"
	"github.com/threadline/catalog-service/migrations"
	"github.com/threadline/catalog-service/pkg/database"
	"github.com/threadline/catalog-service/pkg/health"
	"github.com/threadline/catalog-service/pkg/httpclient"
	pkgkafka "github.com/threadline/catalog-service/pkg/kafka"
	"github.com/threadline/catalog-service/pkg/middleware"
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("host", cfg.RedisHost))

	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// External image store: HTTP client behind a circuit breaker, or the
	// in-memory store for local development.
	var store assetstore.Store
	if cfg.AssetStoreURL != "" {
		client := httpclient.New(httpclient.DefaultConfig())
		cbClient := httpclient.NewCircuitBreakerClient(client,
			httpclient.DefaultCircuitBreakerConfig("asset-store"), logger)
		store = assetstore.NewHTTPStore(cfg.AssetStoreURL, cbClient)
	} else {
		store = assetmemory.New(cfg.AssetStoreBaseURL)
		logger.Warn("no asset store configured, using in-memory store")
	}

	// Repositories.
	productRepo := pgrepo.NewProductRepository(pool)
	brandRepo := pgrepo.NewBrandRepository(pool)
	colorRepo := pgrepo.NewColorRepository(pool)
	sizeRepo := pgrepo.NewSizeRepository(pool)
	productCache := redisrepo.NewProductCache(redisClient, cfg.CacheTTL)

	// Services.
	eventProducer := event.NewProducer(producer, logger)
	refs := service.NewReferenceValidator(brandRepo, colorRepo, sizeRepo)
	assembler := service.NewVariantAssembler()
	productService := service.NewProductService(productRepo, productCache, refs, assembler, store, eventProducer, logger)
	brandService := service.NewBrandService(brandRepo, productRepo, store, eventProducer, logger)
	colorService := service.NewColorService(colorRepo, productRepo, eventProducer, logger)
	sizeService := service.NewSizeService(sizeRepo, productRepo, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	verifier := auth.NewVerifier(cfg.JWTSecret)
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(
		productService, brandService, colorService, sizeService,
		store, healthHandler,
		handler.RouterConfig{
			TokenValidator: verifier.TokenValidator(),
			CORS:           corsCfg,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
		logger,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")
	return nil
}
