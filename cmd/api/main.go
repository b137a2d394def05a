package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentbook/internal/api"
	"rentbook/internal/config"
	"rentbook/internal/docstore"
	"rentbook/internal/domain"
	"rentbook/internal/events"
	"rentbook/internal/identity"
	"rentbook/internal/imagestore"
	"rentbook/internal/logging"
	"rentbook/internal/metrics"
	"rentbook/internal/repository"
	"rentbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer store.Close()
	repo := repository.New(store)

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	verifier, err := initVerifier(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("provider", cfg.Auth.Provider).Msg("init token verifier")
		return err
	}

	images, uploadsDir, err := initImageStore(cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Images.Driver).Msg("init image store")
		return err
	}

	eventBus := events.NewEventBus()
	eventBus.SubscribeBookings(func(event *events.Event) error {
		metrics.IncBookingEvent(event.Type)
		return nil
	})
	// stopped only after the HTTP server drains so late handlers still forward
	fwdCtx, stopForwarder := context.WithCancel(context.Background())
	defer stopForwarder()
	forwarder, publisher := initForwarder(fwdCtx, cfg, eventBus, &logger)
	if publisher != nil {
		defer publisher.Close()
	}

	users := service.NewUserService(repo, &logger)
	notifications := service.NewNotificationService(repo, cfg.Notifications.ListLimit, &logger)
	bookings := service.NewBookingService(repo, users, notifications, eventBus, &logger)
	ratings := service.NewRatingService(repo, repo, users, &logger)
	products := service.NewProductService(repo, repo, repo, users, images, cfg.Catalog.PageSize, &logger)

	httpServer := api.NewHTTPServer(cfg, api.Deps{
		Bookings:      bookings,
		Notifications: notifications,
		Ratings:       ratings,
		Products:      products,
		Users:         users,
		Verifier:      verifier,
		Limiter:       initLimiter(redisClient, &logger),
		Store:         store,
		UploadsDir:    uploadsDir,
	}, &logger)

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	logger.Info().
		Int("http_port", cfg.HTTP.Port).
		Str("store", cfg.Store.Driver).
		Str("auth", cfg.Auth.Provider).
		Str("images", cfg.Images.Driver).
		Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	stopForwarder()
	if forwarder != nil {
		forwarder.Wait()
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (docstore.Store, error) {
	var (
		store docstore.Store
		err   error
	)
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		store, err = docstore.NewSQLiteStore(cfg.Store.SQLitePath, logger)
	case config.StoreFirestore:
		store, err = docstore.NewFirestoreStore(ctx, cfg.Store.Firestore.ProjectID, cfg.Store.Firestore.CredentialsFile)
	default:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		store = docstore.NewMemoryStore()
	}
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("open store")
		return nil, err
	}
	return store, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, rate limiting stays in memory")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initLimiter(client *redis.Client, logger *zerolog.Logger) domain.RateLimitStore {
	memory := repository.NewMemoryLimitStore()
	if client == nil {
		return memory
	}
	return repository.NewFailoverLimitStore(repository.NewRedisLimitStore(client), memory, logger)
}

func initVerifier(ctx context.Context, cfg *config.Config) (domain.TokenVerifier, error) {
	if cfg.Auth.Provider == config.AuthFirebase {
		return identity.NewFirebaseVerifier(ctx, cfg.Auth.Firebase.ProjectID, cfg.Auth.Firebase.CredentialsFile)
	}
	return identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
}

// initImageStore returns the store and, for local storage, the directory
// served under /uploads.
func initImageStore(cfg *config.Config) (domain.ImageStore, string, error) {
	if cfg.Images.Driver == config.ImagesS3 {
		s3Store, err := imagestore.NewS3Store(cfg.Images.S3)
		if err != nil {
			return nil, "", err
		}
		return s3Store, "", nil
	}

	local, err := imagestore.NewLocalStore(cfg.Images.LocalDir, cfg.Images.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}

func initForwarder(
	ctx context.Context,
	cfg *config.Config,
	bus *events.EventBus,
	logger *zerolog.Logger,
) (*events.Forwarder, *events.AMQPPublisher) {
	if !cfg.Broker.Enabled {
		return nil, nil
	}

	publisher := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Queue, logger)
	forwarder := events.NewForwarder(publisher, cfg.Broker.BufferSize, events.RetryPolicy{}, logger)
	bus.SubscribeBookings(forwarder.Handle)
	forwarder.Start(ctx)

	logger.Info().Str("queue", cfg.Broker.Queue).Msg("booking events forwarded to broker")
	return forwarder, publisher
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
