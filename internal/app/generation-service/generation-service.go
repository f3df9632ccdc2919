package generationservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/generation-service/internal/cache"
	"github.com/magabrotheeeer/generation-service/internal/config"
	"github.com/magabrotheeeer/generation-service/internal/events"
	"github.com/magabrotheeeer/generation-service/internal/lib/jwt"
	"github.com/magabrotheeeer/generation-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/generation-service/internal/lib/sl"
	"github.com/magabrotheeeer/generation-service/internal/lib/worker"
	"github.com/magabrotheeeer/generation-service/internal/metrics"
	"github.com/magabrotheeeer/generation-service/internal/migrations"
	authservice "github.com/magabrotheeeer/generation-service/internal/services/auth"
	genservice "github.com/magabrotheeeer/generation-service/internal/services/generation"
	"github.com/magabrotheeeer/generation-service/internal/storage/files"
	"github.com/magabrotheeeer/generation-service/internal/storage/repository"
	"github.com/magabrotheeeer/generation-service/internal/transform"
)

// App связывает HTTP-сервер, хранилища и пул фоновой обработки.
type App struct {
	server          *http.Server
	logger          *slog.Logger
	db              *repository.Storage
	cache           *cache.Cache
	amqpConn        *amqp.Connection
	amqpCh          *amqp.Channel
	pool            *worker.Pool
	shutdownTimeout time.Duration
}

// New поднимает зависимости в порядке: PostgreSQL и миграции, каталог загрузок,
// Redis и RabbitMQ (если заданы), пул обработки, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger:          logger,
		db:              db,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	fileStore, err := files.New(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := []genservice.Option{
		genservice.WithRecentLimit(cfg.Generation.RecentLimit),
	}

	if cfg.RedisConnection.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.cache = redisCache
		opts = append(opts, genservice.WithCache(cache.NewGenerationCache(redisCache, cfg.Generation.ResultTTL)))
	} else {
		logger.Info("redis address is empty, generation cache disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangeGenerations, rabbitmq.GetGenerationQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpCh = ch
		opts = append(opts, genservice.WithNotifier(events.NewPublisher(ch, rabbitmq.ExchangeGenerations)))
	} else {
		logger.Info("rabbitmq url is empty, generation events disabled")
		opts = append(opts, genservice.WithNotifier(events.Nop{}))
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	app.pool = worker.NewPool(cfg.Generation.Workers, logger)
	transformer := transform.NewSimulated(cfg.Generation.MinDelay, cfg.Generation.MaxDelay, cfg.Generation.FailureRate)
	generationService := genservice.New(logger, db, transformer, app.pool, opts...)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService, generationService, fileStore)

	app.server = &http.Server{
		Addr:              cfg.AddressHTTP,
		Handler:           router,
		ReadHeaderTimeout: cfg.TimeoutHTTP,
		ReadTimeout:       cfg.TimeoutHTTP,
		WriteTimeout:      cfg.TimeoutHTTP,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return app, nil
}

// Run обслуживает HTTP до отмены ctx, затем останавливает сервер,
// дожидается фоновых задач и закрывает соединения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down HTTP server gracefully")
		runErr = a.server.Shutdown(timeoutCtx)

		a.logger.Info("waiting for background generations")
		if err := a.pool.Shutdown(timeoutCtx); err != nil {
			a.logger.Warn("background generations did not finish in time", sl.Err(err))
		}
	}

	a.closeResources()
	return runErr
}

func (a *App) closeResources() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}
