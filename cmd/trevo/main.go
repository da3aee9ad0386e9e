package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/middleware"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/registry"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/broker/kafka"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/config"
	mongostore "github.com/hironxdev/trevo.lk-sub002/internal/infra/db/mongo"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/db/postgres"
	ginserver "github.com/hironxdev/trevo.lk-sub002/internal/infra/http/gin"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/obs"
	infraoutbox "github.com/hironxdev/trevo.lk-sub002/internal/infra/outbox"
	redislock "github.com/hironxdev/trevo.lk-sub002/internal/infra/redis"
	"github.com/hironxdev/trevo.lk-sub002/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV"), "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("trevo stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("trevo stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	checks := store.checks
	locker, closeLocker, err := openLocker(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeLocker()

	deps := registry.Deps{
		UoW:         store.uow,
		Blocking:    cfg.Blocking,
		Encoder:     outbox.JSONEventEncoder{},
		Idempotency: store.idempotency,
		Locker:      locker,
		LockTTL:     cfg.LockTTL,
		LockWait:    cfg.LockWait,
		Logger:      logger,
		Now:         time.Now,
		NewID:       uuid.NewString,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("trevo"))
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		worker := infraoutbox.NewWorker(infraoutbox.Worker{
			Store:       store.relay,
			Producer:    producer,
			Logger:      logger.With("component", "outbox"),
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      "trevo/bookings",
			Backoff:     cfg.RetryBackoff,
		})
		deps.Relay = worker
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
		logger.Info("outbox relay enabled", "brokers", cfg.KafkaBrokers)
	} else {
		logger.Warn("KAFKA_BROKERS not set, outbox records stay pending")
	}

	buses := registry.Build(deps)

	path := cfg.ListingsFixtures
	if path == "" {
		path = defaultListingFixturesPath()
	}
	if err := loadListingFixtures(ctx, store.uow, cfg.DefaultCurrency, path, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", path)
	}

	handlers := ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Quotes:       ginserver.QuoteHandler{Queries: buses.Queries, Logger: logger},
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: checks}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type storage struct {
	uow         uow.UoWFactory
	relay       infraoutbox.Store
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	close       func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(context.Background())
			return storage{}, fmt.Errorf("mongo indexes: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			_ = client.Close(context.Background())
			return storage{}, fmt.Errorf("mongo idempotency: %w", err)
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "database", cfg.MongoDB)
		return storage{
			uow:         mongostore.Factory{DB: client.DB},
			relay:       mongostore.NewOutboxStore(client.DB),
			idempotency: idem,
			checks:      map[string]obs.Check{"mongo": client.Ping},
			close:       client.Close,
		}, nil

	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return storage{}, fmt.Errorf("postgres connect: %w", err)
		}
		if cfg.PostgresMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return storage{}, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "migrated", cfg.PostgresMigrate)
		return storage{
			uow:         postgres.Factory{DB: db},
			relay:       postgres.NewOutboxStore(db),
			idempotency: postgres.NewIdempotencyStore(db, cfg.IdempotencyTTL),
			checks:      map[string]obs.Check{"postgres": db.PingContext},
			close:       closeDB(db),
		}, nil

	default:
		store := memory.NewStore()
		logger.Info("storage ready", "driver", config.StorageMemory)
		return storage{
			uow:         store,
			relay:       store,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			checks:      map[string]obs.Check{},
			close:       func(context.Context) error { return nil },
		}, nil
	}
}

func closeDB(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

// openLocker prefers Redis so replicas share locks; a single process can
// fall back to the in-memory locker.
func openLocker(ctx context.Context, cfg config.Config, logger *slog.Logger, checks map[string]obs.Check) (policies.ResourceLocker, func(), error) {
	if cfg.RedisAddr == "" {
		if cfg.StorageDriver != config.StorageMemory {
			logger.Warn("REDIS_ADDR not set, resource locks are local to this process")
		}
		return memory.NewLocker(), func() {}, nil
	}
	client, err := redislock.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	locker := redislock.NewLocker(client)
	checks["redis"] = locker.Ping
	return locker, func() { _ = client.Close() }, nil
}
