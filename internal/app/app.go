// Package app assembles the infrastructure both binaries share from config.
package app

import (
	"context"
	"fmt"

	"warehouse-ledger/internal/config"
	"warehouse-ledger/internal/database"
	"warehouse-ledger/internal/events"
	"warehouse-ledger/internal/lock"
	"warehouse-ledger/internal/repository"
	"warehouse-ledger/internal/sequence"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenStore returns the in-memory store for DB_DRIVER=memory and the gorm
// store otherwise, migrating it when DB_AUTO_MIGRATE is set
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.DBDriver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	store := repository.NewGormStore(db)
	if cfg.DBAutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Database schema migrated")
	}
	return store, nil
}

// OpenRedis returns nil when REDIS_ADDRESS is empty
func OpenRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	if cfg.RedisAddress == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddress, err)
	}
	logger.Info("Connected to redis", zap.String("address", cfg.RedisAddress))
	return client, nil
}

// NewAllocator picks the SEQUENCE_BACKEND allocator and wraps it with the uuid fallback.
// Process-local counters are refused for a persistent store: every process
// writing to it would restart at 1 and collide on transaction numbers.
func NewAllocator(cfg *config.Config, store repository.Store, client redis.UniversalClient, logger *zap.Logger) (sequence.Allocator, error) {
	_, inMemory := store.(*repository.MemoryStore)
	backend := cfg.SequenceBackend
	if backend == "" {
		backend = "db"
		if inMemory {
			backend = "memory"
		}
	}

	var primary sequence.Allocator
	switch backend {
	case "memory":
		if !inMemory {
			return nil, fmt.Errorf("SEQUENCE_BACKEND=memory cannot be shared across processes, use db or redis with DB_DRIVER=%s", cfg.DBDriver)
		}
		primary = sequence.NewMemoryAllocator()
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("SEQUENCE_BACKEND=redis requires REDIS_ADDRESS")
		}
		primary = sequence.NewRedisAllocator(client)
	case "db":
		primary = sequence.NewStoreAllocator(store)
	default:
		return nil, fmt.Errorf("unsupported SEQUENCE_BACKEND %q", cfg.SequenceBackend)
	}
	logger.Info("Sequence allocator configured", zap.String("backend", backend))
	return sequence.NewFallbackAllocator(primary, logger), nil
}

// NewLocker uses redis locks when a client is available
func NewLocker(client redis.UniversalClient, logger *zap.Logger) lock.Locker {
	if client == nil {
		return lock.NewLocalLocker()
	}
	return lock.NewRedisLocker(client, logger)
}

// NewPublisher returns the EVENT_BROKER publisher. A broker that cannot be
// reached degrades to the in-memory publisher so commands keep working.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) events.EventPublisher {
	switch cfg.EventBroker {
	case "kafka":
		publisher, err := events.NewKafkaEventPublisher(cfg, logger)
		if err == nil {
			return publisher
		}
		logger.Error("Failed to create Kafka publisher, falling back to in-memory", zap.Error(err))
	case "pubsub":
		publisher, err := events.NewPubSubEventPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic, logger)
		if err == nil {
			return publisher
		}
		logger.Error("Failed to create Pub/Sub publisher, falling back to in-memory", zap.Error(err))
	}
	return events.NewInMemoryEventPublisher(logger)
}

// RedisPinger adapts a redis client to the health check interface
type RedisPinger struct {
	Client redis.UniversalClient
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
