package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lockstep"
	"github.com/aretw0/lockstep/internal/config"
	"github.com/aretw0/lockstep/pkg/adapters/file"
	"github.com/aretw0/lockstep/pkg/adapters/memory"
	"github.com/aretw0/lockstep/pkg/adapters/redis"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/observability"
	"github.com/aretw0/lockstep/pkg/persistence/middleware"
	"github.com/aretw0/lockstep/pkg/ports"
)

// EngineOptions translates a config into engine options.
func EngineOptions(cfg config.Config, logger *slog.Logger) []lockstep.Option {
	return []lockstep.Option{
		lockstep.WithLogger(logger),
		lockstep.WithSettings(lockstep.Settings{
			MaxSteps:      cfg.MaxSteps,
			SearchBound:   cfg.SearchBound,
			Concurrency:   cfg.Concurrency,
			StrictPeriods: cfg.StrictPeriods,
			Start:         domain.NodeID(cfg.Single.Start),
			Goal:          domain.NodeID(cfg.Single.Goal),
			StartSuffix:   cfg.Multi.StartSuffix,
			GoalSuffix:    cfg.Multi.GoalSuffix,
		}),
		lockstep.WithLifecycleHooks(observability.Logging(logger)),
	}
}

// Backend is the result store and locker a service runs with.
type Backend struct {
	Store  ports.ResultStore
	Locker ports.Locker
	Close  func() error
}

// CreateBackend picks Redis when an address is configured, then a result directory, then memory.
// With an encryption key configured, the store is wrapped so reports are sealed at rest.
func CreateBackend(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*Backend, error) {
	backend, err := createBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	if active != nil {
		logger.Debug("Sealing cached reports", "fallback_keys", len(fallback))
		backend.Store = middleware.Chain(backend.Store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return backend, nil
}

func createBackend(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*Backend, error) {
	noop := func() error { return nil }

	if cfg.RedisAddr == "" && cfg.Dir != "" {
		logger.Debug("Using file result store", "dir", cfg.Dir)
		return &Backend{Store: file.New(cfg.Dir), Locker: memory.NewLocker(), Close: noop}, nil
	}
	if cfg.RedisAddr == "" {
		return &Backend{Store: memory.NewStore(), Locker: memory.NewLocker(), Close: noop}, nil
	}

	store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		redis.WithPrefix(cfg.Prefix),
		redis.WithTTL(cfg.TTL),
	)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.RedisAddr, err)
	}
	logger.Debug("Using redis result store", "addr", cfg.RedisAddr, "prefix", cfg.Prefix, "ttl", cfg.TTL)

	return &Backend{
		Store:  store,
		Locker: redis.NewLocker(store.Client(), cfg.Prefix),
		Close:  store.Close,
	}, nil
}

// CreateService builds a service over the configured backend.
// Extra engine options, such as metrics hooks, are applied after the config.
func CreateService(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...lockstep.Option) (*lockstep.Service, func() error, error) {
	backend, err := CreateBackend(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, nil, err
	}
	opts := append(EngineOptions(cfg, logger), extra...)
	svc := lockstep.NewService(
		lockstep.WithStore(backend.Store),
		lockstep.WithLocker(backend.Locker),
		lockstep.WithServiceLogger(logger),
		lockstep.WithEngineOptions(opts...),
	)
	return svc, backend.Close, nil
}
