package lockstep

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/lockstep/pkg/adapters/memory"
	"github.com/aretw0/lockstep/pkg/ports"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/aretw0/lockstep/pkg/session"
)

// Service solves puzzle texts on behalf of adapters, caching reports in a ResultStore.
type Service struct {
	sessions *session.Manager
	opts     []Option
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	store  ports.ResultStore
	locker ports.Locker
	logger *slog.Logger
	opts   []Option
}

// WithStore sets the result store. The default keeps reports in memory.
func WithStore(store ports.ResultStore) ServiceOption {
	return func(c *serviceConfig) {
		c.store = store
	}
}

// WithLocker serializes solves of the same input across processes.
func WithLocker(locker ports.Locker) ServiceOption {
	return func(c *serviceConfig) {
		c.locker = locker
	}
}

// WithServiceLogger sets the logger of the service and of every engine it builds.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithEngineOptions applies opts to every engine the service builds.
func WithEngineOptions(opts ...Option) ServiceOption {
	return func(c *serviceConfig) {
		c.opts = append(c.opts, opts...)
	}
}

// NewService creates a Service.
func NewService(opts ...ServiceOption) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.NewStore()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sopts := []session.Option{session.WithLogger(cfg.logger)}
	if cfg.locker != nil {
		sopts = append(sopts, session.WithLocker(cfg.locker))
	}

	engineOpts := append([]Option{WithLogger(cfg.logger)}, cfg.opts...)
	return &Service{
		sessions: session.NewManager(cfg.store, sopts...),
		opts:     engineOpts,
		logger:   cfg.logger,
	}
}

// Solve parses input and answers mode, serving repeated inputs from the store.
// extra options are applied after the service defaults and take part in the cache key.
func (s *Service) Solve(ctx context.Context, input []byte, mode report.Mode, extra ...Option) (*report.Report, error) {
	opts := append(append([]Option{}, s.opts...), extra...)
	eng, err := Parse(input, opts...)
	if err != nil {
		return nil, err
	}

	key := eng.CacheKey(mode)
	rep, err := s.sessions.GetOrCompute(ctx, key, func(ctx context.Context) (*report.Report, error) {
		return eng.Solve(ctx, mode)
	})
	if err != nil {
		return rep, err
	}
	s.logger.Info("solved", "digest", eng.Digest()[:12], "mode", mode, "cached", rep.Cached, "ok", rep.OK())
	return rep, nil
}

// Sessions exposes the cache manager.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}
