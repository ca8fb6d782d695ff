package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lockstep/internal/logging"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/ports"
	"github.com/aretw0/lockstep/pkg/report"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// ComputeFunc produces a report on a cache miss.
type ComputeFunc func(ctx context.Context) (*report.Report, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to cached reports, ensuring a given key is
// computed at most once at a time.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.ResultStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.Locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given result store.
func NewManager(store ports.ResultStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// GetOrCompute returns the report cached under key, computing and caching it on a miss.
// Cached reports come back with Cached set. Reports with failures are returned
// but never stored.
func (m *Manager) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*report.Report, error) {
	if rep, ok := m.lookup(ctx, key); ok {
		return rep, nil
	}

	var rep *report.Report
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		// Another holder may have filled the entry while we waited.
		if cached, ok := m.lookup(ctx, key); ok {
			rep = cached
			return nil
		}

		var err error
		rep, err = compute(ctx)
		if err != nil {
			return err
		}
		if !rep.OK() {
			return nil
		}
		if err := m.store.Save(ctx, key, rep); err != nil {
			m.logger.Warn("Failed to cache report", "key", key, "err", err)
		}
		return nil
	})
	return rep, err
}

func (m *Manager) lookup(ctx context.Context, key string) (*report.Report, bool) {
	rep, err := m.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrResultNotFound) {
			m.logger.Warn("Failed to read cached report", "key", key, "err", err)
		}
		return nil, false
	}
	rep.Cached = true
	return rep, true
}

// Load retrieves a cached report.
func (m *Manager) Load(ctx context.Context, key string) (*report.Report, error) {
	return m.store.Load(ctx, key)
}

// Delete evicts the report cached under key.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying result store.
func (m *Manager) Store() ports.ResultStore {
	return m.store
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
