package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/lockstep/pkg/cycle"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/report"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*report.Report
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*report.Report),
	}
}

// Save persists the report in memory.
func (s *Store) Save(ctx context.Context, key string, r *report.Report) error {
	copied := clone(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves the report from memory.
func (s *Store) Load(ctx context.Context, key string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[key]
	if !ok {
		return nil, domain.ErrResultNotFound
	}

	// Copy on read so callers can't mutate the stored report through pointers
	return clone(r), nil
}

// Delete removes the report.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func clone(r *report.Report) *report.Report {
	c := *r
	if r.Single != nil {
		single := *r.Single
		c.Single = &single
	}
	if r.Multi != nil {
		multi := *r.Multi
		multi.Tokens = make([]cycle.Record, len(r.Multi.Tokens))
		for i, tok := range r.Multi.Tokens {
			tok.Hits = slices.Clone(tok.Hits)
			tok.Candidates = slices.Clone(tok.Candidates)
			multi.Tokens[i] = tok
		}
		c.Multi = &multi
	}
	c.Failures = slices.Clone(r.Failures)
	return &c
}
