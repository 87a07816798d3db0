package store

import (
	"context"
	"sort"
	"sync"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

// MemoryStore is an in-memory Store for tests and single-node development.
// It is not durable across restarts.
type MemoryStore struct {
	mu        sync.RWMutex
	envelopes map[string]*models.Envelope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		envelopes: make(map[string]*models.Envelope),
	}
}

func (s *MemoryStore) Persist(ctx context.Context, env *models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *env
	s.envelopes[env.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, ok := s.envelopes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *env
	return &cp, nil
}

func (s *MemoryStore) LoadUnfinished(ctx context.Context) ([]*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Envelope
	for _, env := range s.envelopes {
		if env.State == models.StatePending || env.State == models.StateProcessing {
			cp := *env
			out = append(out, &cp)
		}
	}
	sortByReceivedAt(out)
	return out, nil
}

func (s *MemoryStore) ListByState(ctx context.Context, state models.ProcessingState, limit int) ([]*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Envelope
	for _, env := range s.envelopes {
		if env.State == state {
			cp := *env
			out = append(out, &cp)
		}
	}
	sortByReceivedAt(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.envelopes[id]; !ok {
		return ErrNotFound
	}
	delete(s.envelopes, id)
	return nil
}

func (s *MemoryStore) Close() {}

// Len returns the number of stored envelopes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.envelopes)
}

func sortByReceivedAt(envs []*models.Envelope) {
	sort.SliceStable(envs, func(i, j int) bool {
		return envs[i].ReceivedAt.Before(envs[j].ReceivedAt)
	})
}
