package counter

import (
	"context"
	"fmt"
	"sync"

	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/sentinel"
)

// InMemoryStore keeps counters in process memory.
// Only valid for a single process: tests and local development.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counters: make(map[string]int)}
}

func (s *InMemoryStore) Increment(ctx context.Context, key models.PartitionKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	cur := s.counters[k]
	if cur >= key.Capacity() {
		return 0, fmt.Errorf("increment %s: %w", k, sentinel.ErrExhausted)
	}
	s.counters[k] = cur + 1
	return cur + 1, nil
}

func (s *InMemoryStore) Current(ctx context.Context, key models.PartitionKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key.String()], nil
}

func (s *InMemoryStore) Seed(ctx context.Context, key models.PartitionKey, floor int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key.String()
	if f := clampFloor(key, floor); f > s.counters[k] {
		s.counters[k] = f
	}
	return nil
}
