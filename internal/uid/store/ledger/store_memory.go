// Package ledger records issued (partition, sequence) pairs. The uniqueness of
// each pair is the write-side conflict signal the optimistic allocator relies
// on.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/pkg/platform/sentinel"
)

var (
	_ ports.Ledger = (*InMemoryStore)(nil)
	_ ports.Ledger = (*PostgresStore)(nil)
)

// InMemoryStore is a process-local ledger for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	issued  map[string]map[int]struct{}
	highest map[string]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		issued:  make(map[string]map[int]struct{}),
		highest: make(map[string]int),
	}
}

func (s *InMemoryStore) MaxSequence(ctx context.Context, key models.PartitionKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highest[key.String()], nil
}

func (s *InMemoryStore) Record(ctx context.Context, key models.PartitionKey, seq int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	set, ok := s.issued[k]
	if !ok {
		set = make(map[int]struct{})
		s.issued[k] = set
	}
	if _, taken := set[seq]; taken {
		return fmt.Errorf("record %s/%d: %w", k, seq, sentinel.ErrConflict)
	}
	set[seq] = struct{}{}
	if seq > s.highest[k] {
		s.highest[k] = seq
	}
	return nil
}

func (s *InMemoryStore) Issued(ctx context.Context, key models.PartitionKey, seqs []int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.issued[key.String()]
	var out []int
	for _, seq := range seqs {
		if _, ok := set[seq]; ok {
			out = append(out, seq)
		}
	}
	return out, nil
}
