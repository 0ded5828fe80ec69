// Package ports defines the storage and messaging interfaces the uid
// allocator and service consume. Implementations live under
// internal/uid/store and internal/uid/events.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"sportsuid/internal/uid/models"
)

// CounterStore keeps one counter per partition and increments it atomically
// in the backing store. Implementations must be correct across processes: an
// in-process lock alone does not qualify.
type CounterStore interface {
	// Increment atomically bumps the partition's counter and returns the new
	// value, starting at 1. When the counter already equals the partition's
	// capacity it returns sentinel.ErrExhausted and leaves the counter alone.
	Increment(ctx context.Context, key models.PartitionKey) (int, error)

	// Current returns the last value handed out, or 0 for an unused partition.
	Current(ctx context.Context, key models.PartitionKey) (int, error)
}

// CounterSeeder raises a partition's counter to at least floor. It is used
// to import identifiers issued before the counter existed.
type CounterSeeder interface {
	Seed(ctx context.Context, key models.PartitionKey, floor int) error
}

// Ledger records every issued (partition, sequence) pair under a uniqueness
// constraint.
type Ledger interface {
	// MaxSequence returns the highest recorded sequence, or 0 if none.
	MaxSequence(ctx context.Context, key models.PartitionKey) (int, error)

	// Record claims seq within the partition. A claim that already exists
	// fails with sentinel.ErrConflict.
	Record(ctx context.Context, key models.PartitionKey, seq int) error

	// Issued returns the subset of seqs that have been recorded.
	Issued(ctx context.Context, key models.PartitionKey, seqs []int) ([]int, error)
}

// EventPublisher announces successful allocations to downstream systems.
type EventPublisher interface {
	PublishAllocated(ctx context.Context, issued models.Issued) error
}
