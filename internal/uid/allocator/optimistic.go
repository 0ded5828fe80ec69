package allocator

import (
	"context"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/pkg/platform/backoff"
	"sportsuid/pkg/platform/sentinel"
)

// OptimisticAllocator reads the partition maximum from the ledger and claims
// max+1. Two callers that read the same maximum race on the insert; the
// ledger's uniqueness constraint lets exactly one win and the other retries
// the whole read-compute-write cycle.
type OptimisticAllocator struct {
	ledger ports.Ledger
	opts   options
}

// NewOptimisticAllocator builds the allocator. Every caller in a partition
// races every other, so lost races get a budget of their own
// (DefaultOptimisticConflictAttempts with full-jitter backoff) that
// WithConflictAttempts and WithContentionBackoff override. Store failures
// stay bounded by WithMaxAttempts.
func NewOptimisticAllocator(ledger ports.Ledger, opts ...Option) *OptimisticAllocator {
	defaults := []Option{
		WithConflictAttempts(DefaultOptimisticConflictAttempts),
		WithContentionBackoff(backoff.NewExponentialWithJitter(DefaultContentionBase, DefaultContentionMax)),
	}
	return &OptimisticAllocator{ledger: ledger, opts: newOptions(append(defaults, opts...))}
}

func (a *OptimisticAllocator) AllocateNext(ctx context.Context, key models.PartitionKey) (int, error) {
	return run(ctx, a.opts, StrategyOptimistic, key, func(ctx context.Context) (int, error) {
		highest, err := a.ledger.MaxSequence(ctx, key)
		if err != nil {
			return 0, err
		}
		next := highest + 1
		if next > key.Capacity() {
			return 0, sentinel.ErrExhausted
		}
		if err := a.ledger.Record(ctx, key, next); err != nil {
			return 0, err
		}
		return next, nil
	})
}

// Current reports the highest value recorded in the ledger.
func (a *OptimisticAllocator) Current(ctx context.Context, key models.PartitionKey) (int, error) {
	return a.ledger.MaxSequence(ctx, key)
}
