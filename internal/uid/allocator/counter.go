package allocator

import (
	"context"
	"errors"
	"fmt"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/pkg/platform/sentinel"
)

// CounterAllocator takes the next value from an atomic per-partition counter.
//
// With a ledger attached every value is also recorded there. A value the
// ledger already holds means the counter went backwards (restored from an old
// backup, say); the allocator then raises the counter to the ledger maximum
// and tries again, so the stale values are skipped rather than reissued.
type CounterAllocator struct {
	counter ports.CounterStore
	ledger  ports.Ledger
	opts    options
}

func NewCounterAllocator(counter ports.CounterStore, ledger ports.Ledger, opts ...Option) *CounterAllocator {
	return &CounterAllocator{counter: counter, ledger: ledger, opts: newOptions(opts)}
}

func (a *CounterAllocator) AllocateNext(ctx context.Context, key models.PartitionKey) (int, error) {
	return run(ctx, a.opts, StrategyCounter, key, func(ctx context.Context) (int, error) {
		return a.attempt(ctx, key)
	})
}

func (a *CounterAllocator) attempt(ctx context.Context, key models.PartitionKey) (int, error) {
	seq, err := a.counter.Increment(ctx, key)
	if err != nil {
		return 0, err
	}
	if a.ledger == nil {
		return seq, nil
	}

	err = a.ledger.Record(ctx, key, seq)
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, sentinel.ErrConflict) {
		return 0, err
	}

	a.opts.logger.WarnContext(ctx, "counter behind ledger, skipping issued value",
		"partition", key.String(),
		"sequence", seq,
	)
	if repairErr := a.repair(ctx, key); repairErr != nil {
		return 0, repairErr
	}
	return 0, err
}

// repair raises the counter to the ledger maximum when the store supports it.
func (a *CounterAllocator) repair(ctx context.Context, key models.PartitionKey) error {
	seeder, ok := a.counter.(ports.CounterSeeder)
	if !ok {
		return nil
	}
	highest, err := a.ledger.MaxSequence(ctx, key)
	if err != nil {
		return err
	}
	if err := seeder.Seed(ctx, key, highest); err != nil {
		return fmt.Errorf("raise counter to ledger maximum: %w", err)
	}
	return nil
}

// Current reports the last value the counter handed out.
func (a *CounterAllocator) Current(ctx context.Context, key models.PartitionKey) (int, error) {
	return a.counter.Current(ctx, key)
}
