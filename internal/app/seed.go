package app

import (
	"context"
	"fmt"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/pkg/platform/tx"
)

// HighestFinder reports the highest sequence already issued in a partition
// outside this service. legacy.Scanner implements it.
type HighestFinder interface {
	MaxSequence(ctx context.Context, key models.PartitionKey) (int, error)
}

// Seeded is the floor one partition's counter was raised to.
type Seeded struct {
	Key   models.PartitionKey
	Floor int
}

// Seed raises the counter of every key to the highest sequence source holds.
// All sources are read first; on the postgres backend the counters are then
// raised in one transaction so a failure leaves none of them changed.
func (a *App) Seed(ctx context.Context, source HighestFinder, keys []models.PartitionKey) ([]Seeded, error) {
	seeder, ok := a.Counter.(ports.CounterSeeder)
	if !ok {
		return nil, fmt.Errorf("configured strategy has no seedable counter")
	}

	plan := make([]Seeded, 0, len(keys))
	for _, key := range keys {
		highest, err := source.MaxSequence(ctx, key)
		if err != nil {
			return nil, err
		}
		plan = append(plan, Seeded{Key: key, Floor: highest})
	}

	apply := func(ctx context.Context) error {
		for _, p := range plan {
			if err := seeder.Seed(ctx, p.Key, p.Floor); err != nil {
				return err
			}
		}
		return nil
	}
	var err error
	if a.DB != nil {
		err = tx.Run(ctx, a.DB, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range plan {
		a.logger.InfoContext(ctx, "counter seeded", "partition", p.Key.String(), "floor", p.Floor)
	}
	return plan, nil
}
