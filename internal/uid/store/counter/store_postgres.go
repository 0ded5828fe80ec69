package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sportsuid/internal/platform/postgres"
	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/sentinel"
	"sportsuid/pkg/platform/tx"
)

// PostgresStore keeps one uid_sequences row per partition. Increment is a
// single upsert, so the row lock Postgres takes serialises concurrent callers
// across every instance. When the context carries a transaction (tx.WithTx)
// the increment joins it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Increment bumps the counter unless it already sits at capacity. The
// conditional DO UPDATE returns no row in that case.
func (s *PostgresStore) Increment(ctx context.Context, key models.PartitionKey) (int, error) {
	query := `
		INSERT INTO uid_sequences (partition_key, last_value, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (partition_key) DO UPDATE SET
			last_value = uid_sequences.last_value + 1,
			updated_at = NOW()
		WHERE uid_sequences.last_value < $2
		RETURNING last_value
	`
	var value int
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, key.String(), key.Capacity()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("increment %s: %w", key, sentinel.ErrExhausted)
		}
		return 0, fmt.Errorf("increment %s: %w", key, classify(err))
	}
	return value, nil
}

func (s *PostgresStore) Current(ctx context.Context, key models.PartitionKey) (int, error) {
	var value int
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT last_value FROM uid_sequences WHERE partition_key = $1`, key.String(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("current %s: %w", key, classify(err))
	}
	return value, nil
}

// Seed raises the counter to floor without ever lowering it.
func (s *PostgresStore) Seed(ctx context.Context, key models.PartitionKey, floor int) error {
	query := `
		INSERT INTO uid_sequences (partition_key, last_value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (partition_key) DO UPDATE SET
			last_value = GREATEST(uid_sequences.last_value, EXCLUDED.last_value),
			updated_at = NOW()
	`
	if _, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, key.String(), clampFloor(key, floor)); err != nil {
		return fmt.Errorf("seed %s: %w", key, classify(err))
	}
	return nil
}

// classify marks retryable driver failures with sentinel.ErrUnavailable.
func classify(err error) error {
	if postgres.IsTransient(err) {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return err
}
