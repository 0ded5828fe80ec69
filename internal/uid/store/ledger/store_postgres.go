package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sportsuid/internal/platform/postgres"
	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/sentinel"
	"sportsuid/pkg/platform/tx"
)

// PostgresStore keeps the ledger in uid_ledger, whose primary key
// (partition_key, sequence) rejects a second claim of the same value.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) MaxSequence(ctx context.Context, key models.PartitionKey) (int, error) {
	query := `
		SELECT sequence FROM uid_ledger
		WHERE partition_key = $1
		ORDER BY sequence DESC
		LIMIT 1
	`
	var seq int
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, key.String()).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("max sequence %s: %w", key, classify(err))
	}
	return seq, nil
}

const recordQuery = `INSERT INTO uid_ledger (partition_key, sequence, issued_at) VALUES ($1, $2, NOW())`

// Record claims seq. Inside a caller's transaction the insert runs under a
// savepoint: a unique violation would otherwise abort the whole transaction
// and every statement after it, including the allocator's repair and retry,
// would fail with 25P02.
func (s *PostgresStore) Record(ctx context.Context, key models.PartitionKey, seq int) error {
	sqlTx, ok := tx.From(ctx)
	if !ok {
		_, err := s.db.ExecContext(ctx, recordQuery, key.String(), seq)
		return recordError(key, seq, err)
	}

	if _, err := sqlTx.ExecContext(ctx, `SAVEPOINT uid_ledger_record`); err != nil {
		return fmt.Errorf("record %s/%d: savepoint: %w", key, seq, classify(err))
	}
	if _, err := sqlTx.ExecContext(ctx, recordQuery, key.String(), seq); err != nil {
		if _, rbErr := sqlTx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT uid_ledger_record`); rbErr != nil {
			return fmt.Errorf("record %s/%d: rollback to savepoint: %w", key, seq, errors.Join(rbErr, err))
		}
		return recordError(key, seq, err)
	}
	if _, err := sqlTx.ExecContext(ctx, `RELEASE SAVEPOINT uid_ledger_record`); err != nil {
		return fmt.Errorf("record %s/%d: release savepoint: %w", key, seq, classify(err))
	}
	return nil
}

func recordError(key models.PartitionKey, seq int, err error) error {
	if err == nil {
		return nil
	}
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("record %s/%d: %w", key, seq, sentinel.ErrConflict)
	}
	return fmt.Errorf("record %s/%d: %w", key, seq, classify(err))
}

func (s *PostgresStore) Issued(ctx context.Context, key models.PartitionKey, seqs []int) ([]int, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	wanted := make([]int64, len(seqs))
	for i, seq := range seqs {
		wanted[i] = int64(seq)
	}

	rows, err := tx.ExecutorFor(ctx, s.db).QueryContext(ctx,
		`SELECT sequence FROM uid_ledger WHERE partition_key = $1 AND sequence = ANY($2::int[]) ORDER BY sequence`,
		key.String(), pq.Array(wanted),
	)
	if err != nil {
		return nil, fmt.Errorf("issued %s: %w", key, classify(err))
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("issued %s: scan: %w", key, err)
		}
		out = append(out, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("issued %s: %w", key, classify(err))
	}
	return out, nil
}

func classify(err error) error {
	if postgres.IsTransient(err) {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return err
}
