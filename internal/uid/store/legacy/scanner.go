// Package legacy finds the highest sequence already present in an existing
// business table, so a new counter can be seeded above identifiers issued
// before it existed.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"sportsuid/internal/uid/format"
	"sportsuid/internal/uid/models"
)

// Scanner reads identifiers out of column of table. table may be
// schema-qualified ("registrations.students").
type Scanner struct {
	db     *sql.DB
	table  pgx.Identifier
	column pgx.Identifier
}

func NewScanner(db *sql.DB, table, column string) (*Scanner, error) {
	if table == "" || column == "" {
		return nil, fmt.Errorf("legacy scanner: table and column are required")
	}
	return &Scanner{
		db:     db,
		table:  pgx.Identifier(strings.Split(table, ".")),
		column: pgx.Identifier{column},
	}, nil
}

// MaxSequence returns the highest sequence of key found in the table, or 0.
// Rows matching the LIKE pattern but failing to parse are skipped.
func (s *Scanner) MaxSequence(ctx context.Context, key models.PartitionKey) (int, error) {
	pattern, err := format.LikePattern(key)
	if err != nil {
		return 0, err
	}

	col := s.column.Sanitize()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIKE $1 ORDER BY %s DESC`,
		col, s.table.Sanitize(), col, col)

	rows, err := s.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return 0, fmt.Errorf("scan %s for %s: %w", s.table.Sanitize(), key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan %s: %w", s.table.Sanitize(), err)
		}
		c, err := format.Parse(id)
		if err != nil || c.PartitionKey() != key {
			continue
		}
		return c.Sequence, nil
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", s.table.Sanitize(), err)
	}
	return 0, nil
}
