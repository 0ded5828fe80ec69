package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsuid/internal/platform/config"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"})))
	assert.True(t, IsTransient(driver.ErrBadConn))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(errors.New("syntax")))
}

func TestOpen_EmptyURL(t *testing.T) {
	db, err := Open(context.Background(), config.PostgresConfig{})
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestMigrationNames(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_uid_sequences.sql", "002_uid_ledger.sql"}, names)
}
