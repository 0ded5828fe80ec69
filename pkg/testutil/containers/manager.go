//go:build integration

// Package containers starts the backing services integration suites run
// against. Containers are started once per test binary and shared across
// suites; Ryuk removes them when the binary exits.
package containers

import (
	"context"
	"sync"
	"testing"
)

// Manager hands out shared containers, starting each on first use.
type Manager struct {
	postgres lazy[*PostgresContainer]
	redis    lazy[*RedisContainer]
	redpanda lazy[*RedpandaContainer]
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	return m.postgres.get(t, startPostgres)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	return m.redis.get(t, startRedis)
}

func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	return m.redpanda.get(t, startRedpanda)
}

type lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (l *lazy[T]) get(t *testing.T, start func(context.Context) (T, error)) T {
	t.Helper()
	l.once.Do(func() {
		l.val, l.err = start(context.Background())
	})
	if l.err != nil {
		t.Fatalf("container unavailable: %v", l.err)
	}
	return l.val
}
