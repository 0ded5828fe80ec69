// Package counter implements ports.CounterStore on each supported backend.
//
// Every implementation enforces the partition capacity inside the same
// atomic step that increments, so a counter never moves past Capacity and a
// refused increment leaves no trace.
package counter

import (
	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
)

var (
	_ ports.CounterStore  = (*InMemoryStore)(nil)
	_ ports.CounterSeeder = (*InMemoryStore)(nil)
	_ ports.CounterStore  = (*PostgresStore)(nil)
	_ ports.CounterSeeder = (*PostgresStore)(nil)
	_ ports.CounterStore  = (*RedisStore)(nil)
	_ ports.CounterSeeder = (*RedisStore)(nil)
	_ ports.CounterStore  = (*FileStore)(nil)
	_ ports.CounterSeeder = (*FileStore)(nil)
)

func clampFloor(key models.PartitionKey, floor int) int {
	if floor < 0 {
		return 0
	}
	if c := key.Capacity(); floor > c {
		return c
	}
	return floor
}
