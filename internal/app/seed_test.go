package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsuid/internal/platform/config"
	"sportsuid/internal/uid/models"
)

var (
	studentsGA = models.PartitionKey{Category: models.CategoryStudent, Area: "GA", Month: 3, Year: 2025}
	coachesGA  = models.PartitionKey{Category: models.CategoryCoach, Area: "GA", Month: 3, Year: 2025}
)

type fixedFinder map[models.PartitionKey]int

func (f fixedFinder) MaxSequence(_ context.Context, key models.PartitionKey) (int, error) {
	highest, ok := f[key]
	if !ok {
		return 0, errors.New("legacy table unreachable")
	}
	return highest, nil
}

func buildMemory(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := Build(context.Background(), cfg, quiet(), WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSeed_RaisesCounters(t *testing.T) {
	a := buildMemory(t, nil)

	seeded, err := a.Seed(context.Background(), fixedFinder{studentsGA: 41, coachesGA: 0}, []models.PartitionKey{studentsGA, coachesGA})
	require.NoError(t, err)
	assert.Equal(t, []Seeded{{Key: studentsGA, Floor: 41}, {Key: coachesGA, Floor: 0}}, seeded)

	id, err := a.Service.GenerateUID(march2025(), models.GenerateRequest{Category: "student", Region: "Goa"})
	require.NoError(t, err)
	assert.Equal(t, "a00042GA032025", id)

	id, err = a.Service.GenerateUID(march2025(), models.GenerateRequest{Category: "coach", Region: "Goa"})
	require.NoError(t, err)
	assert.Equal(t, "c00001GA032025", id)
}

// Every partition is read before any counter moves, so a failing read
// changes nothing.
func TestSeed_ReadFailureChangesNothing(t *testing.T) {
	a := buildMemory(t, nil)

	_, err := a.Seed(context.Background(), fixedFinder{studentsGA: 41}, []models.PartitionKey{studentsGA, coachesGA})
	require.ErrorContains(t, err, "unreachable")

	cur, err := a.Service.CurrentSequence(context.Background(), studentsGA)
	require.NoError(t, err)
	assert.Zero(t, cur)
}

func TestSeed_OptimisticHasNoCounter(t *testing.T) {
	a := buildMemory(t, func(c *config.Config) { c.Strategy = config.StrategyOptimistic })

	_, err := a.Seed(context.Background(), fixedFinder{studentsGA: 1}, []models.PartitionKey{studentsGA})
	assert.ErrorContains(t, err, "no seedable counter")
}
