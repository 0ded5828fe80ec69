package counter_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/pkg/platform/sentinel"
)

type counterStore interface {
	ports.CounterStore
	ports.CounterSeeder
}

// CounterContractSuite holds the behaviour every backend must share. Backend
// suites embed it and set store in SetupTest.
type CounterContractSuite struct {
	suite.Suite
	store       counterStore
	ctx         context.Context
	goroutines  int
	studentsMH  models.PartitionKey
	studentsKA  models.PartitionKey
	cricketMH   models.PartitionKey
	coachesMH   models.PartitionKey
	studentsApr models.PartitionKey
}

func (s *CounterContractSuite) SetupSuite() {
	s.ctx = context.Background()
	if s.goroutines == 0 {
		s.goroutines = 300
	}
	s.studentsMH = models.PartitionKey{Category: models.CategoryStudent, Area: "MH", Month: 3, Year: 2025}
	s.studentsKA = models.PartitionKey{Category: models.CategoryStudent, Area: "KA", Month: 3, Year: 2025}
	s.coachesMH = models.PartitionKey{Category: models.CategoryCoach, Area: "MH", Month: 3, Year: 2025}
	s.studentsApr = models.PartitionKey{Category: models.CategoryStudent, Area: "MH", Month: 4, Year: 2025}
	s.cricketMH = models.PartitionKey{Category: models.CategoryEvent, Area: "CRMH", Month: 3, Year: 2025}
}

func (s *CounterContractSuite) TestIncrementStartsAtOneAndIsMonotonic() {
	for want := 1; want <= 5; want++ {
		got, err := s.store.Increment(s.ctx, s.studentsMH)
		s.Require().NoError(err)
		s.Equal(want, got)
	}

	cur, err := s.store.Current(s.ctx, s.studentsMH)
	s.Require().NoError(err)
	s.Equal(5, cur)
}

func (s *CounterContractSuite) TestCurrentOfUnusedPartitionIsZero() {
	cur, err := s.store.Current(s.ctx, s.studentsKA)
	s.Require().NoError(err)
	s.Zero(cur)
}

func (s *CounterContractSuite) TestPartitionsAreIndependent() {
	for range 3 {
		_, err := s.store.Increment(s.ctx, s.studentsMH)
		s.Require().NoError(err)
	}

	for _, key := range []models.PartitionKey{s.studentsKA, s.coachesMH, s.studentsApr, s.cricketMH} {
		got, err := s.store.Increment(s.ctx, key)
		s.Require().NoError(err)
		s.Equal(1, got, "partition %s", key)
	}
}

func (s *CounterContractSuite) TestCapacityBoundary() {
	s.Run("user partition", func() {
		s.Require().NoError(s.store.Seed(s.ctx, s.studentsKA, models.UserCapacity-1))

		got, err := s.store.Increment(s.ctx, s.studentsKA)
		s.Require().NoError(err)
		s.Equal(models.UserCapacity, got)

		_, err = s.store.Increment(s.ctx, s.studentsKA)
		s.ErrorIs(err, sentinel.ErrExhausted)

		cur, err := s.store.Current(s.ctx, s.studentsKA)
		s.Require().NoError(err)
		s.Equal(models.UserCapacity, cur, "refused increment must not move the counter")
	})

	s.Run("event partition", func() {
		s.Require().NoError(s.store.Seed(s.ctx, s.cricketMH, models.EventCapacity-1))

		got, err := s.store.Increment(s.ctx, s.cricketMH)
		s.Require().NoError(err)
		s.Equal(models.EventCapacity, got)

		_, err = s.store.Increment(s.ctx, s.cricketMH)
		s.ErrorIs(err, sentinel.ErrExhausted)
	})
}

func (s *CounterContractSuite) TestSeedNeverLowers() {
	s.Require().NoError(s.store.Seed(s.ctx, s.coachesMH, 40))
	s.Require().NoError(s.store.Seed(s.ctx, s.coachesMH, 10))

	got, err := s.store.Increment(s.ctx, s.coachesMH)
	s.Require().NoError(err)
	s.Equal(41, got)
}

func (s *CounterContractSuite) TestConcurrentIncrementsAreUnique() {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		values = make([]int, 0, s.goroutines)
		failed atomic.Int32
	)

	for i := 0; i < s.goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.store.Increment(s.ctx, s.studentsApr)
			if err != nil {
				failed.Add(1)
				return
			}
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Require().Zero(failed.Load(), "no increment may fail under contention")
	sort.Ints(values)
	for i, v := range values {
		s.Require().Equal(i+1, v, "values must be exactly 1..N with no gaps or duplicates")
	}
}
