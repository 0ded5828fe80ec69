package ledger_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/internal/uid/store/ledger"
	"sportsuid/pkg/platform/sentinel"
)

// LedgerContractSuite is embedded by every backend suite.
type LedgerContractSuite struct {
	suite.Suite
	store ports.Ledger
	ctx   context.Context
	key   models.PartitionKey
	other models.PartitionKey
}

func (s *LedgerContractSuite) SetupSuite() {
	s.ctx = context.Background()
	s.key = models.PartitionKey{Category: models.CategoryCoach, Area: "GJ", Month: 11, Year: 2025}
	s.other = models.PartitionKey{Category: models.CategoryCoach, Area: "GJ", Month: 12, Year: 2025}
}

func (s *LedgerContractSuite) TestMaxSequenceOfEmptyPartition() {
	highest, err := s.store.MaxSequence(s.ctx, s.key)
	s.Require().NoError(err)
	s.Zero(highest)
}

func (s *LedgerContractSuite) TestRecordAndMax() {
	for _, seq := range []int{1, 2, 7, 3} {
		s.Require().NoError(s.store.Record(s.ctx, s.key, seq))
	}
	highest, err := s.store.MaxSequence(s.ctx, s.key)
	s.Require().NoError(err)
	s.Equal(7, highest)

	otherMax, err := s.store.MaxSequence(s.ctx, s.other)
	s.Require().NoError(err)
	s.Zero(otherMax)
}

func (s *LedgerContractSuite) TestDuplicateRecordConflicts() {
	s.Require().NoError(s.store.Record(s.ctx, s.key, 1))
	err := s.store.Record(s.ctx, s.key, 1)
	s.ErrorIs(err, sentinel.ErrConflict)

	s.NoError(s.store.Record(s.ctx, s.other, 1), "same sequence in another partition is fine")
}

func (s *LedgerContractSuite) TestIssued() {
	s.Require().NoError(s.store.Record(s.ctx, s.key, 2))
	s.Require().NoError(s.store.Record(s.ctx, s.key, 5))

	got, err := s.store.Issued(s.ctx, s.key, []int{1, 2, 3, 5})
	s.Require().NoError(err)
	s.Equal([]int{2, 5}, got)

	none, err := s.store.Issued(s.ctx, s.key, nil)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *LedgerContractSuite) TestConcurrentClaimsOfOneValue() {
	const goroutines = 100
	var (
		wg        sync.WaitGroup
		won       atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Record(s.ctx, s.key, 42)
			switch {
			case err == nil:
				won.Add(1)
			case sentinel.IsTransient(err):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), won.Load(), "exactly one claim may win")
	s.Equal(int32(goroutines-1), conflicts.Load())
}

type InMemoryLedgerSuite struct {
	LedgerContractSuite
}

func TestInMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLedgerSuite))
}

func (s *InMemoryLedgerSuite) SetupTest() {
	s.store = ledger.NewInMemoryStore()
}
