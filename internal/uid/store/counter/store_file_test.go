package counter_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/store/counter"
)

type FileStoreSuite struct {
	CounterContractSuite
	path string
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "counters.json")
	s.store = counter.NewFile(s.path, 0)
}

func (s *FileStoreSuite) TestDocumentLayout() {
	_, err := s.store.Increment(s.ctx, s.studentsMH)
	s.Require().NoError(err)

	raw, err := os.ReadFile(s.path)
	s.Require().NoError(err)

	var doc struct {
		Counters map[string]int `json:"counters"`
	}
	s.Require().NoError(json.Unmarshal(raw, &doc))
	s.Equal(map[string]int{"a:MH:03:2025": 1}, doc.Counters)
}

func (s *FileStoreSuite) TestCorruptFile() {
	s.Require().NoError(os.WriteFile(s.path, []byte("{not json"), 0o600))
	_, err := s.store.Increment(s.ctx, s.studentsMH)
	s.ErrorContains(err, "parse counter file")
}

// Separate FileStore values stand in for separate processes: each has its own
// flock handle, so only the file lock keeps them apart.
func TestFileStore_SharedBetweenHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	key := models.PartitionKey{Category: models.CategoryInstitute, Area: "TN", Month: 7, Year: 2025}

	const handles, perHandle = 4, 25
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		values []int
	)
	for range handles {
		store := counter.NewFile(path, 0)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perHandle {
				v, err := store.Increment(t.Context(), key)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				values = append(values, v)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, values, handles*perHandle)
	sort.Ints(values)
	for i, v := range values {
		require.Equal(t, i+1, v)
	}
}
