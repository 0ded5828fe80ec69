package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sportsuid/internal/uid/allocator"
	"sportsuid/internal/uid/events"
	"sportsuid/internal/uid/metrics"
	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/service/mocks"
	"sportsuid/internal/uid/store/counter"
	"sportsuid/internal/uid/store/ledger"
	dErrors "sportsuid/pkg/domain-errors"
	"sportsuid/pkg/platform/sentinel"
	"sportsuid/pkg/requestcontext"
)

var march2025 = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// =============================================================================
// Real stores
// =============================================================================

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ledger    *ledger.InMemoryStore
	publisher *events.InMemoryPublisher
	metrics   *metrics.Metrics
	svc       *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), march2025)
	s.ledger = ledger.NewInMemoryStore()
	s.publisher = events.NewInMemoryPublisher()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())

	alloc := allocator.NewCounterAllocator(counter.NewInMemoryStore(), s.ledger, allocator.WithLogger(quiet()))
	svc, err := New(alloc,
		WithLogger(quiet()),
		WithLedger(s.ledger),
		WithPublisher(s.publisher),
		WithMetrics(s.metrics),
		WithBatchLimits(4, 10),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TestGenerateUID_Sequential() {
	first, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "Maharashtra"})
	s.Require().NoError(err)
	second, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "maharashtra"})
	s.Require().NoError(err)

	s.Equal("a00001MH032025", first)
	s.Equal("a00002MH032025", second)
}

func (s *ServiceSuite) TestGenerateUID_PartitionsAreIndependent() {
	a, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "coach", Region: "Karnataka"})
	s.Require().NoError(err)
	b, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "coach", Region: "Karnataka", Date: ptr(march2025.AddDate(0, 1, 0))})
	s.Require().NoError(err)
	c, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "club", Region: "Karnataka"})
	s.Require().NoError(err)

	s.Equal("c00001KA032025", a)
	s.Equal("c00001KA042025", b)
	s.Equal("b00001KA032025", c)
}

func (s *ServiceSuite) TestGenerateUID_InvalidInput() {
	cases := []struct {
		name string
		req  models.GenerateRequest
	}{
		{"unknown category", models.GenerateRequest{Category: "referee", Region: "Goa"}},
		{"event is not a user role", models.GenerateRequest{Category: "event", Region: "Goa"}},
		{"missing region", models.GenerateRequest{Category: "student", Region: "  "}},
		{"year before range", models.GenerateRequest{Category: "student", Region: "Goa", Date: ptr(time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC))}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.GenerateUID(s.ctx, tc.req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "got %v", err)
		})
	}
	s.Empty(s.publisher.Events(), "rejected requests must not publish")
}

func (s *ServiceSuite) TestGenerateUID_PublishesEvent() {
	id, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "institute", Region: "Delhi"})
	s.Require().NoError(err)

	evts := s.publisher.Events()
	s.Require().Len(evts, 1)
	s.Equal(id, evts[0].UID)
	s.Equal("req-1", evts[0].RequestID)
	s.Equal(1, evts[0].Sequence)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.Allocations.WithLabelValues("user")))
}

func (s *ServiceSuite) TestGenerateEventUID() {
	id, err := s.svc.GenerateEventUID(s.ctx, models.EventRequest{Sport: "cricket", Region: "Maharashtra"})
	s.Require().NoError(err)
	s.Equal("EVT-0001-CR-MH-150325", id)

	again, err := s.svc.GenerateEventUID(s.ctx, models.EventRequest{Sport: "cricket", Region: "Maharashtra", Date: ptr(march2025.AddDate(0, 0, 3))})
	s.Require().NoError(err)
	s.Equal("EVT-0002-CR-MH-180325", again, "events share a counter across days of the month")
}

func (s *ServiceSuite) TestGenerateEventUID_EmptySportUsesReservedCode() {
	id, err := s.svc.GenerateEventUID(s.ctx, models.EventRequest{Region: "Goa"})
	s.Require().NoError(err)
	s.Equal("EVT-0001-OT-GA-150325", id)
}

func (s *ServiceSuite) TestGenerateEventUID_YearBeyondTwoDigits() {
	_, err := s.svc.GenerateEventUID(s.ctx, models.EventRequest{Sport: "cricket", Region: "Goa", Date: ptr(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestGenerateBatch_PreservesOrder() {
	reqs := []models.GenerateRequest{
		{Category: "student", Region: "Goa"},
		{Category: "coach", Region: "Goa"},
		{Category: "student", Region: "Goa"},
	}
	ids, err := s.svc.GenerateBatch(s.ctx, reqs)
	s.Require().NoError(err)
	s.Require().Len(ids, 3)

	s.Equal("c00001GA032025", ids[1])
	s.ElementsMatch([]string{"a00001GA032025", "a00002GA032025"}, []string{ids[0], ids[2]})
}

func (s *ServiceSuite) TestGenerateBatch_BadItemConsumesNothing() {
	reqs := []models.GenerateRequest{
		{Category: "student", Region: "Goa"},
		{Category: "referee", Region: "Goa"},
	}
	_, err := s.svc.GenerateBatch(s.ctx, reqs)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Contains(err.Error(), "item 1")

	id, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "Goa"})
	s.Require().NoError(err)
	s.Equal("a00001GA032025", id)
}

func (s *ServiceSuite) TestGenerateBatch_Limits() {
	ids, err := s.svc.GenerateBatch(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(ids)

	_, err = s.svc.GenerateBatch(s.ctx, make([]models.GenerateRequest, 11))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestConcurrentGenerateIsUnique() {
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "Kerala"})
			if !assert.NoError(s.T(), err) {
				return
			}
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	s.Len(seen, n)
}

func (s *ServiceSuite) TestVerifyIssued() {
	id, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "Goa"})
	s.Require().NoError(err)

	ok, err := s.svc.VerifyIssued(s.ctx, id)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.svc.VerifyIssued(s.ctx, "a00002GA032025")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.svc.VerifyIssued(s.ctx, "not-an-id")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestCurrentSequence() {
	key := models.PartitionKey{Category: models.CategoryStudent, Area: "GA", Month: 3, Year: 2025}
	cur, err := s.svc.CurrentSequence(s.ctx, key)
	s.Require().NoError(err)
	s.Zero(cur)

	_, err = s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "Goa"})
	s.Require().NoError(err)
	cur, err = s.svc.CurrentSequence(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(1, cur)
}

// =============================================================================
// Pure operations
// =============================================================================

func (s *ServiceSuite) TestValidateAndParse() {
	res := s.svc.ValidateUID("a00001MH032025")
	s.True(res.Valid)
	s.Require().NotNil(res.Components)
	s.Equal("MH", res.Components.Region)

	res = s.svc.ValidateUID("a00000MH032025")
	s.False(res.Valid)
	s.Error(res.Err)

	c, err := s.svc.ParseUID("EVT-0042-FB-KL-010726")
	s.Require().NoError(err)
	s.Equal(42, c.Sequence)
	s.Equal("FB", c.Sport)

	_, err = s.svc.ParseUID("a0001MH032025")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestComposites() {
	const event, student, coach = "EVT-0001-CR-MH-150325", "a00001MH032025", "c00007MH032025"

	cert, err := s.svc.CertificateIdentifier(event, student)
	s.Require().NoError(err)
	s.Equal(s.svc.BuildCertificateIdentifier(event, student), cert)

	order, err := s.svc.OrderIdentifier(event, coach)
	s.Require().NoError(err)
	s.Equal("ORDR-"+event+"-"+coach, order)

	parts, err := s.svc.SplitComposite(cert)
	s.Require().NoError(err)
	s.Equal(event, parts.EventID)
	s.Equal(student, parts.HolderID)

	_, err = s.svc.CertificateIdentifier(event, coach)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "a coach cannot hold a certificate")
	_, err = s.svc.OrderIdentifier(student, coach)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "the first parent must be an event")
}

// =============================================================================
// Error translation (mocked allocator)
// =============================================================================

type failingPublisher struct{}

func (failingPublisher) PublishAllocated(context.Context, models.Issued) error {
	return fmt.Errorf("broker down")
}

type TranslationSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	allocator *mocks.MockAllocator
	metrics   *metrics.Metrics
	svc       *Service
	ctx       context.Context
}

func TestTranslationSuite(t *testing.T) {
	suite.Run(t, new(TranslationSuite))
}

func (s *TranslationSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.allocator = mocks.NewMockAllocator(s.ctrl)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.ctx = requestcontext.WithTime(context.Background(), march2025)

	svc, err := New(s.allocator,
		WithLogger(quiet()),
		WithMetrics(s.metrics),
		WithPublisher(failingPublisher{}),
		WithAllocationTimeout(50*time.Millisecond),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *TranslationSuite) TestErrorCodes() {
	key := models.PartitionKey{Category: models.CategoryStudent, Area: "MH", Month: 3, Year: 2025}
	cases := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"exhausted", &models.ExhaustedError{Key: key}, dErrors.CodeExhausted},
		{"conflict", fmt.Errorf("gave up: %w", models.ErrAllocationConflict), dErrors.CodeConflict},
		{"deadline", context.DeadlineExceeded, dErrors.CodeTimeout},
		{"unavailable", fmt.Errorf("dial: %w", sentinel.ErrUnavailable), dErrors.CodeUnavailable},
		{"other", fmt.Errorf("boom"), dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.allocator.EXPECT().AllocateNext(gomock.Any(), key).Return(0, tc.err)

			_, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "MH"})
			s.Require().Error(err)
			s.Equal(tc.code, dErrors.CodeOf(err))
			s.ErrorIs(err, tc.err)
		})
	}
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.SequenceExhausted.WithLabelValues("a")))
}

func (s *TranslationSuite) TestAllocationTimeoutApplied() {
	s.allocator.EXPECT().AllocateNext(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.PartitionKey) (int, error) {
			_, ok := ctx.Deadline()
			s.True(ok, "allocator must run under a deadline")
			<-ctx.Done()
			return 0, ctx.Err()
		})

	_, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "MH"})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *TranslationSuite) TestPublishFailureDoesNotFailAllocation() {
	s.allocator.EXPECT().AllocateNext(gomock.Any(), gomock.Any()).Return(9, nil)

	id, err := s.svc.GenerateUID(s.ctx, models.GenerateRequest{Category: "student", Region: "MH"})
	s.Require().NoError(err)
	s.Equal("a00009MH032025", id)

	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.PublishFailures))
}

func (s *TranslationSuite) TestVerifyIssuedWithoutLedgerUsesCounter() {
	key := models.PartitionKey{Category: models.CategoryStudent, Area: "MH", Month: 3, Year: 2025}
	s.allocator.EXPECT().Current(gomock.Any(), key).Return(5, nil).Times(2)

	ok, err := s.svc.VerifyIssued(s.ctx, "a00005MH032025")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.svc.VerifyIssued(s.ctx, "a00006MH032025")
	s.Require().NoError(err)
	s.False(ok)
}

func TestNew_RequiresAllocator(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
