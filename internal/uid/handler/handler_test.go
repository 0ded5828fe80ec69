package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sportsuid/internal/uid/allocator"
	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/service"
	"sportsuid/internal/uid/store/counter"
	"sportsuid/internal/uid/store/ledger"
	"sportsuid/pkg/platform/middleware/requesttime"
	"sportsuid/pkg/testutil"
)

// HandlerSuite drives the handler through a router backed by real in-memory
// stores.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	led := ledger.NewInMemoryStore()
	alloc := allocator.NewCounterAllocator(counter.NewInMemoryStore(), led, allocator.WithLogger(logger))
	svc, err := service.New(alloc, service.WithLogger(logger), service.WithLedger(led), service.WithBatchLimits(2, 3))
	require.NoError(s.T(), err)

	now := time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
	r := chi.NewRouter()
	r.Use(requesttime.MiddlewareWithClock(func() time.Time { return now }))
	New(svc, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), method, path, body))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	return *testutil.UnmarshalResponse[T](t, rec)
}

// =============================================================================
// POST /v1/uids
// =============================================================================

func (s *HandlerSuite) TestGenerate() {
	rec := s.do(http.MethodPost, "/v1/uids", map[string]string{"category": "student", "region": "Maharashtra"})
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	resp := decode[UIDResponse](s.T(), rec)
	assert.Equal(s.T(), "a00001MH032025", resp.UID)
	assert.Equal(s.T(), "a-00001-MH-03-2025", resp.Display)
}

func (s *HandlerSuite) TestGenerate_ExplicitDate() {
	rec := s.do(http.MethodPost, "/v1/uids", map[string]string{"category": "coach", "region": "KA", "date": "2026-11-02"})
	require.Equal(s.T(), http.StatusCreated, rec.Code)
	assert.Equal(s.T(), "c00001KA112026", decode[UIDResponse](s.T(), rec).UID)
}

func (s *HandlerSuite) TestGenerate_Errors() {
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"invalid json", "not json", http.StatusBadRequest, "bad_request"},
		{"empty body", "", http.StatusBadRequest, "bad_request"},
		{"unknown field", `{"category":"student","region":"Goa","extra":1}`, http.StatusBadRequest, "bad_request"},
		{"missing category", map[string]string{"region": "Goa"}, http.StatusBadRequest, "validation_error"},
		{"bad date", map[string]string{"category": "student", "region": "Goa", "date": "15/03/2025"}, http.StatusBadRequest, "validation_error"},
		{"unknown category", map[string]string{"category": "referee", "region": "Goa"}, http.StatusBadRequest, "invalid_input"},
		{"missing region", map[string]string{"category": "student"}, http.StatusBadRequest, "invalid_input"},
		{"date out of range", map[string]string{"category": "student", "region": "Goa", "date": "2019-01-01"}, http.StatusBadRequest, "invalid_input"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := s.do(http.MethodPost, "/v1/uids", tc.body)
			testutil.AssertStatusAndError(s.T(), rec, tc.status, tc.code)
		})
	}
}

// =============================================================================
// POST /v1/uids/batch
// =============================================================================

func (s *HandlerSuite) TestGenerateBatch() {
	body := map[string]any{"items": []map[string]string{
		{"category": "club", "region": "Goa"},
		{"category": "club", "region": "Goa"},
	}}
	rec := s.do(http.MethodPost, "/v1/uids/batch", body)
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	resp := decode[BatchResponse](s.T(), rec)
	assert.ElementsMatch(s.T(), []string{"b00001GA032025", "b00002GA032025"}, resp.UIDs)
}

func (s *HandlerSuite) TestGenerateBatch_Rejects() {
	rec := s.do(http.MethodPost, "/v1/uids/batch", map[string]any{"items": []any{}})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	tooMany := make([]map[string]string, 4)
	for i := range tooMany {
		tooMany[i] = map[string]string{"category": "club", "region": "Goa"}
	}
	rec = s.do(http.MethodPost, "/v1/uids/batch", map[string]any{"items": tooMany})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/uids/batch", map[string]any{"items": []map[string]string{{"region": "Goa"}}})
	resp := testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "validation_error")
	assert.Contains(s.T(), resp.ErrorDescription, "items[0]")
}

// =============================================================================
// POST /v1/events/uids
// =============================================================================

func (s *HandlerSuite) TestGenerateEvent() {
	rec := s.do(http.MethodPost, "/v1/events/uids", map[string]string{"sport": "Football", "region": "Kerala", "date": "2025-07-01"})
	require.Equal(s.T(), http.StatusCreated, rec.Code)
	assert.Equal(s.T(), "EVT-0001-FB-KL-010725", decode[UIDResponse](s.T(), rec).UID)
}

// =============================================================================
// GET /v1/uids/{uid}
// =============================================================================

func (s *HandlerSuite) TestValidate() {
	rec := s.do(http.MethodGet, "/v1/uids/a00001MH032025", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	resp := decode[ValidationResponse](s.T(), rec)
	assert.True(s.T(), resp.Valid)
	require.NotNil(s.T(), resp.Components)
	assert.Equal(s.T(), 1, resp.Components.Sequence)
	assert.Nil(s.T(), resp.Issued)
}

func (s *HandlerSuite) TestValidate_MalformedIsNotAClientError() {
	rec := s.do(http.MethodGet, "/v1/uids/zzz", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	resp := decode[ValidationResponse](s.T(), rec)
	assert.False(s.T(), resp.Valid)
	assert.NotEmpty(s.T(), resp.Error)
	assert.Nil(s.T(), resp.Components)
}

func (s *HandlerSuite) TestValidate_AcceptsDisplayForm() {
	rec := s.do(http.MethodGet, "/v1/uids/a-00001-MH-03-2025", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.True(s.T(), decode[ValidationResponse](s.T(), rec).Valid)
}

func (s *HandlerSuite) TestValidate_Verify() {
	rec := s.do(http.MethodPost, "/v1/uids", map[string]string{"category": "student", "region": "Goa"})
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/v1/uids/a00001GA032025?verify=true", nil)
	resp := decode[ValidationResponse](s.T(), rec)
	require.NotNil(s.T(), resp.Issued)
	assert.True(s.T(), *resp.Issued)

	rec = s.do(http.MethodGet, "/v1/uids/a00002GA032025?verify=true", nil)
	resp = decode[ValidationResponse](s.T(), rec)
	require.NotNil(s.T(), resp.Issued)
	assert.False(s.T(), *resp.Issued)
}

func (s *HandlerSuite) TestDisplay() {
	rec := s.do(http.MethodGet, "/v1/uids/e00042DL122025/display", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "e-00042-DL-12-2025", decode[DisplayResponse](s.T(), rec).Display)
}

// =============================================================================
// Composites
// =============================================================================

func (s *HandlerSuite) TestCertificateAndSplit() {
	const event, student = "EVT-0001-CR-MH-150325", "a00001MH032025"
	rec := s.do(http.MethodPost, "/v1/certificates/uids", map[string]string{"event_id": event, "student_id": student})
	require.Equal(s.T(), http.StatusCreated, rec.Code)
	cert := decode[UIDResponse](s.T(), rec).UID
	assert.Equal(s.T(), "CERT-"+event+"-"+student, cert)

	rec = s.do(http.MethodGet, "/v1/composites/"+cert, nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	parts := decode[CompositeResponse](s.T(), rec)
	assert.Equal(s.T(), string(models.KindCertificate), parts.Kind)
	assert.Equal(s.T(), student, parts.HolderID)
}

func (s *HandlerSuite) TestOrder_WrongHolder() {
	rec := s.do(http.MethodPost, "/v1/orders/uids", map[string]string{"event_id": "EVT-0001-CR-MH-150325", "coach_id": "a00001MH032025"})
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "invalid_input")
}

func (s *HandlerSuite) TestOrder_MissingField() {
	rec := s.do(http.MethodPost, "/v1/orders/uids", map[string]string{"event_id": "EVT-0001-CR-MH-150325"})
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestSplitComposite_Malformed() {
	rec := s.do(http.MethodGet, "/v1/composites/CERT-nope", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}
