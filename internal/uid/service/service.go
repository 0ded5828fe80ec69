// Package service is the facade registration, event, and payment code calls
// to issue and inspect identifiers.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	uidcodes "sportsuid/internal/uid/codes"
	"sportsuid/internal/uid/composite"
	"sportsuid/internal/uid/format"
	"sportsuid/internal/uid/metrics"
	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	dErrors "sportsuid/pkg/domain-errors"
	"sportsuid/pkg/platform/sentinel"
	"sportsuid/pkg/requestcontext"
)

const (
	tracerName = "sportsuid/internal/uid/service"

	defaultAllocationTimeout = 3 * time.Second
	defaultBatchConcurrency  = 8
	defaultMaxBatchSize      = 500
)

// Allocator hands out sequence numbers. Implemented by the allocator package.
type Allocator interface {
	AllocateNext(ctx context.Context, key models.PartitionKey) (int, error)
	Current(ctx context.Context, key models.PartitionKey) (int, error)
}

// Service issues, validates, and decomposes identifiers.
type Service struct {
	allocator         Allocator
	ledger            ports.Ledger
	resolver          *uidcodes.Resolver
	publisher         ports.EventPublisher
	logger            *slog.Logger
	metrics           *metrics.Metrics
	tracer            trace.Tracer
	allocationTimeout time.Duration
	batchConcurrency  int
	maxBatchSize      int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher announces every issued identifier through p.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLedger lets VerifyIssued answer from the ledger instead of the counter.
func WithLedger(l ports.Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

func WithResolver(r *uidcodes.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithAllocationTimeout caps one allocation including its retries.
func WithAllocationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.allocationTimeout = d
		}
	}
}

// WithBatchLimits bounds GenerateBatch.
func WithBatchLimits(concurrency, maxSize int) Option {
	return func(s *Service) {
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
		if maxSize > 0 {
			s.maxBatchSize = maxSize
		}
	}
}

// New constructs a Service.
func New(allocator Allocator, opts ...Option) (*Service, error) {
	if allocator == nil {
		return nil, errors.New("allocator is required")
	}
	s := &Service{
		allocator:         allocator,
		logger:            slog.Default(),
		tracer:            otel.Tracer(tracerName),
		allocationTimeout: defaultAllocationTimeout,
		batchConcurrency:  defaultBatchConcurrency,
		maxBatchSize:      defaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		ropts := []uidcodes.Option{uidcodes.WithLogger(s.logger)}
		if s.metrics != nil {
			ropts = append(ropts, uidcodes.WithFallbackObserver(s.metrics))
		}
		s.resolver = uidcodes.NewResolver(ropts...)
	}
	return s, nil
}

// userPlan is a validated user request waiting for its sequence.
type userPlan struct {
	key models.PartitionKey
}

// eventPlan is a validated event request waiting for its sequence.
type eventPlan struct {
	key    models.PartitionKey
	sport  string
	region string
	date   time.Time
}

// GenerateUID issues the next user identifier for the request's category,
// region, and month. The date defaults to the request time.
func (s *Service) GenerateUID(ctx context.Context, req models.GenerateRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "uid.generate", trace.WithAttributes(
		attribute.String("uid.kind", string(models.KindUser)),
	))
	defer span.End()

	plan, err := s.planUser(ctx, req)
	if err != nil {
		return "", s.fail(span, err)
	}
	id, err := s.issueUser(ctx, plan)
	if err != nil {
		return "", s.fail(span, err)
	}
	span.SetAttributes(attribute.String("uid.id", id))
	return id, nil
}

// GenerateEventUID issues the next event identifier for the sport, region,
// and event date.
func (s *Service) GenerateEventUID(ctx context.Context, req models.EventRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "uid.generate", trace.WithAttributes(
		attribute.String("uid.kind", string(models.KindEvent)),
	))
	defer span.End()

	date := requestcontext.Now(ctx)
	if req.Date != nil {
		date = *req.Date
	}
	if err := format.CheckDate(models.KindEvent, date); err != nil {
		return "", s.fail(span, dErrors.Wrap(err, dErrors.CodeInvalidInput, "event date is outside the supported range"))
	}
	key, sport, region, err := s.resolver.EventPartition(ctx, req.Sport, req.Region, date)
	if err != nil {
		return "", s.fail(span, translateInput(err))
	}
	span.SetAttributes(attribute.String("uid.partition", key.String()))

	id, err := s.issueEvent(ctx, eventPlan{key: key, sport: sport, region: region, date: date})
	if err != nil {
		return "", s.fail(span, err)
	}
	span.SetAttributes(attribute.String("uid.id", id))
	return id, nil
}

// GenerateBatch issues one user identifier per request, in order. Every
// request is validated before any sequence is allocated, so a bad item fails
// the batch without consuming numbers. Allocation failures part way through
// leave the numbers already issued unused.
func (s *Service) GenerateBatch(ctx context.Context, reqs []models.GenerateRequest) ([]string, error) {
	if len(reqs) == 0 {
		return []string{}, nil
	}
	if len(reqs) > s.maxBatchSize {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("batch holds %d items, the limit is %d", len(reqs), s.maxBatchSize))
	}

	plans := make([]userPlan, len(reqs))
	for i, req := range reqs {
		plan, err := s.planUser(ctx, req)
		if err != nil {
			return nil, itemError(i, err)
		}
		plans[i] = plan
	}

	ids := make([]string, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, plan := range plans {
		g.Go(func() error {
			id, err := s.issueUser(gctx, plan)
			if err != nil {
				return itemError(i, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "batch issued",
		"request_id", requestcontext.RequestID(ctx),
		"count", len(ids),
	)
	return ids, nil
}

func (s *Service) planUser(ctx context.Context, req models.GenerateRequest) (userPlan, error) {
	date := requestcontext.Now(ctx)
	if req.Date != nil {
		date = *req.Date
	}
	if err := format.CheckDate(models.KindUser, date); err != nil {
		return userPlan{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "date is outside the supported range")
	}
	key, err := s.resolver.UserPartition(ctx, req.Category, req.Region, date)
	if err != nil {
		return userPlan{}, translateInput(err)
	}
	return userPlan{key: key}, nil
}

func (s *Service) issueUser(ctx context.Context, plan userPlan) (string, error) {
	seq, err := s.allocate(ctx, models.KindUser, plan.key)
	if err != nil {
		return "", err
	}
	id, err := format.FormatUser(models.Components{
		Kind:     models.KindUser,
		Category: plan.key.Category,
		Sequence: seq,
		Region:   plan.key.Area,
		Month:    plan.key.Month,
		Year:     plan.key.Year,
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to format identifier")
	}
	s.issued(ctx, id, models.KindUser, plan.key, seq)
	return id, nil
}

func (s *Service) issueEvent(ctx context.Context, plan eventPlan) (string, error) {
	seq, err := s.allocate(ctx, models.KindEvent, plan.key)
	if err != nil {
		return "", err
	}
	id, err := format.FormatEvent(models.Components{
		Kind:     models.KindEvent,
		Category: models.CategoryEvent,
		Sequence: seq,
		Sport:    plan.sport,
		Region:   plan.region,
		Day:      plan.date.Day(),
		Month:    int(plan.date.Month()),
		Year:     plan.date.Year(),
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to format identifier")
	}
	s.issued(ctx, id, models.KindEvent, plan.key, seq)
	return id, nil
}

// allocate runs the allocator under the allocation timeout and translates
// its failures.
func (s *Service) allocate(ctx context.Context, kind models.Kind, key models.PartitionKey) (int, error) {
	actx, cancel := context.WithTimeout(ctx, s.allocationTimeout)
	defer cancel()

	start := time.Now()
	seq, err := s.allocator.AllocateNext(actx, key)
	elapsed := time.Since(start)
	if err == nil {
		s.metrics.ObserveAllocation(string(kind), "ok", elapsed)
		return seq, nil
	}

	requestID := requestcontext.RequestID(ctx)
	switch {
	case errors.Is(err, models.ErrSequenceExhausted):
		s.metrics.ObserveAllocation(string(kind), "exhausted", elapsed)
		s.metrics.IncrementSequenceExhausted(string(key.Category))
		s.logger.ErrorContext(ctx, "partition sequence exhausted",
			"request_id", requestID,
			"partition", key.String(),
			"capacity", key.Capacity(),
		)
		return 0, dErrors.Wrap(err, dErrors.CodeExhausted,
			"no identifiers left for this category, region and period; contact support")
	case errors.Is(err, models.ErrAllocationConflict):
		s.metrics.ObserveAllocation(string(kind), "conflict", elapsed)
		s.metrics.IncrementConflictsExhausted(string(kind))
		s.logger.WarnContext(ctx, "allocation gave up under contention",
			"request_id", requestID,
			"partition", key.String(),
			"error", err,
		)
		return 0, dErrors.Wrap(err, dErrors.CodeConflict, "identifier service is busy, try again")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.metrics.ObserveAllocation(string(kind), "timeout", elapsed)
		return 0, dErrors.Wrap(err, dErrors.CodeTimeout, "identifier allocation timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		s.metrics.ObserveAllocation(string(kind), "unavailable", elapsed)
		s.logger.ErrorContext(ctx, "sequence store unavailable",
			"request_id", requestID,
			"partition", key.String(),
			"error", err,
		)
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "identifier store is unavailable")
	default:
		s.metrics.ObserveAllocation(string(kind), "error", elapsed)
		s.logger.ErrorContext(ctx, "allocation failed",
			"request_id", requestID,
			"partition", key.String(),
			"error", err,
		)
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate identifier")
	}
}

// issued logs and publishes a successful allocation. Publishing failures are
// logged and counted only: the identifier is already the caller's.
func (s *Service) issued(ctx context.Context, id string, kind models.Kind, key models.PartitionKey, seq int) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, "identifier issued",
		"request_id", requestID,
		"uid", id,
		"partition", key.String(),
		"sequence", seq,
	)
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishAllocated(ctx, models.Issued{
		UID:       id,
		Kind:      kind,
		Partition: key,
		Sequence:  seq,
		IssuedAt:  requestcontext.Now(ctx),
		RequestID: requestID,
	})
	if err != nil {
		s.metrics.IncrementPublishFailures()
		s.logger.ErrorContext(ctx, "failed to publish allocation event",
			"request_id", requestID,
			"uid", id,
			"error", err,
		)
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// translateInput maps resolver failures to input errors.
func translateInput(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidCategory):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown category")
	case errors.Is(err, models.ErrMissingRegion):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "region is required")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve partition")
	}
}

func itemError(i int, err error) error {
	msg := "failed"
	if de, ok := dErrors.As(err); ok {
		msg = de.Message
	}
	return dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("item %d: %s", i, msg))
}

// ValidateUID checks a canonical user or event identifier. It never fails:
// the verdict and the reason are in the result.
func (s *Service) ValidateUID(id string) models.ValidationResult {
	return format.Validate(id)
}

// ParseUID decomposes a canonical user or event identifier without touching
// storage.
func (s *Service) ParseUID(id string) (models.Components, error) {
	c, err := format.Parse(id)
	if err != nil {
		return models.Components{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed identifier")
	}
	return c, nil
}

// FormatUIDForDisplay renders a user identifier with separators; anything
// else is returned unchanged.
func (s *Service) FormatUIDForDisplay(id string) string {
	return format.ForDisplay(id)
}

// BuildCertificateIdentifier derives a certificate identifier. It does not
// validate its parents.
func (s *Service) BuildCertificateIdentifier(eventID, studentID string) string {
	return composite.Certificate(eventID, studentID)
}

// BuildOrderIdentifier derives an order identifier. It does not validate its
// parents.
func (s *Service) BuildOrderIdentifier(eventID, coachID string) string {
	return composite.Order(eventID, coachID)
}

// CertificateIdentifier builds a certificate identifier after checking that
// eventID is an event and studentID a student.
func (s *Service) CertificateIdentifier(eventID, studentID string) (string, error) {
	if err := checkParents(eventID, studentID, models.CategoryStudent); err != nil {
		return "", err
	}
	return composite.Certificate(eventID, studentID), nil
}

// OrderIdentifier builds an order identifier after checking that eventID is
// an event and coachID a coach.
func (s *Service) OrderIdentifier(eventID, coachID string) (string, error) {
	if err := checkParents(eventID, coachID, models.CategoryCoach); err != nil {
		return "", err
	}
	return composite.Order(eventID, coachID), nil
}

// SplitComposite decomposes a certificate or order identifier.
func (s *Service) SplitComposite(id string) (composite.Parts, error) {
	parts, err := composite.Split(id)
	if err != nil {
		return composite.Parts{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed composite identifier")
	}
	return parts, nil
}

func checkParents(eventID, holderID string, holder models.Category) error {
	ev, err := format.Parse(eventID)
	if err != nil || ev.Kind != models.KindEvent {
		if err == nil {
			err = models.Malformed("not an event identifier")
		}
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "event_id is not a valid event identifier")
	}
	h, err := format.Parse(holderID)
	if err != nil || h.Category != holder {
		if err == nil {
			err = models.Malformed("holder has the wrong category")
		}
		return dErrors.Wrap(err, dErrors.CodeInvalidInput,
			fmt.Sprintf("holder is not a valid %s identifier", holder.Kind()))
	}
	return nil
}

// VerifyIssued reports whether a syntactically valid identifier was actually
// handed out. With a ledger the answer is exact; otherwise it is whether the
// partition counter has reached the identifier's sequence.
func (s *Service) VerifyIssued(ctx context.Context, id string) (bool, error) {
	c, err := s.ParseUID(id)
	if err != nil {
		return false, err
	}
	key := c.PartitionKey()

	if s.ledger != nil {
		found, err := s.ledger.Issued(ctx, key, []int{c.Sequence})
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check ledger")
		}
		return len(found) > 0, nil
	}

	cur, err := s.allocator.Current(ctx, key)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read counter")
	}
	return c.Sequence <= cur, nil
}

// CurrentSequence returns the last sequence issued in a partition.
func (s *Service) CurrentSequence(ctx context.Context, key models.PartitionKey) (int, error) {
	cur, err := s.allocator.Current(ctx, key)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read counter")
	}
	return cur, nil
}
