// Package allocator hands out the next unused sequence number of a partition.
//
// Two strategies share one retry loop. CounterAllocator relies on the store's
// atomic increment; OptimisticAllocator reads the ledger maximum and claims
// max+1 under the ledger's uniqueness constraint. Either way a value is never
// returned to two callers: uniqueness is enforced by the backing store, never
// by an in-process lock alone.
package allocator

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

	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/backoff"
	"sportsuid/pkg/platform/sentinel"
)

const (
	tracerName = "sportsuid/internal/uid/allocator"

	StrategyCounter    = "counter"
	StrategyOptimistic = "optimistic"

	DefaultMaxAttempts = 5
	DefaultBaseBackoff = 100 * time.Millisecond
	DefaultMaxBackoff  = time.Second

	// DefaultOptimisticConflictAttempts bounds lost races per optimistic
	// allocation. In practice the caller's deadline ends the loop first.
	DefaultOptimisticConflictAttempts = 1000
	DefaultContentionBase             = 2 * time.Millisecond
	DefaultContentionMax              = 100 * time.Millisecond
)

// RetryObserver is told about every retry and why it happened.
type RetryObserver interface {
	ObserveRetry(strategy, reason string)
}

type noopObserver struct{}

func (noopObserver) ObserveRetry(string, string) {}

type options struct {
	logger      *slog.Logger
	backoff     backoff.Strategy
	maxAttempts int
	// conflictAttempts and contention govern write-side conflicts. Zero and
	// nil fall back to maxAttempts and backoff.
	conflictAttempts int
	contention       backoff.Strategy
	observer         RetryObserver
	tracer           trace.Tracer
}

// Option configures an allocator.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBackoff sets the delay strategy between attempts.
func WithBackoff(s backoff.Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.backoff = s
		}
	}
}

// WithMaxAttempts bounds the attempts per allocation spent on store
// failures, including the first.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithConflictAttempts bounds the attempts lost to write-side conflicts.
func WithConflictAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.conflictAttempts = n
		}
	}
}

// WithContentionBackoff sets the delay between attempts lost to write-side
// conflicts.
func WithContentionBackoff(s backoff.Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.contention = s
		}
	}
}

func WithRetryObserver(obs RetryObserver) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func (o options) conflictBudget() int {
	if o.conflictAttempts > 0 {
		return o.conflictAttempts
	}
	return o.maxAttempts
}

func (o options) contentionBackoff() backoff.Strategy {
	if o.contention != nil {
		return o.contention
	}
	return o.backoff
}

func newOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		backoff:     backoff.NewLinearWithJitter(DefaultBaseBackoff, DefaultMaxBackoff),
		maxAttempts: DefaultMaxAttempts,
		observer:    noopObserver{},
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// run executes attempt until it succeeds, fails permanently, or runs out of
// budget. Store failures and write-side conflicts are budgeted separately.
// Exhaustion and cancellation end the loop immediately.
func run(ctx context.Context, o options, strategy string, key models.PartitionKey, attempt func(ctx context.Context) (int, error)) (int, error) {
	ctx, span := o.tracer.Start(ctx, "uid.allocate",
		trace.WithAttributes(
			attribute.String("uid.partition", key.String()),
			attribute.String("uid.strategy", strategy),
		),
	)
	defer span.End()

	seq, tries, err := loop(ctx, o, strategy, key, attempt)
	span.SetAttributes(attribute.Int("uid.attempts", tries))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int("uid.sequence", seq))
	return seq, nil
}

func loop(ctx context.Context, o options, strategy string, key models.PartitionKey, attempt func(ctx context.Context) (int, error)) (int, int, error) {
	var (
		lastErr             error
		failures, conflicts int
	)
	for n := 1; ; n++ {
		seq, err := attempt(ctx)
		if err == nil {
			return seq, n, nil
		}

		switch {
		case errors.Is(err, sentinel.ErrExhausted), errors.Is(err, models.ErrSequenceExhausted):
			return 0, n, &models.ExhaustedError{Key: key}
		case ctx.Err() != nil:
			return 0, n, fmt.Errorf("allocate %s: %w", key, ctx.Err())
		case !sentinel.IsTransient(err):
			return 0, n, fmt.Errorf("allocate %s: %w", key, err)
		}
		lastErr = err

		var (
			reason string
			spent  int
			budget int
			delay  backoff.Strategy
		)
		if errors.Is(err, sentinel.ErrUnavailable) {
			failures++
			reason, spent, budget, delay = "unavailable", failures, o.maxAttempts, o.backoff
		} else {
			conflicts++
			reason, spent, budget, delay = "conflict", conflicts, o.conflictBudget(), o.contentionBackoff()
		}
		o.observer.ObserveRetry(strategy, reason)
		o.logger.DebugContext(ctx, "allocation attempt failed, retrying",
			"partition", key.String(),
			"strategy", strategy,
			"attempt", n,
			"reason", reason,
			"error", err,
		)

		if spent >= budget {
			o.logger.WarnContext(ctx, "allocation retries exhausted",
				"partition", key.String(),
				"strategy", strategy,
				"attempts", n,
				"reason", reason,
				"error", lastErr,
			)
			return 0, n, fmt.Errorf("allocate %s after %d attempts: %w: %w",
				key, n, models.ErrAllocationConflict, lastErr)
		}
		if err := backoff.Wait(ctx, delay, spent); err != nil {
			return 0, n, fmt.Errorf("allocate %s: %w", key, err)
		}
	}
}
