package events

import (
	"context"
	"errors"
	"log/slog"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
	"sportsuid/pkg/platform/circuit"
)

// ErrPublishingSuspended is returned without contacting the broker while the
// breaker is open.
var ErrPublishingSuspended = errors.New("event publishing suspended")

// GuardedPublisher stops calling a failing broker for a cooldown, so an
// outage costs allocations one fast error instead of a produce timeout each.
type GuardedPublisher struct {
	next    ports.EventPublisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next ports.EventPublisher, breaker *circuit.Breaker, logger *slog.Logger) *GuardedPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedPublisher{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedPublisher) PublishAllocated(ctx context.Context, issued models.Issued) error {
	if !g.breaker.Allow() {
		return ErrPublishingSuspended
	}
	if err := g.next.PublishAllocated(ctx, issued); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "event publishing suspended",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "event publishing resumed", "breaker", g.breaker.Name())
	}
	return nil
}
