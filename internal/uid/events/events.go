// Package events announces issued identifiers to downstream subscribers.
package events

import (
	"context"
	"sync"
	"time"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/ports"
)

const DefaultTopic = "uid.allocated"

var (
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ ports.EventPublisher = (*InMemoryPublisher)(nil)
	_ ports.EventPublisher = Noop{}
)

// Allocated is the wire form of an uid.allocated event.
type Allocated struct {
	UID       string      `json:"uid"`
	Kind      models.Kind `json:"kind"`
	Partition string      `json:"partition"`
	Sequence  int         `json:"sequence"`
	IssuedAt  time.Time   `json:"issued_at"`
	RequestID string      `json:"request_id,omitempty"`
}

// FromIssued converts an allocation into its event payload.
func FromIssued(issued models.Issued) Allocated {
	return Allocated{
		UID:       issued.UID,
		Kind:      issued.Kind,
		Partition: issued.Partition.String(),
		Sequence:  issued.Sequence,
		IssuedAt:  issued.IssuedAt.UTC(),
		RequestID: issued.RequestID,
	}
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishAllocated(context.Context, models.Issued) error { return nil }

// InMemoryPublisher keeps events in memory for tests and local runs.
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []Allocated
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) PublishAllocated(ctx context.Context, issued models.Issued) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, FromIssued(issued))
	return nil
}

// Events returns a copy of everything published so far.
func (p *InMemoryPublisher) Events() []Allocated {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Allocated, len(p.events))
	copy(out, p.events)
	return out
}
