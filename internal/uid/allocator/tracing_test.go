package allocator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"sportsuid/internal/uid/models"
	"sportsuid/internal/uid/store/counter"
)

func TestAllocateSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	cs := counter.NewInMemoryStore()
	a := NewCounterAllocator(cs, nil, WithLogger(quiet()), WithTracer(tp.Tracer("test")))

	_, err := a.AllocateNext(context.Background(), studentsMH)
	require.NoError(t, err)

	require.NoError(t, cs.Seed(context.Background(), cricketKA, models.EventCapacity))
	_, err = a.AllocateNext(context.Background(), cricketKA)
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "uid.allocate", ok.Name())
	assert.Contains(t, ok.Attributes(), attribute.String("uid.partition", "a:MH:03:2025"))
	assert.Contains(t, ok.Attributes(), attribute.Int("uid.sequence", 1))

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Contains(t, failed.Attributes(), attribute.String("uid.strategy", StrategyCounter))
}
