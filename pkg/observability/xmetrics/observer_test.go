package xmetrics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

type nilSpanObserver struct{ NoopObserver }

func (nilSpanObserver) Start(context.Context, SpanOptions) (context.Context, Span) {
	return nil, nil
}

type lagSink struct {
	NoopObserver
	topic string
	lag   uint64
}

func (l *lagSink) RecordLag(_ context.Context, topic string, lag uint64) {
	l.topic, l.lag = topic, lag
}

func TestStart_NilObserver(t *testing.T) {
	//nolint:staticcheck // nil context 兜底
	ctx, span := Start(nil, nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
	span.End(Result{Err: errors.New("ignored")})
}

func TestStart_ObserverReturnsNil(t *testing.T) {
	parent := context.Background()
	ctx, span := Start(parent, nilSpanObserver{}, SpanOptions{})
	assert.Equal(t, parent, ctx)
	assert.IsType(t, NoopSpan{}, span)
}

func TestRecordLag(t *testing.T) {
	sink := &lagSink{}
	RecordLag(context.Background(), sink, "orders", 42)
	assert.Equal(t, "orders", sink.topic)
	assert.Equal(t, uint64(42), sink.lag)

	assert.NotPanics(t, func() {
		RecordLag(context.Background(), NoopObserver{}, "orders", 1)
		RecordLag(context.Background(), nil, "orders", 1)
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "producer", KindProducer.String())
	assert.Equal(t, "consumer", KindConsumer.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
	assert.Equal(t, "kind(-1)", Kind(-1).String())
}

func TestUint64Clamps(t *testing.T) {
	assert.Equal(t, attribute.Int64("lag", 3), Uint64("lag", 3))
	assert.Equal(t, attribute.Int64("lag", math.MaxInt64), Uint64("lag", math.MaxUint64))
}
