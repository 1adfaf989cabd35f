package xmetrics

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// Kind 跨度类型，与 OTel SpanKind 一一对应。
type Kind int

const (
	KindInternal Kind = iota
	KindClient
	KindProducer
	KindConsumer
)

var kindNames = [...]string{"internal", "client", "producer", "consumer"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Attr 跨度属性。
type Attr = attribute.KeyValue

// SpanOptions 开启跨度的参数。Operation 同时作为 span 名称。
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 跨度结果，Err 非 nil 即记为失败。
type Result struct {
	Err   error
	Attrs []Attr
}

// Span 一次观测，End 只生效一次。
type Span interface {
	End(result Result)
}

// Observer 开启跨度并上报队列积压量。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
	RecordLag(ctx context.Context, topic string, lag uint64)
}

// NoopObserver 什么也不记录。
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

func (NoopObserver) RecordLag(context.Context, string, uint64) {}

// NoopSpan 空跨度。
type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 通过 observer 开启跨度，返回的 ctx 和 Span 总是非 nil。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	next, span := observer.Start(ctx, opts)
	if next == nil {
		next = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return next, span
}

// RecordLag 上报 topic 积压量，observer 为 nil 时忽略。
func RecordLag(ctx context.Context, observer Observer, topic string, lag uint64) {
	if observer == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	observer.RecordLag(ctx, topic, lag)
}
