package xmetrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xbridge/pkg/context/xctx"
)

const (
	defaultScope = "github.com/omeyang/xbridge"

	metricOperations = "xbridge.operations"
	metricLatency    = "xbridge.operation.latency"
	metricQueueLag   = "xbridge.queue.lag"
)

// Option 配置 NewOTelObserver。
type Option func(*otelOptions)

type otelOptions struct {
	scope  string
	tracer trace.TracerProvider
	meter  metric.MeterProvider
}

// WithScope 设置 instrumentation scope 名称。
func WithScope(name string) Option {
	return func(o *otelOptions) {
		if name != "" {
			o.scope = name
		}
	}
}

// WithTracerProvider 替换全局 TracerProvider。
func WithTracerProvider(p trace.TracerProvider) Option {
	return func(o *otelOptions) {
		if p != nil {
			o.tracer = p
		}
	}
}

// WithMeterProvider 替换全局 MeterProvider。
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(o *otelOptions) {
		if p != nil {
			o.meter = p
		}
	}
}

type otelObserver struct {
	tracer     trace.Tracer
	operations metric.Int64Counter
	latency    metric.Float64Histogram
	lag        metric.Int64Gauge
}

// NewOTelObserver 创建 OpenTelemetry 观测器，默认使用全局 provider。
//
// 指标：
//   - xbridge.operations：按 component/operation/outcome 计数
//   - xbridge.operation.latency：操作耗时（秒）
//   - xbridge.queue.lag：按 topic 的积压消息数
func NewOTelObserver(opts ...Option) (Observer, error) {
	o := otelOptions{
		scope:  defaultScope,
		tracer: otel.GetTracerProvider(),
		meter:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	meter := o.meter.Meter(o.scope)
	obs := &otelObserver{tracer: o.tracer.Tracer(o.scope)}
	var err error

	if obs.operations, err = meter.Int64Counter(metricOperations,
		metric.WithDescription("bridge operations by outcome"), metric.WithUnit("{operation}")); err != nil {
		return nil, instrumentErr(metricOperations, err)
	}
	if obs.latency, err = meter.Float64Histogram(metricLatency,
		metric.WithDescription("bridge operation latency"), metric.WithUnit("s")); err != nil {
		return nil, instrumentErr(metricLatency, err)
	}
	if obs.lag, err = meter.Int64Gauge(metricQueueLag,
		metric.WithDescription("messages stored locally and not yet consumed"), metric.WithUnit("{message}")); err != nil {
		return nil, instrumentErr(metricQueueLag, err)
	}
	return obs, nil
}

func instrumentErr(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCreateInstrument, name, err)
}

func (o *otelObserver) RecordLag(ctx context.Context, topic string, lag uint64) {
	o.lag.Record(context.WithoutCancel(ctx), clampInt64(lag),
		metric.WithAttributes(attribute.String("topic", topic)))
}

func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	component := orDefault(opts.Component, "unknown")
	operation := orDefault(opts.Operation, "unknown")

	attrs := append([]attribute.KeyValue{
		attribute.String("component", component),
	}, opts.Attrs...)

	ctx, span := o.tracer.Start(withRemoteParent(ctx), operation,
		trace.WithSpanKind(spanKind(opts.Kind)),
		trace.WithAttributes(attrs...),
	)
	ctx = withTraceIDs(ctx, span.SpanContext())

	return ctx, &otelSpan{
		obs:   o,
		span:  span,
		ctx:   ctx,
		start: time.Now(),
		key:   attribute.NewSet(attribute.String("component", component), attribute.String("operation", operation)),
	}
}

type otelSpan struct {
	obs   *otelObserver
	span  trace.Span
	ctx   context.Context
	start time.Time
	key   attribute.Set
	once  sync.Once
}

func (s *otelSpan) End(result Result) {
	s.once.Do(func() {
		outcome := "ok"
		if result.Err != nil {
			outcome = "error"
			s.span.RecordError(result.Err)
			s.span.SetStatus(codes.Error, result.Err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.SetAttributes(result.Attrs...)
		s.span.End()

		// 订阅被取消的迭代也要计入指标
		ctx := context.WithoutCancel(s.ctx)
		attrs := metric.WithAttributes(append(s.key.ToSlice(), attribute.String("outcome", outcome))...)
		s.obs.operations.Add(ctx, 1, attrs)
		s.obs.latency.Record(ctx, time.Since(s.start).Seconds(), attrs)
	})
}

func spanKind(k Kind) trace.SpanKind {
	switch k {
	case KindClient:
		return trace.SpanKindClient
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// withRemoteParent ctx 中没有 OTel span 而 xctx 带有 trace 标识时，
// 以其作为远端父节点，新跨度延续同一条 trace。
func withRemoteParent(ctx context.Context) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	tid, err := trace.TraceIDFromHex(xctx.TraceID(ctx))
	if err != nil {
		return ctx
	}
	sid, err := trace.SpanIDFromHex(xctx.SpanID(ctx))
	if err != nil {
		return ctx
	}
	var flags trace.TraceFlags
	if f, err := strconv.ParseUint(xctx.TraceFlags(ctx), 16, 8); err == nil {
		flags = trace.TraceFlags(f)
	}
	return trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: flags,
	}))
}

// withTraceIDs 把新跨度的标识写入 xctx，日志据此关联 trace。
func withTraceIDs(ctx context.Context, sc trace.SpanContext) context.Context {
	if !sc.IsValid() {
		return ctx
	}
	for _, set := range []func(context.Context) (context.Context, error){
		func(c context.Context) (context.Context, error) { return xctx.WithTraceID(c, sc.TraceID().String()) },
		func(c context.Context) (context.Context, error) { return xctx.WithSpanID(c, sc.SpanID().String()) },
		func(c context.Context) (context.Context, error) { return xctx.WithTraceFlags(c, sc.TraceFlags().String()) },
	} {
		if next, err := set(ctx); err == nil {
			ctx = next
		}
	}
	return ctx
}
