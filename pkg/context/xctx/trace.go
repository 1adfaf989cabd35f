package xctx

import "context"

// Trace Key 常量，遵循 OpenTelemetry 语义约定（下划线分隔）
const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"

	traceFieldCount = 3
)

const (
	keyTraceID    = contextKey("xctx:trace_id")
	keySpanID     = contextKey("xctx:span_id")
	keyTraceFlags = contextKey("xctx:trace_flags")
)

// WithTraceID 将 trace ID 注入 context
//
// 通常由 xmetrics 在开启观测跨度时从 otel span 同步写入。
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	return withString(ctx, keyTraceID, traceID)
}

// TraceID 从 context 提取 trace ID，不存在返回空字符串
func TraceID(ctx context.Context) string {
	return stringValue(ctx, keyTraceID)
}

// RequireTraceID 从 context 获取 trace ID，不存在则返回 ErrMissingTraceID。
func RequireTraceID(ctx context.Context) (string, error) {
	return requireString(ctx, keyTraceID, ErrMissingTraceID)
}

// WithSpanID 将 span ID 注入 context
func WithSpanID(ctx context.Context, spanID string) (context.Context, error) {
	return withString(ctx, keySpanID, spanID)
}

// SpanID 从 context 提取 span ID，不存在返回空字符串
func SpanID(ctx context.Context) string {
	return stringValue(ctx, keySpanID)
}

// WithTraceFlags 将 trace flags（2 位十六进制，如 "01"）注入 context
func WithTraceFlags(ctx context.Context, flags string) (context.Context, error) {
	return withString(ctx, keyTraceFlags, flags)
}

// TraceFlags 从 context 提取 trace flags，不存在返回空字符串
func TraceFlags(ctx context.Context) string {
	return stringValue(ctx, keyTraceFlags)
}
