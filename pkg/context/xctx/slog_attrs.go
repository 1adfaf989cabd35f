package xctx

import (
	"context"
	"log/slog"
)

// AppendRelayAttrs 将 context 中的中继字段追加到现有切片。
// 只追加非空字段，调用方预分配切片可避免热路径分配。
func AppendRelayAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := InstanceID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyInstanceID, v))
	}
	if v := Endpoint(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyEndpoint, v))
	}
	if v := Topic(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTopic, v))
	}
	return attrs
}

// AppendTraceAttrs 将 context 中的追踪信息追加到现有切片。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := TraceID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceID, v))
	}
	if v := SpanID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeySpanID, v))
	}
	if v := TraceFlags(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceFlags, v))
	}
	return attrs
}

// RelayAttrs 从 context 提取中继字段，转换为 slog.Attr 切片。
// 都为空时返回 nil。
func RelayAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendRelayAttrs(make([]slog.Attr, 0, relayFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// TraceAttrs 从 context 提取追踪信息，转换为 slog.Attr 切片。
// 都为空时返回 nil。
func TraceAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendTraceAttrs(make([]slog.Attr, 0, traceFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
