package xctx

import (
	"context"
	"errors"
)

// contextKey 包私有类型，避免与其他包的 context key 冲突。
type contextKey string

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingInstanceID instance_id 缺失
	ErrMissingInstanceID = errors.New("xctx: missing instance_id")

	// ErrMissingEndpoint endpoint 缺失
	ErrMissingEndpoint = errors.New("xctx: missing endpoint")

	// ErrMissingTopic topic 缺失
	ErrMissingTopic = errors.New("xctx: missing topic")

	// ErrMissingTraceID trace_id 缺失
	ErrMissingTraceID = errors.New("xctx: missing trace_id")
)

// withString 是所有字符串字段 WithXxx 的共享实现。
func withString(ctx context.Context, key contextKey, value string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, key, value), nil
}

// stringValue 是所有字符串字段 Xxx 的共享实现，缺失时返回空字符串。
func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// requireString 是所有字符串字段 RequireXxx 的共享实现。
func requireString(ctx context.Context, key contextKey, missing error) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := stringValue(ctx, key)
	if v == "" {
		return "", missing
	}
	return v, nil
}
