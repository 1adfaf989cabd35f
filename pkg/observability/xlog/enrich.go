package xlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omeyang/xbridge/pkg/context/xctx"
)

// ErrNilHandler 当 NewEnrichHandler 的 base handler 为 nil 时返回
var ErrNilHandler = errors.New("xlog: base handler is nil")

// EnrichHandler 自动从 context 提取中继和追踪信息并注入日志
//
// 装饰模式实现，包装底层 slog.Handler，在 Handle() 时添加：
//   - relay: instance_id, endpoint, topic
//   - trace: trace_id, span_id, trace_flags
//
// context 中缺少的字段直接跳过，不影响日志记录。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler
//
// 调用 WithGroup 后注入的字段会被归入 group 下。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// maxEnrichAttrs 最大注入属性数量（relay 3 + trace 3）
const maxEnrichAttrs = 6

// Handle 在调用底层 handler 前注入 context 字段
//
// 根据 slog 契约，修改前必须 Clone record。
// 注入顺序：relay 字段在前，trace 字段在后。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := buf[:0]
	attrs = xctx.AppendRelayAttrs(attrs, ctx)
	attrs = xctx.AppendTraceAttrs(attrs, ctx)

	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
