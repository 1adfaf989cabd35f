package xlog

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ToSlog 将 Logger 转换为 *slog.Logger，供只接受标准库 logger 的组件使用
// （例如 xrun.WithLogger）。
//
// 由 Builder 构建的 logger 直接复用其 handler（含 enrich 装饰）；
// 其他实现通过适配 handler 转发。nil 返回 slog.Default()。
func ToSlog(l Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	if xl, ok := l.(*xlogger); ok {
		return slog.New(xl.handler)
	}
	return slog.New(&loggerHandler{logger: l})
}

// loggerHandler 将 slog.Record 转发到 Logger
type loggerHandler struct {
	logger Logger
}

func (h *loggerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if lv, ok := h.logger.(Leveler); ok {
		return lv.Enabled(ctx, Level(level))
	}
	return true
}

func (h *loggerHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(ctx, r.Message, attrs...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(ctx, r.Message, attrs...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(ctx, r.Message, attrs...)
	default:
		h.logger.Debug(ctx, r.Message, attrs...)
	}
	return nil
}

func (h *loggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &loggerHandler{logger: h.logger.With(attrs...)}
}

// WithGroup Logger 接口不支持分组，组名作为前缀忽略
func (h *loggerHandler) WithGroup(string) slog.Handler {
	return h
}

// Discard 返回丢弃所有输出的 Logger，用于未注入 logger 的组件和测试。
func Discard() Logger {
	return &xlogger{
		handler:        slog.DiscardHandler,
		levelVar:       new(slog.LevelVar),
		errorCount:     new(atomic.Uint64),
		inErrorHandler: new(atomic.Bool),
	}
}
