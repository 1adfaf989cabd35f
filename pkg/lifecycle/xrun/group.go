package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup + context 管理多个任务的并发运行和协调关闭。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建新的 Group，返回 Group 与派生 context。
// nil ctx 视为 context.Background()，nil Option 被跳过。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 启动一个 goroutine 执行 fn，fn 返回非 nil 错误会取消所有任务。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，额外记录生命周期日志并恢复 panic。
//
// panic 被转换为 *PanicError 返回，从而取消整个 Group。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.opts.logger.Debug("task starting",
			slog.String("group", g.opts.name),
			slog.String("task", name),
		)
		err := g.safeRun(name, fn)
		var pe *PanicError
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			g.opts.logger.Debug("task stopped",
				slog.String("group", g.opts.name),
				slog.String("task", name),
			)
		case errors.As(err, &pe):
			g.opts.logger.Error("task panicked",
				slog.String("group", g.opts.name),
				slog.String("task", name),
				slog.Any("panic", pe.Value),
				slog.String("stack", string(pe.Stack)),
			)
		default:
			g.opts.logger.Warn("task exited with error",
				slog.String("group", g.opts.name),
				slog.String("task", name),
				slog.Any("error", err),
			)
		}
		return err
	})
}

func (g *Group) safeRun(name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Task: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(g.ctx)
}

// Wait 等待所有任务完成，返回第一个非 nil 错误。
//
// 即使所有任务返回 nil，Cancel(cause) 设置的非 Canceled 原因仍会被返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()

	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() == nil {
			// context.Canceled 来自任务内部
			return err
		}
		return g.explicitCause()
	}
	if err == nil && g.causeCtx.Err() != nil {
		return g.explicitCause()
	}
	return err
}

func (g *Group) explicitCause() error {
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 主动取消所有任务，cause 作为 Wait 的返回值。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// ----------------------------------------------------------------------------
// Service
// ----------------------------------------------------------------------------

// Service 可管理的长运行任务。
// Run 阻塞直到 ctx 取消或发生错误。
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service。
type ServiceFunc func(ctx context.Context) error

// Run 实现 Service 接口。
func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunServices 运行多个 Service，监听默认信号并协调关闭。
func RunServices(ctx context.Context, services ...Service) error {
	return RunServicesWithOptions(ctx, nil, services...)
}

// RunServicesWithOptions 与 RunServices 相同，但支持配置选项。
func RunServicesWithOptions(ctx context.Context, opts []Option, services ...Service) error {
	g, _ := NewGroup(ctx, opts...)
	g.WatchSignals()
	for _, svc := range services {
		if svc == nil {
			g.Go(func(context.Context) error { return ErrNilService })
			continue
		}
		g.Go(svc.Run)
	}
	return g.Wait()
}

// WatchSignals 在 Group 内启动信号监听任务，收到信号时以 *SignalError
// 取消 Group。设置了 WithoutSignalHandler 时不启动。
func (g *Group) WatchSignals() {
	if g.opts.noSignalHandler {
		return
	}
	g.Go(g.watchSignals)
}

// watchSignals 收到信号时以 *SignalError 取消 Group。
func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	// signal.Notify 无参调用会订阅所有信号
	if len(signals) == 0 {
		signals = DefaultSignals()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-testSigChan(ctx):
	case sig = <-sigCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info("received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
	return nil
}
