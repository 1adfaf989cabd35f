package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omeyang/xbridge/pkg/context/xctx"
	"github.com/omeyang/xbridge/pkg/lifecycle/xrun"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
)

// Bridge 在一个任务组中运行所有订阅和心跳任务。
type Bridge struct {
	endpoints []string
	topics    []string
	conns     *ConnManager
	registry  *Registry
	opts      []Option
	o         options
}

// New 创建 Bridge。opts 同时传给它创建的订阅和心跳任务。
func New(endpoints, topics []string, conns *ConnManager, registry *Registry, opts ...Option) (*Bridge, error) {
	if len(endpoints) == 0 || len(topics) == 0 {
		return nil, fmt.Errorf("%w: need at least one endpoint and one topic", ErrInvalidArgument)
	}
	if conns == nil || registry == nil {
		return nil, fmt.Errorf("%w: nil connection manager or registry", ErrInvalidArgument)
	}
	return &Bridge{
		endpoints: endpoints,
		topics:    topics,
		conns:     conns,
		registry:  registry,
		opts:      opts,
		o:         applyOptions(opts),
	}, nil
}

// Run 初始化本地队列、连接所有端点，然后运行任务直到收到信号、
// ctx 取消或某个任务失败。返回前依次关闭连接和 Registry。
//
// 信号或 ctx 取消导致的退出返回 nil；初始化失败、连接失败、
// 任务错误和任务 panic（ErrTaskPanic）返回对应错误。
func (b *Bridge) Run(ctx context.Context) (err error) {
	logger := b.o.logger.With(xlog.Component("bridge"))
	if b.o.instanceID != "" {
		ctx, _ = xctx.WithInstanceID(ctx, b.o.instanceID)
	}
	defer func() {
		err = errors.Join(err, b.shutdown())
	}()

	for _, topic := range b.topics {
		if err := b.registry.Init(ctx, topic); err != nil {
			return err
		}
	}
	if err := b.conns.ConnectAll(ctx, b.endpoints); err != nil {
		return err
	}

	runOpts := []xrun.Option{xrun.WithName("xbridge"), xrun.WithLogger(xlog.ToSlog(logger))}
	if !b.o.signals {
		runOpts = append(runOpts, xrun.WithoutSignalHandler())
	}
	g, _ := xrun.NewGroup(ctx, runOpts...)
	g.WatchSignals()

	if err := b.spawn(g); err != nil {
		g.Cancel(err)
		_ = g.Wait()
		return err
	}
	logger.Info(ctx, "bridge running",
		slog.Any("endpoints", b.endpoints),
		slog.Any("topics", b.topics),
	)

	err = g.Wait()
	var sigErr *xrun.SignalError
	switch {
	case err == nil:
		logger.Info(ctx, "bridge stopped")
		return nil
	case errors.As(err, &sigErr):
		logger.Info(ctx, "bridge stopped by signal", slog.String("signal", sigErr.Signal.String()))
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return nil
	default:
		logger.Error(ctx, "bridge failed", xlog.Err(err))
		return err
	}
}

func (b *Bridge) spawn(g *xrun.Group) error {
	for _, ep := range b.endpoints {
		client, err := b.conns.Client(ep)
		if err != nil {
			return err
		}
		hb, err := NewHeartbeat(ep, client, b.registry, b.opts...)
		if err != nil {
			return err
		}
		g.GoWithName("heartbeat "+ep, hb.Run)

		for _, topic := range b.topics {
			sub, err := NewSubscriber(ep, topic, client, b.registry, b.opts...)
			if err != nil {
				return err
			}
			g.GoWithName("subscribe "+ep+"/"+topic, sub.Run)
		}
	}
	for _, t := range b.o.tasks {
		g.GoWithName(t.name, t.fn)
	}
	return nil
}

// shutdown 先关闭连接再关闭 Registry。
func (b *Bridge) shutdown() error {
	return errors.Join(b.conns.Close(), b.registry.Close())
}
