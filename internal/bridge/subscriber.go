package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/omeyang/xbridge/internal/mqcore"
	"github.com/omeyang/xbridge/pkg/context/xctx"
	"github.com/omeyang/xbridge/pkg/mq/xcoord"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
	"github.com/omeyang/xbridge/pkg/observability/xmetrics"
	"github.com/omeyang/xbridge/pkg/resilience/xretry"
)

// Pusher 接收订阅到的消息，Registry 实现了该接口。
type Pusher interface {
	Push(ctx context.Context, topic string, payload []byte) error
}

// Subscriber 把一个端点上一个主题的订阅流转发到本地队列。
//
// 状态循环：断开 → 订阅中 → 退避 → 断开。打开失败、读取失败、
// 写入失败和流正常结束都会进入退避；本轮转发过消息时退避从初始值重新开始。
type Subscriber struct {
	endpoint string
	topic    string
	client   xcoord.Client
	pusher   Pusher
	backoff  xretry.BackoffPolicy
	logger   xlog.Logger
	observer xmetrics.Observer
	relay    xctx.Relay
}

// NewSubscriber 创建订阅任务。
func NewSubscriber(endpoint, topic string, client xcoord.Client, pusher Pusher, opts ...Option) (*Subscriber, error) {
	if topic == "" || client == nil || pusher == nil {
		return nil, fmt.Errorf("%w: subscriber needs topic, client and pusher", ErrInvalidArgument)
	}
	o := applyOptions(opts)
	return &Subscriber{
		endpoint: endpoint,
		topic:    topic,
		client:   client,
		pusher:   pusher,
		backoff:  o.backoff,
		logger:   o.logger.With(xlog.Component("subscriber")),
		observer: o.observer,
		relay:    xctx.Relay{InstanceID: o.instanceID, Endpoint: endpoint, Topic: topic},
	}, nil
}

// Run 持续订阅直到 ctx 取消，返回 ctx.Err()。
func (s *Subscriber) Run(ctx context.Context) error {
	ctx, err := xctx.WithRelay(ctx, s.relay)
	if err != nil {
		return err
	}
	return mqcore.RunConsumeLoop(ctx, s.iterate,
		mqcore.WithBackoff(s.backoff),
		mqcore.WithOnError(func(err error, attempt int, delay time.Duration) {
			s.logger.Warn(ctx, "subscription interrupted",
				xlog.Err(err),
				xlog.Attempt(attempt),
				slog.Duration("backoff", delay),
			)
		}),
	)
}

// iterate 执行一轮订阅：打开流并转发消息直到出错。总是返回非 nil 错误。
func (s *Subscriber) iterate(ctx context.Context) (err error) {
	var forwarded int64
	ctx, span := xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: "bridge",
		Operation: "subscribe.iteration",
		Kind:      xmetrics.KindConsumer,
		Attrs: []xmetrics.Attr{
			xmetrics.String("endpoint", s.endpoint),
			xmetrics.String("topic", s.topic),
		},
	})
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int64("forwarded", forwarded)}})
		if forwarded > 0 {
			err = mqcore.Progress(err)
		}
	}()

	// 转发失败时取消 streamCtx 以中止流
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.Subscribe(streamCtx, &xcoord.SubscribeRequest{QueueID: s.topic})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	s.logger.Info(ctx, "subscribed")

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return ErrStreamEnded
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRecv, err)
		}
		if msg.QueueID != "" && msg.QueueID != s.topic {
			s.logger.Debug(ctx, "queue id differs from subscription, storing under subscribed topic",
				xlog.QueueID(msg.QueueID))
		}
		if err := s.pusher.Push(ctx, s.topic, msg.Message); err != nil {
			return fmt.Errorf("%w: %w", ErrForward, err)
		}
		forwarded++
	}
}
