package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/omeyang/xbridge/pkg/context/xctx"
	"github.com/omeyang/xbridge/pkg/lifecycle/xrun"
	"github.com/omeyang/xbridge/pkg/mq/xcoord"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
	"github.com/omeyang/xbridge/pkg/observability/xmetrics"
)

// LagSource 提供积压量快照，Registry 实现了该接口。
type LagSource interface {
	LagSnapshotAll(ctx context.Context) []LagSnapshot
}

// Heartbeat 周期性向一个端点上报所有主题的积压量。
// 上报失败只记日志，不影响后续心跳和其他任务。
type Heartbeat struct {
	endpoint string
	client   xcoord.Client
	source   LagSource
	interval time.Duration
	timeout  time.Duration
	logger   xlog.Logger
	observer xmetrics.Observer
	relay    xctx.Relay
}

// NewHeartbeat 创建心跳任务。
func NewHeartbeat(endpoint string, client xcoord.Client, source LagSource, opts ...Option) (*Heartbeat, error) {
	if client == nil || source == nil {
		return nil, fmt.Errorf("%w: heartbeat needs client and lag source", ErrInvalidArgument)
	}
	o := applyOptions(opts)
	return &Heartbeat{
		endpoint: endpoint,
		client:   client,
		source:   source,
		interval: o.heartbeatInterval,
		timeout:  o.heartbeatTimeout,
		logger:   o.logger.With(xlog.Component("heartbeat")),
		observer: o.observer,
		relay:    xctx.Relay{InstanceID: o.instanceID, Endpoint: endpoint},
	}, nil
}

// Run 启动即上报一次，此后每个周期上报一次，直到 ctx 取消。
func (h *Heartbeat) Run(ctx context.Context) error {
	ctx, err := xctx.WithRelay(ctx, h.relay)
	if err != nil {
		return err
	}
	return xrun.Ticker(h.interval, true, h.beat)(ctx)
}

func (h *Heartbeat) beat(ctx context.Context) error {
	ctx, span := xmetrics.Start(ctx, h.observer, xmetrics.SpanOptions{
		Component: "bridge",
		Operation: "heartbeat.send",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.String("endpoint", h.endpoint)},
	})

	snaps := h.source.LagSnapshotAll(ctx)
	req := &xcoord.HeartbeatRequest{QueueLags: make([]xcoord.QueueLag, 0, len(snaps))}
	for _, s := range snaps {
		req.QueueLags = append(req.QueueLags, xcoord.QueueLag{QueueID: s.Topic, Lag: s.Lag})
	}

	callCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	_, err := h.client.Heartbeat(callCtx, req)
	span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int("topics", len(snaps))}})

	if err != nil && ctx.Err() == nil {
		h.logger.Warn(ctx, "heartbeat failed", xlog.Err(err), xlog.Count(int64(len(snaps))))
	}
	return nil
}
