package bridge

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/omeyang/xbridge/internal/mqcore"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
	"github.com/omeyang/xbridge/pkg/observability/xmetrics"
	"github.com/omeyang/xbridge/pkg/resilience/xretry"
)

// 默认值。
const (
	DefaultConnectTimeout    = 10 * time.Second
	DefaultTCPKeepAlive      = 60 * time.Second
	DefaultHeartbeatInterval = time.Second
)

// Option 配置本包的组件，每个组件只读取与自己相关的字段。
type Option func(*options)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

type options struct {
	logger     xlog.Logger
	observer   xmetrics.Observer
	instanceID string

	connectTimeout time.Duration
	tcpKeepAlive   time.Duration
	dialOptions    []grpc.DialOption

	backoff xretry.BackoffPolicy

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	signals bool
	tasks   []task
}

func defaultOptions() options {
	return options{
		logger:            xlog.Discard(),
		observer:          xmetrics.NoopObserver{},
		connectTimeout:    DefaultConnectTimeout,
		tcpKeepAlive:      DefaultTCPKeepAlive,
		backoff:           mqcore.DefaultBackoff(),
		heartbeatInterval: DefaultHeartbeatInterval,
		signals:           true,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger 设置日志器，默认丢弃。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，默认空实现。
func WithObserver(ob xmetrics.Observer) Option {
	return func(o *options) {
		if ob != nil {
			o.observer = ob
		}
	}
}

// WithInstanceID 设置实例 ID，写入日志并随每次 RPC 发送。
func WithInstanceID(id string) Option {
	return func(o *options) {
		o.instanceID = id
	}
}

// WithConnectTimeout 设置每个端点的初始连接期限，默认 10s。
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithTCPKeepAlive 设置 TCP keepalive 周期，默认 60s。
func WithTCPKeepAlive(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tcpKeepAlive = d
		}
	}
}

// WithDialOptions 追加 gRPC 拨号选项，排在默认选项之后，可覆盖默认拨号器。
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) {
		o.dialOptions = append(o.dialOptions, opts...)
	}
}

// WithBackoff 设置订阅重连的退避策略，默认初始 1s、上限 30s、乘数 2、抖动 0.1。
func WithBackoff(b xretry.BackoffPolicy) Option {
	return func(o *options) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithHeartbeatInterval 设置心跳周期，默认 1s。
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatInterval = d
		}
	}
}

// WithHeartbeatTimeout 设置单次心跳 RPC 超时，0 表示不限制（默认）。
func WithHeartbeatTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.heartbeatTimeout = d
		}
	}
}

// WithoutSignals 关闭 Bridge 的信号处理，由调用方通过 ctx 控制退出。
func WithoutSignals() Option {
	return func(o *options) {
		o.signals = false
	}
}

// WithTask 在 Bridge 的任务组中额外运行一个任务（如配置热加载）。
func WithTask(name string, fn func(ctx context.Context) error) Option {
	return func(o *options) {
		o.tasks = append(o.tasks, task{name: name, fn: fn})
	}
}
