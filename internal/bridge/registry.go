package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/omeyang/xbridge/pkg/mq/xqueue"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
	"github.com/omeyang/xbridge/pkg/observability/xmetrics"
	"github.com/omeyang/xbridge/pkg/util/xkeylock"
)

// Producer 是一个主题的本地写句柄。
type Producer interface {
	Append(payload []byte) error
	Lag() (uint64, error)
}

// Opener 为主题创建写句柄，同一主题重复调用应返回等价的句柄。
type Opener interface {
	Producer(topic string) (Producer, error)
}

// OpenerFunc 将函数适配为 Opener。
type OpenerFunc func(topic string) (Producer, error)

func (f OpenerFunc) Producer(topic string) (Producer, error) { return f(topic) }

// QueueOpener 以 xqueue.Env 作为本地队列引擎。
func QueueOpener(env *xqueue.Env) Opener {
	return OpenerFunc(func(topic string) (Producer, error) {
		return env.Producer(topic)
	})
}

// LagSnapshot 是某一时刻一个主题的积压量。
type LagSnapshot struct {
	Topic string
	Lag   uint64
}

// Registry 持有每个主题唯一的写句柄。
//
// 主题到句柄的 map 由一把短锁保护，只在查找和创建时持有；
// 追加按主题串行化，不同主题可并发追加。
type Registry struct {
	opener   Opener
	locks    xkeylock.Locker
	logger   xlog.Logger
	observer xmetrics.Observer

	mu        sync.Mutex
	producers map[string]Producer
	closed    bool
}

// NewRegistry 创建 Registry，opener 不能为 nil。
func NewRegistry(opener Opener, opts ...Option) (*Registry, error) {
	if opener == nil {
		return nil, fmt.Errorf("%w: nil opener", ErrInvalidArgument)
	}
	locks, err := xkeylock.New()
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	return &Registry{
		opener:    opener,
		locks:     locks,
		logger:    o.logger.With(xlog.Component("registry")),
		observer:  o.observer,
		producers: make(map[string]Producer),
	}, nil
}

// Init 确保主题的写句柄存在，可重复调用。
func (r *Registry) Init(ctx context.Context, topic string) error {
	_, err := r.producer(ctx, topic)
	return err
}

// Push 按到达顺序把 payload 追加到主题的本地队列，句柄不存在时先创建。
func (r *Registry) Push(ctx context.Context, topic string, payload []byte) (err error) {
	ctx, span := xmetrics.Start(ctx, r.observer, xmetrics.SpanOptions{
		Component: "bridge",
		Operation: "registry.push",
		Kind:      xmetrics.KindProducer,
		Attrs:     []xmetrics.Attr{xmetrics.String("topic", topic), xmetrics.Int("bytes", len(payload))},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	p, err := r.producer(ctx, topic)
	if err != nil {
		return err
	}

	h, err := r.locks.Acquire(ctx, topic)
	if err != nil {
		if errors.Is(err, xkeylock.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	defer func() { _ = h.Unlock() }()

	if err := p.Append(payload); err != nil {
		return fmt.Errorf("%w: topic %q: %w", ErrAppend, topic, err)
	}
	return nil
}

// LagSnapshotAll 返回所有已知主题的积压量，按主题排序。
// 单个主题查询失败时记 WARN 日志，该主题积压量报 0。
func (r *Registry) LagSnapshotAll(ctx context.Context) []LagSnapshot {
	ctx, span := xmetrics.Start(ctx, r.observer, xmetrics.SpanOptions{
		Component: "bridge",
		Operation: "registry.lag",
		Kind:      xmetrics.KindInternal,
	})

	r.mu.Lock()
	snaps := make([]LagSnapshot, 0, len(r.producers))
	handles := make(map[string]Producer, len(r.producers))
	for topic, p := range r.producers {
		snaps = append(snaps, LagSnapshot{Topic: topic})
		handles[topic] = p
	}
	r.mu.Unlock()

	slices.SortFunc(snaps, func(a, b LagSnapshot) int { return strings.Compare(a.Topic, b.Topic) })

	failed := 0
	for i := range snaps {
		lag, err := handles[snaps[i].Topic].Lag()
		if err != nil {
			failed++
			r.logger.Warn(ctx, "lag query failed", xlog.QueueID(snaps[i].Topic), xlog.Err(err))
			lag = 0
		}
		snaps[i].Lag = lag
		xmetrics.RecordLag(ctx, r.observer, snaps[i].Topic, lag)
	}

	span.End(xmetrics.Result{Attrs: []xmetrics.Attr{
		xmetrics.Int("topics", len(snaps)),
		xmetrics.Int("failed", failed),
	}})
	return snaps
}

// Topics 返回已创建写句柄的主题，按字典序排列。
func (r *Registry) Topics() []string {
	r.mu.Lock()
	topics := make([]string, 0, len(r.producers))
	for t := range r.producers {
		topics = append(topics, t)
	}
	r.mu.Unlock()
	slices.Sort(topics)
	return topics
}

// Close 拒绝后续 Init/Push 并唤醒等待追加锁的调用方，可重复调用。
// 底层队列引擎由调用方关闭。
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.producers = make(map[string]Producer)
	r.mu.Unlock()
	return r.locks.Close()
}

// producer 在 map 锁内查找或创建写句柄，保证每个主题至多一个。
func (r *Registry) producer(ctx context.Context, topic string) (Producer, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if p, ok := r.producers[topic]; ok {
		return p, nil
	}
	p, err := r.opener.Producer(topic)
	if err != nil {
		return nil, fmt.Errorf("%w: topic %q: %w", ErrOpenQueue, topic, err)
	}
	r.producers[topic] = p
	r.logger.Info(ctx, "local queue ready", xlog.QueueID(topic))
	return p, nil
}
