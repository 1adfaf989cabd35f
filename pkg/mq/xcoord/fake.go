package xcoord

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xbridge/pkg/context/xctx"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
)

// HeartbeatRecord 是 FakeServer 收到的一次心跳。
type HeartbeatRecord struct {
	Instance string
	Lags     []QueueLag
	At       time.Time
}

// FakeServer 是内存协调器：推送到某主题的消息广播给该主题当前所有订阅者，
// 没有订阅者时暂存，下一个订阅者连上后补发。
type FakeServer struct {
	logger xlog.Logger

	mu           sync.Mutex
	subs         map[string]map[*fakeSub]struct{}
	pending      map[string][][]byte
	heartbeats   []HeartbeatRecord
	heartbeatErr error
}

var _ Server = (*FakeServer)(nil)

// NewFakeServer 创建 FakeServer，logger 为 nil 时不输出日志。
func NewFakeServer(logger xlog.Logger) *FakeServer {
	if logger == nil {
		logger = xlog.Discard()
	}
	return &FakeServer{
		logger:  logger.With(xlog.Component("fake-coordinator")),
		subs:    make(map[string]map[*fakeSub]struct{}),
		pending: make(map[string][][]byte),
	}
}

// Serve 在 lis 上提供服务直到 ctx 取消。
func (s *FakeServer) Serve(ctx context.Context, lis net.Listener) error {
	gs := grpc.NewServer(ServerOptions()...)
	RegisterServer(gs, s)

	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(lis) }()

	select {
	case <-ctx.Done():
		gs.Stop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func (s *FakeServer) Subscribe(in *SubscribeRequest, stream grpc.ServerStreamingServer[QueueMessage]) error {
	topic := in.QueueID
	if topic == "" {
		return status.Error(codes.InvalidArgument, ErrEmptyQueueID.Error())
	}
	ctx, _ := xctx.WithTopic(stream.Context(), topic)
	sub := s.attach(topic)
	defer s.detach(topic, sub)
	s.logger.Info(ctx, "subscriber attached", slog.String("instance", InstanceFromContext(ctx)))

	flush := func() error {
		for {
			msg, ok := sub.pop()
			if !ok {
				return nil
			}
			if err := stream.Send(&QueueMessage{QueueID: topic, Message: msg}); err != nil {
				return err
			}
		}
	}

	for {
		if err := flush(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.notify:
		case err := <-sub.end:
			if ferr := flush(); ferr != nil {
				return ferr
			}
			return err
		}
	}
}

func (s *FakeServer) Heartbeat(ctx context.Context, in *HeartbeatRequest) (*Empty, error) {
	rec := HeartbeatRecord{
		Instance: InstanceFromContext(ctx),
		Lags:     slices.Clone(in.QueueLags),
		At:       time.Now(),
	}

	s.mu.Lock()
	s.heartbeats = append(s.heartbeats, rec)
	err := s.heartbeatErr
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *FakeServer) Push(ctx context.Context, in *QueueMessage) (*Empty, error) {
	if in.QueueID == "" {
		return nil, status.Error(codes.InvalidArgument, ErrEmptyQueueID.Error())
	}
	s.broadcast(ctx, in.QueueID, [][]byte{in.Message})
	return &Empty{}, nil
}

func (s *FakeServer) PushBatch(ctx context.Context, in *PushBatchRequest) (*Empty, error) {
	if in.QueueID == "" {
		return nil, status.Error(codes.InvalidArgument, ErrEmptyQueueID.Error())
	}
	s.broadcast(ctx, in.QueueID, in.Messages)
	return &Empty{}, nil
}

// EndStreams 结束主题上所有订阅流。err 为 nil 时客户端收到 io.EOF，
// 否则收到对应的 gRPC 状态。返回结束的流数量。
func (s *FakeServer) EndStreams(topic string, err error) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sub := range s.subs[topic] {
		select {
		case sub.end <- err:
			n++
		default:
		}
	}
	return n
}

// Subscribers 返回主题当前的订阅流数量。
func (s *FakeServer) Subscribers(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[topic])
}

// Heartbeats 返回已收到心跳的副本。
func (s *FakeServer) Heartbeats() []HeartbeatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.heartbeats)
}

// SetHeartbeatError 设置后续心跳返回的错误，nil 恢复正常。
func (s *FakeServer) SetHeartbeatError(err error) {
	s.mu.Lock()
	s.heartbeatErr = err
	s.mu.Unlock()
}

func (s *FakeServer) broadcast(ctx context.Context, topic string, msgs [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[topic]
	if len(subs) == 0 {
		for _, m := range msgs {
			s.pending[topic] = append(s.pending[topic], slices.Clone(m))
		}
		return
	}
	for sub := range subs {
		sub.push(msgs)
	}
	s.logger.Debug(ctx, "messages broadcast", xlog.QueueID(topic), xlog.Count(int64(len(msgs))))
}

func (s *FakeServer) attach(topic string) *fakeSub {
	sub := &fakeSub{notify: make(chan struct{}, 1), end: make(chan error, 1)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[topic] == nil {
		s.subs[topic] = make(map[*fakeSub]struct{})
	}
	s.subs[topic][sub] = struct{}{}
	if p := s.pending[topic]; len(p) > 0 {
		delete(s.pending, topic)
		sub.push(p)
	}
	return sub
}

// detach 移除订阅者，未送出的消息转给其余订阅者或放回暂存。
func (s *FakeServer) detach(topic string, sub *fakeSub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[topic], sub)
	if len(s.subs[topic]) == 0 {
		delete(s.subs, topic)
	}

	sub.mu.Lock()
	left := sub.queue
	sub.queue = nil
	sub.mu.Unlock()
	if len(left) == 0 {
		return
	}
	if others := s.subs[topic]; len(others) > 0 {
		for o := range others {
			o.push(left)
		}
		return
	}
	s.pending[topic] = append(left, s.pending[topic]...)
}

type fakeSub struct {
	mu     sync.Mutex
	queue  [][]byte
	notify chan struct{}
	end    chan error
}

func (f *fakeSub) push(msgs [][]byte) {
	f.mu.Lock()
	for _, m := range msgs {
		f.queue = append(f.queue, slices.Clone(m))
	}
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *fakeSub) pop() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, false
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, true
}
