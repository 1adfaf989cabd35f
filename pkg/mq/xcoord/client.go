package xcoord

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

//go:generate mockgen -destination=xcoordmock/client_mock.go -package=xcoordmock . Client

// Client 是协调器客户端。
type Client interface {
	// Subscribe 打开队列的服务端流。流在 ctx 取消时终止。
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[QueueMessage], error)

	// Heartbeat 上报积压量。
	Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*Empty, error)

	// Push 推送单条消息。
	Push(ctx context.Context, in *QueueMessage, opts ...grpc.CallOption) (*Empty, error)

	// PushBatch 批量推送同一队列的消息。
	PushBatch(ctx context.Context, in *PushBatchRequest, opts ...grpc.CallOption) (*Empty, error)
}

// ClientOption 配置 Client。
type ClientOption func(*client)

// WithInstanceID 在每次调用的 metadata 中携带实例 ID。
func WithInstanceID(id string) ClientOption {
	return func(c *client) {
		c.instanceID = id
	}
}

type client struct {
	cc         grpc.ClientConnInterface
	instanceID string
}

// NewClient 基于已有连接创建客户端，连接由调用方管理。
func NewClient(cc grpc.ClientConnInterface, opts ...ClientOption) (Client, error) {
	if cc == nil {
		return nil, ErrNilConn
	}
	c := &client{cc: cc}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *client) prepare(ctx context.Context, opts []grpc.CallOption) (context.Context, []grpc.CallOption) {
	if c.instanceID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, MetadataInstanceKey, c.instanceID)
	}
	all := make([]grpc.CallOption, 0, len(opts)+1)
	all = append(all, grpc.ForceCodec(Codec()))
	return ctx, append(all, opts...)
}

func (c *client) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[QueueMessage], error) {
	ctx, opts = c.prepare(ctx, opts)
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], MethodSubscribe, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, QueueMessage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *client) Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*Empty, error) {
	return c.invoke(ctx, MethodHeartbeat, in, opts)
}

func (c *client) Push(ctx context.Context, in *QueueMessage, opts ...grpc.CallOption) (*Empty, error) {
	return c.invoke(ctx, MethodPush, in, opts)
}

func (c *client) PushBatch(ctx context.Context, in *PushBatchRequest, opts ...grpc.CallOption) (*Empty, error) {
	return c.invoke(ctx, MethodPushBatch, in, opts)
}

func (c *client) invoke(ctx context.Context, method string, in wireMessage, opts []grpc.CallOption) (*Empty, error) {
	ctx, opts = c.prepare(ctx, opts)
	out := new(Empty)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
