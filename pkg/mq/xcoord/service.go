package xcoord

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ServiceName 是协调器的 gRPC 服务全名。
const ServiceName = "queuebridge.QueueBridgeBalancer"

// 完整方法名。
const (
	MethodSubscribe = "/" + ServiceName + "/Subscribe"
	MethodHeartbeat = "/" + ServiceName + "/Heartbeat"
	MethodPush      = "/" + ServiceName + "/Push"
	MethodPushBatch = "/" + ServiceName + "/PushBatch"
)

// MetadataInstanceKey 携带桥接实例 ID 的 gRPC metadata 键。
const MetadataInstanceKey = "x-bridge-instance"

// Server 是协调器服务端实现。
type Server interface {
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[QueueMessage]) error
	Heartbeat(context.Context, *HeartbeatRequest) (*Empty, error)
	Push(context.Context, *QueueMessage) (*Empty, error)
	PushBatch(context.Context, *PushBatchRequest) (*Empty, error)
}

// UnimplementedServer 所有方法返回 codes.Unimplemented，可嵌入以只实现部分方法。
type UnimplementedServer struct{}

func (UnimplementedServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[QueueMessage]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

func (UnimplementedServer) Heartbeat(context.Context, *HeartbeatRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Heartbeat not implemented")
}

func (UnimplementedServer) Push(context.Context, *QueueMessage) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Push not implemented")
}

func (UnimplementedServer) PushBatch(context.Context, *PushBatchRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method PushBatch not implemented")
}

// RegisterServer 注册服务实现。承载服务的 grpc.Server 需要以
// ServerOptions 创建，否则请求会交给标准 protobuf 编解码器。
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

// ServerOptions 返回服务端必需的选项。
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.ForceServerCodec(Codec())}
}

// InstanceFromContext 读取调用方携带的实例 ID，服务端使用。
func InstanceFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(MetadataInstanceKey); len(v) > 0 {
		return v[0]
	}
	return ""
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heartbeat", Handler: unaryHandler(MethodHeartbeat, Server.Heartbeat)},
		{MethodName: "Push", Handler: unaryHandler(MethodPush, Server.Push)},
		{MethodName: "PushBatch", Handler: unaryHandler(MethodPushBatch, Server.PushBatch)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "queuebridge.proto",
}

type wirePtr[T any] interface {
	*T
	wireMessage
}

// unaryHandler 把类型化的服务方法适配为 grpc 的 methodHandler。
func unaryHandler[Req any, PReq wirePtr[Req]](
	fullMethod string,
	call func(Server, context.Context, PReq) (*Empty, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(Server), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(Server), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(Server).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, QueueMessage]{ServerStream: stream})
}
