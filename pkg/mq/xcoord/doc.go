// Package xcoord 实现与队列协调器 queuebridge.QueueBridgeBalancer 通信的 gRPC
// 客户端和服务端注册。
//
// 消息类型手写了 protobuf 二进制编解码（protowire），不依赖代码生成。
// 编解码器以名称 "proto" 按调用强制使用（grpc.ForceCodec /
// grpc.ForceServerCodec），不替换进程级注册的 proto 编解码器。
//
// 方法：
//
//	Subscribe  服务端流  SubscribeRequest → stream QueueMessage
//	Heartbeat  一元      HeartbeatRequest → Empty
//	Push       一元      QueueMessage     → Empty
//	PushBatch  一元      PushBatchRequest → Empty
//
// FakeServer 是内存实现，按主题把推送的消息转发给订阅者，
// 用于测试和本地开发。
package xcoord
