// Package mq 提供消息队列相关的子包。
//
// 子包列表：
//   - xcoord: 远端协调器的 gRPC 客户端、服务描述和内存实现
//   - xqueue: 基于 bbolt 的本地持久 FIFO 队列，按 topic 分桶
//
// 内部包：
//   - internal/mqcore: 共享的消费循环和退避
//
// 设计原则：
//   - 每个 topic 的消息严格按追加顺序保存和弹出
//   - 远端投递为至少一次，重连后可能重复
package mq
