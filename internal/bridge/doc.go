// Package bridge 把协调器上的远端队列桥接到本地持久化队列。
//
// 组件：
//   - ConnManager：每个协调器端点一条共享 gRPC 连接
//   - Registry：按主题惰性创建本地写句柄，按主题串行化追加，汇总积压量
//   - Subscriber：每个 (端点, 主题) 一个，订阅远端流并写入 Registry，
//     失败后按指数退避重连，次数不限
//   - Heartbeat：每个端点一个，周期上报所有主题的积压量
//   - Bridge：在一个 xrun.Group 中运行以上任务，处理信号和关闭顺序
//
// 投递语义为至少一次：重连后协调器可能重发已写入本地的消息。
package bridge
