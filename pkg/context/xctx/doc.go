// Package xctx 提供桥接进程的轻量级上下文字段管理。
//
// 整合中继字段（relay）和追踪信息（trace）的 context 存取能力，
// 并为日志系统提供属性提取功能。
//
// # 核心功能
//
// 中继信息（Relay）- 标识日志来源的工作单元：
//   - instance_id : 桥接实例标识（进程级，启动时生成）
//   - endpoint    : 协调器地址（host:port）
//   - topic       : 主题名称
//
// 追踪信息（Trace）- 分布式追踪：
//   - trace_id    : 追踪标识（W3C 规范，128-bit）
//   - span_id     : 跨度标识（W3C 规范，64-bit）
//   - trace_flags : 追踪标志（W3C 规范，采样决策）
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：从 context 读取值，缺失时返回零值
//	RequireXxx(ctx)        - 强制读取：值必须存在，缺失时返回错误
//
// # 哨兵错误
//
//	ErrNilContext        - context 为 nil
//	ErrMissingInstanceID - instance_id 缺失
//	ErrMissingEndpoint   - endpoint 缺失
//	ErrMissingTopic      - topic 缺失
//	ErrMissingTraceID    - trace_id 缺失
//
// xctx 是纯存取层，不校验值的格式。
package xctx
