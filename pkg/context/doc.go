// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: Context 增强，注入/提取中继身份（实例、端点、topic）和追踪信息
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用全局变量
//   - 日志通过 xlog 的 enrich handler 自动带出这些字段
package context
