// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转、固定属性）
//   - 自动从 context 注入 endpoint、topic、trace_id 等（EnrichHandler，默认启用）
//   - 动态级别调整（配置热更新时生效）
//   - [ToSlog] 适配只接受 *slog.Logger 的组件
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后 Build 返回该错误。
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xbridge.log").
//		Build()
//	if err != nil { ... }
//	defer cleanup()
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Operation]、[Count]、[Lag]、[QueueID]、[Attempt]。
package xlog
