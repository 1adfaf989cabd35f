// Package mqcore 提供流式消费循环的共享核心功能。
//
// 本包是 internal 包，供桥接的订阅循环与 CLI 的 drain 命令使用。
// 依赖低层工具包 pkg/resilience/xretry 提供退避策略。
//
// 主要功能：
//   - RunConsumeLoop：基于 xretry.BackoffPolicy 的消费循环，直到 ctx 取消
//   - Progress：标记"失败前已取得进展"的错误，使下一次退避从初始延迟开始
package mqcore
