package bridge

import (
	"errors"

	"github.com/omeyang/xbridge/pkg/lifecycle/xrun"
)

var (
	// ErrConnect 启动时无法连接协调器，致命错误。
	ErrConnect = errors.New("bridge: connect to coordinator")

	// ErrUnknownEndpoint 端点尚未 Connect。
	ErrUnknownEndpoint = errors.New("bridge: unknown endpoint")

	// ErrSubscribe 打开订阅流失败，退避后重试。
	ErrSubscribe = errors.New("bridge: open subscription")

	// ErrRecv 订阅流读取失败，退避后重试。
	ErrRecv = errors.New("bridge: receive from stream")

	// ErrStreamEnded 协调器正常结束了订阅流，退避后重新订阅。
	ErrStreamEnded = errors.New("bridge: stream ended")

	// ErrForward 消息写入本地队列失败，本轮订阅中止。
	ErrForward = errors.New("bridge: forward to local queue")

	// ErrAppend 本地队列追加失败。
	ErrAppend = errors.New("bridge: append to local queue")

	// ErrOpenQueue 创建本地写句柄失败。
	ErrOpenQueue = errors.New("bridge: open local queue")

	// ErrClosed 组件已关闭。
	ErrClosed = errors.New("bridge: closed")

	// ErrInvalidArgument 构造参数无效。
	ErrInvalidArgument = errors.New("bridge: invalid argument")

	// ErrTaskPanic 任务 panic，被恢复为错误并取消整个 Bridge。
	ErrTaskPanic = xrun.ErrTaskPanic
)
