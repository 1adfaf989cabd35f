package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key 常量
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyLag       = "lag"
	KeyQueueID   = "queue_id"
	KeyAttempt   = "attempt"
)

// Err 创建错误属性
//
// err 为 nil 时返回空属性（会被 slog 忽略）。
//
//	if err != nil {
//	    logger.Error(ctx, "append failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性，标识日志来源组件
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Lag 创建积压量属性
func Lag(n uint64) slog.Attr {
	return slog.Uint64(KeyLag, n)
}

// QueueID 创建协调器消息中携带的 queue_id 属性
func QueueID(id string) slog.Attr {
	return slog.String(KeyQueueID, id)
}

// Attempt 创建重试次数属性
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
