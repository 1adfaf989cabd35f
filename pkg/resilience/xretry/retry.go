package xretry

import (
	"context"
	"time"
)

// RetryPolicy 定义重试策略接口
type RetryPolicy interface {
	// MaxAttempts 返回最大尝试次数（包含首次），0 表示无限
	MaxAttempts() int

	// ShouldRetry 判断第 attempt 次失败（从 1 开始）后是否继续
	ShouldRetry(ctx context.Context, attempt int, err error) bool
}

// BackoffPolicy 定义退避策略接口
type BackoffPolicy interface {
	// NextDelay 返回第 attempt 次失败（从 1 开始）后的等待时长
	NextDelay(attempt int) time.Duration
}

// Executor 重试执行器接口
type Executor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
