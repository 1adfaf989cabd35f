package mqcore

import (
	"context"
	"time"

	"github.com/omeyang/xbridge/pkg/resilience/xretry"
)

// ConsumeFunc 消费函数签名。
// 返回 error 时触发退避后重试，返回 nil 时重置退避并立即进入下一轮。
type ConsumeFunc func(ctx context.Context) error

// ErrorHandler 在每次消费错误、进入退避前调用。
// attempt 为连续失败次数（从 1 开始），delay 为即将等待的时长。
type ErrorHandler func(err error, attempt int, delay time.Duration)

// ConsumeLoopOptions 消费循环配置选项。
type ConsumeLoopOptions struct {
	// Backoff 退避策略，默认 DefaultBackoff()。
	Backoff xretry.BackoffPolicy

	// OnError 错误回调，可选。
	OnError ErrorHandler
}

// ConsumeLoopOption 配置函数类型。
type ConsumeLoopOption func(*ConsumeLoopOptions)

// WithBackoff 设置退避策略，nil 保持默认。
func WithBackoff(backoff xretry.BackoffPolicy) ConsumeLoopOption {
	return func(o *ConsumeLoopOptions) {
		if backoff != nil {
			o.Backoff = backoff
		}
	}
}

// WithOnError 设置错误回调。
func WithOnError(onError ErrorHandler) ConsumeLoopOption {
	return func(o *ConsumeLoopOptions) {
		o.OnError = onError
	}
}

// DefaultBackoff 返回默认退避策略：初始 1s，上限 30s，乘数 2，抖动 10%。
func DefaultBackoff() xretry.BackoffPolicy {
	return xretry.NewExponentialBackoff(
		xretry.WithInitialDelay(time.Second),
		xretry.WithMaxDelay(30*time.Second),
		xretry.WithMultiplier(2),
		xretry.WithJitter(0.1),
	)
}

// RunConsumeLoop 运行消费循环，使用退避策略处理错误。
//
// 循环逻辑：
//  1. 调用 consume
//  2. 成功（nil）：重置退避计数
//  3. 失败：若错误由 Progress 包装则先重置计数；计数加一后按策略等待
//  4. 循环直到 ctx 取消，返回 ctx.Err()
//
// 退避等待可被 ctx 取消打断。
func RunConsumeLoop(ctx context.Context, consume ConsumeFunc, opts ...ConsumeLoopOption) error {
	if consume == nil {
		return ErrNilConsumeFunc
	}
	options := &ConsumeLoopOptions{
		Backoff: DefaultBackoff(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := consume(ctx)
		if err == nil {
			attempt = 0
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if IsProgress(err) {
			attempt = 0
		}
		attempt++
		delay := options.Backoff.NextDelay(attempt)

		if options.OnError != nil {
			options.OnError(err, attempt, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// sleep 等待 d 或 ctx 取消。
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
