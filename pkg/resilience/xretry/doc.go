// Package xretry 提供重试策略与退避策略。
//
//   - BackoffPolicy：计算第 n 次失败后的等待时长（订阅循环、CLI push 共用）
//   - RetryPolicy：判断是否继续重试
//   - Retryer：组合两者，底层使用 [avast/retry-go/v5]
//
//	retryer := xretry.NewRetryer(
//	    xretry.WithRetryPolicy(xretry.NewFixedRetry(3)),
//	    xretry.WithBackoffPolicy(xretry.NewExponentialBackoff()),
//	)
//	err := retryer.Do(ctx, func(ctx context.Context) error {
//	    return client.Push(ctx, msg)
//	})
//
// 用 NewPermanentError 包装的错误不会被重试。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
