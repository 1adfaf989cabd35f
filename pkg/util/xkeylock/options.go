package xkeylock

import "fmt"

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

// Option 定义 Locker 可选配置。
type Option func(*options)

type options struct {
	maxKeys    int
	shardCount int
}

func defaultOptions() options {
	return options{shardCount: defaultShardCount}
}

// WithMaxKeys 设置最大 key 数量，n <= 0 表示不限制（默认）。
func WithMaxKeys(n int) Option {
	n = max(n, 0)
	return func(o *options) {
		o.maxKeys = n
	}
}

// WithShardCount 设置分片数量，必须为 2 的幂且不超过 65536，默认 32。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

func (o *options) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	return nil
}
