package xkeylock

import (
	"context"
	"io"
)

// Handle 表示一次成功的锁获取。
type Handle interface {
	// Unlock 释放锁，首次返回 nil，后续返回 [ErrLockNotHeld]。
	Unlock() error

	// Key 返回锁的 key，Unlock 后仍可调用。
	Key() string
}

// Locker 提供基于 key 的进程内互斥锁，所有方法并发安全。
// 锁不可重入，与 sync.Mutex 一致。
type Locker interface {
	io.Closer

	// Acquire 阻塞式获取锁。
	// ctx 取消时返回 ctx.Err()；Locker 已关闭时返回 [ErrClosed]。
	// Close 与 ctx 取消同时发生时两者均可能返回。
	Acquire(ctx context.Context, key string) (Handle, error)

	// TryAcquire 非阻塞获取锁，占用时返回 [ErrLockOccupied]。
	TryAcquire(key string) (Handle, error)

	// Len 返回当前活跃的 key 数量（持有者或等待者）。
	Len() int

	// Keys 返回当前活跃 key 的快照，仅用于调试。
	Keys() []string
}

// New 创建 Locker，配置无效时返回错误。
func New(opts ...Option) (Locker, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return newKeyLock(o), nil
}
