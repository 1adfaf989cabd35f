package xkeylock

import "errors"

var (
	// ErrLockNotHeld Unlock 第二次及后续调用时返回。
	ErrLockNotHeld = errors.New("xkeylock: lock not held")

	// ErrLockOccupied TryAcquire 时锁已被占用。
	ErrLockOccupied = errors.New("xkeylock: lock occupied")

	// ErrClosed Close 后调用 Acquire/TryAcquire 返回。
	ErrClosed = errors.New("xkeylock: closed")

	// ErrInvalidKey key 为空字符串。
	ErrInvalidKey = errors.New("xkeylock: invalid key")

	// ErrNilContext Acquire 传入了 nil context。
	ErrNilContext = errors.New("xkeylock: nil context")

	// ErrMaxKeysExceeded 已达到最大 key 数量限制。
	ErrMaxKeysExceeded = errors.New("xkeylock: max keys exceeded")

	// ErrInvalidShardCount 分片数不是 1~65536 之间的 2 的幂。
	ErrInvalidShardCount = errors.New("xkeylock: invalid shard count")
)
