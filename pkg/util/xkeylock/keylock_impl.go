package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

type keyLock struct {
	shards   []shard
	mask     uint64
	maxKeys  int
	closed   atomic.Bool
	keyCount atomic.Int64
	done     chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

// lockEntry 用容量为 1 的 channel 作互斥量：发送成功即持有，接收即释放。
// refcnt 统计持有者与等待者，归零时从 map 删除。
type lockEntry struct {
	ch     chan struct{}
	refcnt int32 // 受 shard.mu 保护
}

type handle struct {
	kl    *keyLock
	key   string
	entry *lockEntry
	done  atomic.Bool
}

func newKeyLock(o options) *keyLock {
	shards := make([]shard, o.shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*lockEntry)
	}
	return &keyLock{
		shards:  shards,
		mask:    uint64(o.shardCount - 1),
		maxKeys: o.maxKeys,
		done:    make(chan struct{}),
	}
}

func (kl *keyLock) shardFor(key string) *shard {
	return &kl.shards[xxhash.Sum64String(key)&kl.mask]
}

// acquireRef 获取或创建条目并增加引用计数。
func (kl *keyLock) acquireRef(key string) (*lockEntry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	s := kl.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if kl.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		// CAS 保证跨分片并发时不突破上限
		for {
			cur := kl.keyCount.Load()
			if kl.maxKeys > 0 && cur >= int64(kl.maxKeys) {
				return nil, ErrMaxKeysExceeded
			}
			if kl.keyCount.CompareAndSwap(cur, cur+1) {
				break
			}
		}
		e = &lockEntry{ch: make(chan struct{}, 1)}
		s.entries[key] = e
	}
	e.refcnt++
	return e, nil
}

func (kl *keyLock) releaseRef(key string, e *lockEntry) {
	s := kl.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refcnt--
	if e.refcnt == 0 {
		delete(s.entries, key)
		kl.keyCount.Add(-1)
	}
}

func (kl *keyLock) Acquire(ctx context.Context, key string) (Handle, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := kl.acquireRef(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{kl: kl, key: key, entry: e}, nil
	case <-ctx.Done():
		kl.releaseRef(key, e)
		return nil, ctx.Err()
	case <-kl.done:
		kl.releaseRef(key, e)
		return nil, ErrClosed
	}
}

func (kl *keyLock) TryAcquire(key string) (Handle, error) {
	e, err := kl.acquireRef(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{kl: kl, key: key, entry: e}, nil
	default:
		kl.releaseRef(key, e)
		return nil, ErrLockOccupied
	}
}

func (kl *keyLock) Len() int {
	return int(max(kl.keyCount.Load(), 0))
}

func (kl *keyLock) Keys() []string {
	keys := make([]string, 0, kl.Len())
	for i := range kl.shards {
		s := &kl.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

func (kl *keyLock) Close() error {
	if !kl.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(kl.done)
	return nil
}

func (h *handle) Unlock() error {
	if !h.done.CompareAndSwap(false, true) {
		return ErrLockNotHeld
	}
	<-h.entry.ch
	h.kl.releaseRef(h.key, h.entry)
	return nil
}

func (h *handle) Key() string {
	return h.key
}

var (
	_ Locker = (*keyLock)(nil)
	_ Handle = (*handle)(nil)
)
