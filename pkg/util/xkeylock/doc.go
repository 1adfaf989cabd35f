// Package xkeylock 提供基于 key 的进程内互斥锁。
//
// 桥接进程用它按主题串行化本地队列的追加：同一主题的写入互斥，
// 不同主题互不阻塞。
//
//   - Acquire 支持 ctx 超时和取消
//   - TryAcquire 非阻塞，锁被占用时返回 ErrLockOccupied
//   - Unlock 幂等：首次返回 nil，后续返回 ErrLockNotHeld
//   - 分片 map（默认 32 分片，xxhash 定位），条目在无引用时回收
//   - Close 拒绝新请求并唤醒等待者，已持有的锁不受影响
package xkeylock
