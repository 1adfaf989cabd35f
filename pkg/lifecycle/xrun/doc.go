// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// 当任一任务返回错误、panic 或收到终止信号时，共享 context 被取消，
// 其余任务监听 ctx.Done() 后退出。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("bridge"), xrun.WithLogger(logger))
//	g.GoWithName("subscribe/a:1/orders", sub.Run)
//	g.GoWithName("heartbeat/a:1", xrun.Ticker(time.Second, true, hb.Beat))
//	err := g.Wait()
//
// # 错误处理
//
// Wait() 返回第一个非 nil 错误。context.Canceled 的处理：
//   - Group 被主动取消（Cancel 或父 context 取消）：返回显式 cause，没有则返回 nil
//   - causeCtx 未被取消：context.Canceled 来自任务内部，原样返回
//
// GoWithName 启动的任务 panic 时被恢复为 *PanicError（errors.Is(err, ErrTaskPanic)），
// 携带任务名与堆栈。
//
// # 信号
//
// RunServices/RunServicesWithOptions 自动监听 DefaultSignals()，
// 收到信号时以 *SignalError 取消 Group，Wait 返回该错误
// （errors.Is(err, ErrSignal)）。WithSignals 自定义信号列表，
// WithoutSignalHandler 禁用。直接使用 NewGroup 不含信号处理。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
