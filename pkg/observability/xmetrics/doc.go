// Package xmetrics 提供观测跨度接口与 OpenTelemetry 实现。
//
// 桥接进程在 registry.push、registry.lag、subscribe.iteration、
// heartbeat.send 上开启跨度：
//
//	ctx, span := xmetrics.Start(ctx, observer, xmetrics.SpanOptions{
//		Component: "registry",
//		Operation: "registry.push",
//		Kind:      xmetrics.KindProducer,
//	})
//	err := push(ctx)
//	span.End(xmetrics.Result{Err: err})
//
// 积压量通过 [RecordLag] 写入 xbridge.queue.lag 仪表。
// 开启跨度时 trace_id/span_id 写回 xctx，xlog 的 EnrichHandler 据此关联日志。
package xmetrics
