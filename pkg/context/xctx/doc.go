// Package xctx 在 context.Context 中携带单次 RPC 操作的调用信息。
//
// 重试协调器在操作开始时注入操作 ID 和方法名，在每次尝试时注入尝试序号。
// xlog.EnrichHandler 通过 AppendCallAttrs 把这些字段自动追加到日志中，
// 同一操作的多次尝试因此可以用 operation_id 串联起来。
//
// # 使用示例
//
//	ctx, _ = xctx.WithOperationID(ctx, uuid.NewString())
//	ctx, _ = xctx.WithAttempt(ctx, 2)
//	xctx.OperationID(ctx) // "..."
//	n, ok := xctx.Attempt(ctx) // 2, true
package xctx
