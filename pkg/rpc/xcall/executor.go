package xcall

import (
	"context"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Outcome 一次尝试的结果。Status 为 nil 或 codes.OK 表示成功。
type Outcome[Resp any] struct {
	Response Resp
	Status   *status.Status
	Trailer  metadata.MD
}

// Listener 接收一次尝试的完成通知。
type Listener[Resp any] interface {
	OnComplete(Outcome[Resp])
}

// ListenerFunc 函数适配器。
type ListenerFunc[Resp any] func(Outcome[Resp])

// OnComplete 实现 Listener。
func (f ListenerFunc[Resp]) OnComplete(o Outcome[Resp]) { f(o) }

// CallHandle 正在进行的尝试。Cancel 尽力而为，之后完成回调仍可能以 Canceled 到达。
type CallHandle interface {
	Cancel(reason string)
}

// CancelFunc 函数适配器。
type CancelFunc func(reason string)

// Cancel 实现 CallHandle。
func (f CancelFunc) Cancel(reason string) {
	if f != nil {
		f(reason)
	}
}

// Executor 发起一次物理尝试。
//
// 实现必须在尝试成功、失败或取消时恰好调用 l.OnComplete 一次，调用可以发生在
// Start 返回之前（同步完成，此时可返回 nil 句柄）。md 归本次尝试所有。
type Executor[Req, Resp any] interface {
	Start(ctx context.Context, req Req, md metadata.MD, l Listener[Resp]) CallHandle
}

// ExecutorFunc 函数适配器。
type ExecutorFunc[Req, Resp any] func(ctx context.Context, req Req, md metadata.MD, l Listener[Resp]) CallHandle

// Start 实现 Executor。
func (f ExecutorFunc[Req, Resp]) Start(ctx context.Context, req Req, md metadata.MD, l Listener[Resp]) CallHandle {
	return f(ctx, req, md, l)
}
