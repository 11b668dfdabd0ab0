package xcall

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryExecutor 基于 grpc.ClientConnInterface.Invoke 的一元调用 Executor。
//
// 每次尝试在独立 goroutine 中执行，使用可取消的子 context；attempt 元数据
// 与 ctx 中已有的 outgoing 元数据合并。
type UnaryExecutor[Req, Resp any] struct {
	conn    grpc.ClientConnInterface
	method  string
	newResp func() Resp
	opts    []grpc.CallOption
}

// NewUnaryExecutor 创建 UnaryExecutor。newResp 为每次尝试分配响应消息。
func NewUnaryExecutor[Req, Resp any](conn grpc.ClientConnInterface, method string, newResp func() Resp, opts ...grpc.CallOption) *UnaryExecutor[Req, Resp] {
	return &UnaryExecutor[Req, Resp]{
		conn:    conn,
		method:  method,
		newResp: newResp,
		opts:    opts,
	}
}

// Method 返回完整方法名。
func (e *UnaryExecutor[Req, Resp]) Method() string { return e.method }

// Start 实现 Executor。
func (e *UnaryExecutor[Req, Resp]) Start(ctx context.Context, req Req, md metadata.MD, l Listener[Resp]) CallHandle {
	ctx, cancel := context.WithCancelCause(ctx)
	if len(md) > 0 {
		if out, ok := metadata.FromOutgoingContext(ctx); ok {
			md = metadata.Join(out, md)
		}
		ctx = metadata.NewOutgoingContext(ctx, md)
	}

	resp := e.newResp()
	opts := make([]grpc.CallOption, 0, len(e.opts)+1)
	opts = append(opts, e.opts...)
	var trailer metadata.MD
	opts = append(opts, grpc.Trailer(&trailer))

	go func() {
		defer cancel(nil)
		err := e.conn.Invoke(ctx, e.method, req, resp, opts...)
		o := Outcome[Resp]{Status: status.Convert(err), Trailer: trailer}
		if err == nil {
			o.Response = resp
		}
		l.OnComplete(o)
	}()

	return CancelFunc(func(reason string) {
		cancel(errors.New(reason))
	})
}
