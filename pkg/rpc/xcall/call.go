package xcall

import (
	"context"
	"errors"
	"fmt"
)

// Call 创建 Coordinator、启动并阻塞等待结果。
//
// ctx 结束会取消操作，返回的错误同时满足 errors.Is(err, ErrCanceled) 与
// errors.Is(err, context.Cause(ctx))。
func Call[Req, Resp any](ctx context.Context, exec Executor[Req, Resp], req Req, opts ...Option) (Resp, error) {
	var zero Resp
	c, err := NewCoordinator(exec, req, opts...)
	if err != nil {
		return zero, err
	}
	if err := c.Start(ctx); err != nil {
		return zero, err
	}
	// ctx 结束时 Completion 会被取消，这里只等待 Completion
	resp, err := c.Completion().Await(context.WithoutCancel(ctx))
	if errors.Is(err, ErrCanceled) && ctx.Err() != nil {
		return zero, fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
	}
	return resp, err
}
