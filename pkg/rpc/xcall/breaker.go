package xcall

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xcall/pkg/resilience/xbreaker"
)

// DefaultBreakerFailureCodes 计入熔断失败的状态码。
var DefaultBreakerFailureCodes = []codes.Code{
	codes.Unavailable,
	codes.DeadlineExceeded,
	codes.Internal,
	codes.Unknown,
	codes.DataLoss,
}

// BreakerExecutor 在尝试前检查熔断器。
//
// 熔断器拒绝时尝试同步以 codes.Unavailable 完成，随后按普通重试分类处理。
type BreakerExecutor[Req, Resp any] struct {
	next     Executor[Req, Resp]
	breaker  *xbreaker.Breaker
	failures map[codes.Code]struct{}
}

// BreakerExecutorOption 配置 BreakerExecutor。
type BreakerExecutorOption func(*breakerExecutorOptions)

type breakerExecutorOptions struct {
	failureCodes []codes.Code
}

// WithBreakerFailureCodes 替换计入熔断失败的状态码。
func WithBreakerFailureCodes(cs ...codes.Code) BreakerExecutorOption {
	return func(o *breakerExecutorOptions) {
		o.failureCodes = cs
	}
}

// NewBreakerExecutor 用熔断器包装 next。
func NewBreakerExecutor[Req, Resp any](next Executor[Req, Resp], b *xbreaker.Breaker, opts ...BreakerExecutorOption) *BreakerExecutor[Req, Resp] {
	o := &breakerExecutorOptions{failureCodes: DefaultBreakerFailureCodes}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	failures := make(map[codes.Code]struct{}, len(o.failureCodes))
	for _, c := range o.failureCodes {
		failures[c] = struct{}{}
	}
	return &BreakerExecutor[Req, Resp]{next: next, breaker: b, failures: failures}
}

// Start 实现 Executor。
func (e *BreakerExecutor[Req, Resp]) Start(ctx context.Context, req Req, md metadata.MD, l Listener[Resp]) CallHandle {
	done, err := e.breaker.Allow()
	if err != nil {
		l.OnComplete(Outcome[Resp]{Status: status.New(codes.Unavailable, err.Error())})
		return nil
	}
	return e.next.Start(ctx, req, md, ListenerFunc[Resp](func(o Outcome[Resp]) {
		var err error
		if _, failed := e.failures[o.Status.Code()]; failed {
			err = o.Status.Err()
		}
		done(err)
		l.OnComplete(o)
	}))
}
