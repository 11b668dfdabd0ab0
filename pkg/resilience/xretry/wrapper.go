package xretry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// ErrNilFunc 表示传入的重试函数为 nil
var ErrNilFunc = errors.New("xretry: nil function")

// 以下别名镜像 retry-go 中 Do 会用到的部分 API，
// 使调用方无需直接依赖第三方包。
type (
	// Option 是 retry-go 的配置选项类型
	Option = retry.Option

	// DelayContext 提供延迟计算所需的配置值
	DelayContext = retry.DelayContext
)

var (
	// OnRetry 设置重试回调函数，n 从 0 开始
	OnRetry = retry.OnRetry

	// WithTimer 设置自定义计时器（主要用于测试）
	WithTimer = retry.WithTimer

	// Unrecoverable 将错误标记为不可恢复（不再重试）
	Unrecoverable = retry.Unrecoverable

	// IsRecoverable 检查错误是否可恢复
	IsRecoverable = retry.IsRecoverable
)

// Do 以阻塞方式执行 fn，失败后按 policy 退避重试，直到成功、
// 退避耗尽、ctx 结束或遇到 Unrecoverable 错误。
//
// 每次 Do 调用都会通过 policy.NewBackoff 创建独立的退避状态。
// 返回值为最后一次执行的错误（或 ctx 错误）。
//
// 示例:
//
//	err := xretry.Do(ctx, xretry.NewFixedBackoff(time.Second, 5), func(ctx context.Context) error {
//	    return waitServing(ctx)
//	})
func Do(ctx context.Context, policy BackoffPolicy, fn func(ctx context.Context) error, opts ...Option) error {
	if fn == nil {
		return ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if policy == nil {
		policy = NewExponentialBackoff()
	}
	b := policy.NewBackoff()

	// RetryIf 先于 DelayType 调用，next 在两者之间传递本次退避结果
	var next time.Duration
	all := make([]Option, 0, len(opts)+5)
	all = append(all,
		retry.Context(ctx),
		retry.UntilSucceeded(),
		retry.RetryIf(func(err error) bool {
			if !IsRecoverable(err) {
				return false
			}
			d, ok := SafeNextDelay(b)
			next = d
			return ok
		}),
		retry.DelayType(func(_ uint, _ error, _ DelayContext) time.Duration {
			return next
		}),
		retry.LastErrorOnly(true),
	)
	all = append(all, opts...)

	return retry.New(all...).Do(func() error {
		return fn(ctx)
	})
}
