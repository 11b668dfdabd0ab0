package xcall

import (
	"slices"

	"google.golang.org/grpc/codes"

	"github.com/omeyang/xcall/pkg/resilience/xretry"
)

// DefaultRetryableCodes 默认可重试状态码。
var DefaultRetryableCodes = []codes.Code{
	codes.DeadlineExceeded,
	codes.Unavailable,
	codes.Aborted,
	codes.Unauthenticated,
}

// RetryOptions 不可变的重试配置，可在多个操作间共享。
type RetryOptions struct {
	enabled   bool
	retryable map[codes.Code]struct{}
	policy    xretry.BackoffPolicy
}

// RetryOption 配置 RetryOptions。
type RetryOption func(*RetryOptions)

// WithRetriesEnabled 全局开关，关闭时任何失败均终止。
func WithRetriesEnabled(enabled bool) RetryOption {
	return func(o *RetryOptions) {
		o.enabled = enabled
	}
}

// WithRetryableCodes 替换可重试状态码集合。OK 与 Canceled 会被忽略。
func WithRetryableCodes(cs ...codes.Code) RetryOption {
	return func(o *RetryOptions) {
		o.retryable = make(map[codes.Code]struct{}, len(cs))
		for _, c := range cs {
			if c == codes.OK || c == codes.Canceled {
				continue
			}
			o.retryable[c] = struct{}{}
		}
	}
}

// WithBackoffPolicy 设置退避策略，nil 被忽略。
func WithBackoffPolicy(p xretry.BackoffPolicy) RetryOption {
	return func(o *RetryOptions) {
		if p != nil {
			o.policy = p
		}
	}
}

// NewRetryOptions 创建 RetryOptions。
//
// 默认：启用重试，DefaultRetryableCodes，xretry.NewExponentialBackoff() 默认参数。
func NewRetryOptions(opts ...RetryOption) *RetryOptions {
	o := &RetryOptions{enabled: true}
	WithRetryableCodes(DefaultRetryableCodes...)(o)
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.policy == nil {
		o.policy = xretry.NewExponentialBackoff()
	}
	return o
}

// DefaultRetryOptions 返回默认配置。
func DefaultRetryOptions() *RetryOptions {
	return NewRetryOptions()
}

// EnableRetries 是否启用重试。
func (o *RetryOptions) EnableRetries() bool { return o.enabled }

// IsRetryable 状态码是否在可重试集合中。
func (o *RetryOptions) IsRetryable(c codes.Code) bool {
	_, ok := o.retryable[c]
	return ok
}

// RetryableCodes 返回排序后的可重试状态码。
func (o *RetryOptions) RetryableCodes() []codes.Code {
	out := make([]codes.Code, 0, len(o.retryable))
	for c := range o.retryable {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// BackoffPolicy 返回退避策略。
func (o *RetryOptions) BackoffPolicy() xretry.BackoffPolicy { return o.policy }

// NewBackoff 为一个操作创建新的退避状态。
func (o *RetryOptions) NewBackoff() xretry.Backoff { return o.policy.NewBackoff() }
