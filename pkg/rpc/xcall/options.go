package xcall

import (
	"fmt"

	"google.golang.org/grpc/metadata"

	"github.com/omeyang/xcall/pkg/observability/xlog"
)

// DefaultChannelIDKey 记录重试日志时读取的 trailer 键。
const DefaultChannelIDKey = "x-channel-id"

// Idempotent 请求类型可实现此接口声明自身是否可安全重放。
type Idempotent interface {
	IsIdempotent() bool
}

type config struct {
	retry       *RetryOptions
	idempotency func(req any) (idempotent, ok bool)
	metrics     Metrics
	scheduler   Scheduler
	logger      xlog.Logger
	md          metadata.MD
	channelKey  string
	method      string
	finalize    any
}

// Option 配置 Coordinator。
type Option func(*config)

func defaultConfig() *config {
	return &config{
		metrics:    NoopMetrics(),
		scheduler:  TimerScheduler{},
		channelKey: DefaultChannelIDKey,
	}
}

// WithRetryOptions 设置重试配置，默认 DefaultRetryOptions()。
func WithRetryOptions(o *RetryOptions) Option {
	return func(c *config) {
		if o != nil {
			c.retry = o
		}
	}
}

// WithIdempotent 显式声明请求是否幂等，优先于 Idempotent 接口。
func WithIdempotent(idempotent bool) Option {
	return func(c *config) {
		c.idempotency = func(any) (bool, bool) { return idempotent, true }
	}
}

// WithIdempotencyFunc 由函数判定请求是否幂等，在构造 Coordinator 时求值一次。
//
// Req 与 Coordinator 的请求类型不一致时 NewCoordinator 返回错误。
func WithIdempotencyFunc[Req any](fn func(Req) bool) Option {
	return func(c *config) {
		if fn == nil {
			return
		}
		c.idempotency = func(req any) (bool, bool) {
			r, ok := req.(Req)
			if !ok {
				return false, false
			}
			return fn(r), true
		}
	}
}

// WithFinalizer 设置成功回调，可转换响应。返回错误时操作以失败结束。
//
// Resp 与 Coordinator 的响应类型不一致时 NewCoordinator 返回错误。
func WithFinalizer[Resp any](fn func(Resp) (Resp, error)) Option {
	return func(c *config) {
		if fn != nil {
			c.finalize = fn
		}
	}
}

// WithMetrics 设置指标接收器，默认 NoopMetrics()。
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithScheduler 设置重试调度器，默认 TimerScheduler。
func WithScheduler(s Scheduler) Option {
	return func(c *config) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithLogger 设置日志，默认 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetadata 设置每次尝试都发送的请求元数据。
func WithMetadata(md metadata.MD) Option {
	return func(c *config) {
		c.md = md.Copy()
	}
}

// WithChannelIDKey 设置重试日志读取的 trailer 键。
func WithChannelIDKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.channelKey = key
		}
	}
}

// WithMethod 设置方法名，注入日志上下文。
func WithMethod(method string) Option {
	return func(c *config) {
		c.method = method
	}
}

func (c *config) resolveIdempotent(req any) (bool, error) {
	if c.idempotency != nil {
		idempotent, ok := c.idempotency(req)
		if !ok {
			return false, fmt.Errorf("xcall: idempotency func does not accept %T", req)
		}
		return idempotent, nil
	}
	if v, ok := req.(Idempotent); ok {
		return v.IsIdempotent(), nil
	}
	return false, nil
}
