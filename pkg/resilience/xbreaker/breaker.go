package xbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

type (
	// Counts 熔断器统计窗口内的请求计数
	Counts = gobreaker.Counts

	// State 熔断器状态
	State = gobreaker.State
)

// 熔断器状态常量
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// TripPolicy 熔断判定策略接口
//
// 当 ReadyToTrip 返回 true 时，熔断器从 Closed 转换为 Open。
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// Breaker 两阶段熔断器
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)

	cb *gobreaker.TwoStepCircuitBreaker[any]
}

// BreakerOption 熔断器配置选项
type BreakerOption func(*Breaker)

// WithTripPolicy 设置熔断判定策略，默认连续失败 5 次触发熔断。
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithTimeout 设置 Open 状态恢复到 HalfOpen 的等待时间，默认 60 秒。
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下清除统计的周期，默认 0（持续累积）。
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d >= 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态下允许通过的最大请求数，默认 1。
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 设置状态变化回调
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器
//
// 默认配置：
//   - 熔断策略：连续失败 5 次
//   - 超时时间：60 秒
//   - HalfOpen 最大请求数：1
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(5),
		timeout:     60 * time.Second,
		maxRequests: 1,
	}
	for _, opt := range opts {
		opt(b)
	}

	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.tripPolicy.ReadyToTrip(counts)
		},
	}
	if b.onStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		}
	}
	b.cb = gobreaker.NewTwoStepCircuitBreaker[any](st)
	return b
}

// Allow 申请执行许可。
//
// 成功时返回 done 回调，调用方必须在操作完成后调用且仅调用一次：
// done(nil) 记为成功，done(err) 记为失败。
// 熔断器打开或半开请求数已满时返回 *BreakerError。
func (b *Breaker) Allow() (done func(err error), err error) {
	done, err = b.cb.Allow()
	if err != nil {
		return nil, &BreakerError{Err: err, Name: b.name, State: b.cb.State()}
	}
	return done, nil
}

// Name 返回熔断器名称
func (b *Breaker) Name() string { return b.name }

// State 返回当前状态
func (b *Breaker) State() State { return b.cb.State() }

// Counts 返回当前统计
func (b *Breaker) Counts() Counts { return b.cb.Counts() }
