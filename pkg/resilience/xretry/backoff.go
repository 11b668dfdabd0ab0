package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// 默认退避参数
const (
	DefaultInitialInterval = 5 * time.Millisecond
	DefaultMaxInterval     = 30 * time.Second
	DefaultMultiplier      = 2.0
	DefaultJitter          = 0.1
	DefaultMaxElapsed      = 60 * time.Second
)

// ExponentialBackoff 指数退避策略
//
// 第 n 次失败后的期望延迟为 min(initial * multiplier^(n-1), maxInterval)，
// 实际延迟在期望值基础上乘以 (1 ± jitter) 的随机因子。
//
// 耗尽条件（满足任一即耗尽）：
//   - maxElapsed > 0 且自 NewBackoff 起的累计时间超过 maxElapsed
//   - maxAttempts > 0 且已失败次数达到 maxAttempts（maxAttempts 含首次尝试）
type ExponentialBackoff struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	jitter          float64
	maxElapsed      time.Duration
	maxAttempts     int
	clock           Clock
}

// ExponentialBackoffOption 指数退避配置选项
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialInterval 设置初始间隔，d <= 0 时忽略。
func WithInitialInterval(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.initialInterval = d
		}
	}
}

// WithMaxInterval 设置单次间隔上限，d <= 0 时忽略。
func WithMaxInterval(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxInterval = d
		}
	}
}

// WithMultiplier 设置乘数因子（>= 1.0）
// 传入 1.0 表示固定间隔，小于 1.0 的值会被忽略。
func WithMultiplier(m float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// WithJitter 设置抖动因子，超出 [0,1] 时截断到边界。
func WithJitter(j float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if j < 0 {
			j = 0
		} else if j > 1 {
			j = 1
		}
		b.jitter = j
	}
}

// WithMaxElapsed 设置最大累计退避时间，0 表示不限制，负数忽略。
func WithMaxElapsed(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d >= 0 {
			b.maxElapsed = d
		}
	}
}

// WithMaxAttempts 设置最大尝试次数（含首次尝试），0 表示不限制，负数忽略。
func WithMaxAttempts(n int) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if n >= 0 {
			b.maxAttempts = n
		}
	}
}

// WithClock 设置时间源，nil 忽略。
func WithClock(c Clock) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if c != nil {
			b.clock = c
		}
	}
}

// NewExponentialBackoff 创建指数退避策略
// 默认值：
//   - initialInterval: 5ms
//   - maxInterval: 30s
//   - multiplier: 2.0
//   - jitter: 0.1 (10%)
//   - maxElapsed: 60s
//   - maxAttempts: 0（不限制）
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
		multiplier:      DefaultMultiplier,
		jitter:          DefaultJitter,
		maxElapsed:      DefaultMaxElapsed,
		clock:           SystemClock(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxInterval < b.initialInterval {
		b.maxInterval = b.initialInterval
	}
	return b
}

// InitialInterval 返回初始间隔。
func (b *ExponentialBackoff) InitialInterval() time.Duration { return b.initialInterval }

// MaxInterval 返回单次间隔上限。
func (b *ExponentialBackoff) MaxInterval() time.Duration { return b.maxInterval }

// Multiplier 返回乘数因子。
func (b *ExponentialBackoff) Multiplier() float64 { return b.multiplier }

// Jitter 返回抖动因子。
func (b *ExponentialBackoff) Jitter() float64 { return b.jitter }

// MaxElapsed 返回最大累计退避时间。
func (b *ExponentialBackoff) MaxElapsed() time.Duration { return b.maxElapsed }

// MaxAttempts 返回最大尝试次数。
func (b *ExponentialBackoff) MaxAttempts() int { return b.maxAttempts }

// NewBackoff 创建新的退避状态，累计时间从此刻开始计算。
func (b *ExponentialBackoff) NewBackoff() Backoff {
	return &exponentialState{
		policy:  b,
		start:   b.clock.Now(),
		current: float64(b.initialInterval),
	}
}

type exponentialState struct {
	policy    *ExponentialBackoff
	start     time.Time
	current   float64
	failures  int
	exhausted bool
}

func (s *exponentialState) NextDelay() (time.Duration, bool) {
	if s.exhausted {
		return 0, false
	}
	p := s.policy
	s.failures++

	if p.maxAttempts > 0 && s.failures >= p.maxAttempts {
		s.exhausted = true
		return 0, false
	}
	if p.maxElapsed > 0 && p.clock.Now().Sub(s.start) > p.maxElapsed {
		s.exhausted = true
		return 0, false
	}

	delay := s.current
	if p.jitter > 0 {
		delay *= 1.0 + (randomFloat64()*2-1)*p.jitter
	}

	// 先推进期望间隔，保证期望值单调不减
	next := s.current * p.multiplier
	if math.IsNaN(next) || next > float64(p.maxInterval) {
		next = float64(p.maxInterval)
	}
	s.current = next

	// NaN 的所有比较都为 false，需单独兜底
	if math.IsNaN(delay) || delay < 0 {
		return p.maxInterval, true
	}
	if delay >= float64(math.MaxInt64) {
		return p.maxInterval, true
	}
	return time.Duration(delay), true
}

// FixedBackoff 固定延迟退避策略
type FixedBackoff struct {
	delay       time.Duration
	maxAttempts int
}

// NewFixedBackoff 创建固定延迟退避策略。
// maxAttempts 为最大尝试次数（含首次尝试），<= 0 表示不限制。
func NewFixedBackoff(delay time.Duration, maxAttempts int) *FixedBackoff {
	if delay < 0 {
		delay = 0
	}
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return &FixedBackoff{delay: delay, maxAttempts: maxAttempts}
}

// NewBackoff 创建新的退避状态。
func (b *FixedBackoff) NewBackoff() Backoff {
	return &countingState{delay: func(int) time.Duration { return b.delay }, maxAttempts: b.maxAttempts}
}

// NoBackoff 无延迟退避策略
type NoBackoff struct {
	maxAttempts int
}

// NewNoBackoff 创建无延迟退避策略，maxAttempts 语义同 NewFixedBackoff。
func NewNoBackoff(maxAttempts int) *NoBackoff {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return &NoBackoff{maxAttempts: maxAttempts}
}

// NewBackoff 创建新的退避状态。
func (b *NoBackoff) NewBackoff() Backoff {
	return &countingState{delay: func(int) time.Duration { return 0 }, maxAttempts: b.maxAttempts}
}

// SequenceBackoff 按给定序列依次返回延迟，序列用完即耗尽。
// 主要用于测试和需要精确控制间隔的场景。
type SequenceBackoff struct {
	delays []time.Duration
}

// NewSequenceBackoff 创建序列退避策略。
// 可用尝试次数为 len(delays)+1。
func NewSequenceBackoff(delays ...time.Duration) *SequenceBackoff {
	return &SequenceBackoff{delays: append([]time.Duration(nil), delays...)}
}

// NewBackoff 创建新的退避状态。
func (b *SequenceBackoff) NewBackoff() Backoff {
	delays := b.delays
	return &countingState{
		delay:       func(failures int) time.Duration { return delays[failures-1] },
		maxAttempts: len(delays) + 1,
	}
}

// countingState 按失败次数耗尽的通用状态
type countingState struct {
	delay       func(failures int) time.Duration
	maxAttempts int
	failures    int
	exhausted   bool
}

func (s *countingState) NextDelay() (time.Duration, bool) {
	if s.exhausted {
		return 0, false
	}
	s.failures++
	if s.maxAttempts > 0 && s.failures >= s.maxAttempts {
		s.exhausted = true
		return 0, false
	}
	return s.delay(s.failures), true
}

// 确保实现了接口
var (
	_ BackoffPolicy = (*ExponentialBackoff)(nil)
	_ BackoffPolicy = (*FixedBackoff)(nil)
	_ BackoffPolicy = (*NoBackoff)(nil)
	_ BackoffPolicy = (*SequenceBackoff)(nil)
)

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 失败时返回 0.5，抖动因子为 1（无抖动）
		return 0.5
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
