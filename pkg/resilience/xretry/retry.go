package xretry

import "time"

// BackoffPolicy 退避策略工厂。
//
// 策略本身不保存任何单次操作的状态，可被多个操作并发共享；
// 每个操作通过 NewBackoff 获取自己的 Backoff 实例。
type BackoffPolicy interface {
	// NewBackoff 创建一份全新的退避状态
	NewBackoff() Backoff
}

// Backoff 单个操作私有的退避状态。
//
// 每次可重试失败后调用一次 NextDelay：
//   - 返回 (d, true)：应在 d 之后发起下一次尝试
//   - 返回 (0, false)：退避已耗尽，不应再重试
//
// 实现必须保证耗尽是粘滞的：一旦返回 false，之后的调用都返回 false。
// Backoff 只会被同一操作顺序调用，不要求并发安全。
type Backoff interface {
	NextDelay() (time.Duration, bool)
}

// Clock 时间源接口，主要用于测试中注入可控时间。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回基于 time.Now 的时间源。
func SystemClock() Clock { return systemClock{} }

// SafeNextDelay 调用 b.NextDelay 并吸收其中的计算故障。
//
// 以下情况都视为耗尽：
//   - b 为 nil
//   - NextDelay panic（例如自定义时间源故障）
//   - 返回负数延迟
func SafeNextDelay(b Backoff) (d time.Duration, ok bool) {
	if b == nil {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			d, ok = 0, false
		}
	}()
	d, ok = b.NextDelay()
	if !ok || d < 0 {
		return 0, false
	}
	return d, true
}

// BackoffFunc 将函数适配为 Backoff。
type BackoffFunc func() (time.Duration, bool)

// NextDelay 调用函数本身。
func (f BackoffFunc) NextDelay() (time.Duration, bool) { return f() }

// PolicyFunc 将函数适配为 BackoffPolicy。
type PolicyFunc func() Backoff

// NewBackoff 调用函数本身。
func (f PolicyFunc) NewBackoff() Backoff { return f() }
