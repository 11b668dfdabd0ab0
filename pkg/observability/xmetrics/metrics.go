package xmetrics

import "sync"

// Timer 计时上下文，Close 结束计时并记录耗时。Close 可重复调用，只记录一次。
type Timer interface {
	Close()
}

// RPCMetrics 单个 RPC 方法的指标接收器，实现必须并发安全。
type RPCMetrics interface {
	// TimeOperation 开始整个操作的计时
	TimeOperation() Timer
	// TimeAttempt 开始单次尝试的计时
	TimeAttempt() Timer
	// MarkRetry 记录一次已调度的重试
	MarkRetry()
	// MarkFailure 记录一次失败的操作
	MarkFailure()
	// MarkRetriesExhausted 记录一次因退避耗尽导致的失败
	MarkRetriesExhausted()
}

// Noop 返回不记录任何数据的 RPCMetrics
func Noop() RPCMetrics { return noopMetrics{} }

type noopMetrics struct{}

type noopTimer struct{}

func (noopTimer) Close() {}

func (noopMetrics) TimeOperation() Timer  { return noopTimer{} }
func (noopMetrics) TimeAttempt() Timer    { return noopTimer{} }
func (noopMetrics) MarkRetry()            {}
func (noopMetrics) MarkFailure()          {}
func (noopMetrics) MarkRetriesExhausted() {}

// OnceTimer 将 fn 包装为幂等 Timer
func OnceTimer(fn func()) Timer {
	return &onceTimer{fn: fn}
}

type onceTimer struct {
	once sync.Once
	fn   func()
}

func (t *onceTimer) Close() {
	t.once.Do(t.fn)
}
