package xcall

import "time"

// Timer 已调度的任务。Stop 在任务尚未执行时阻止其执行并返回 true。
type Timer interface {
	Stop() bool
}

// Scheduler 延迟执行任务，不得早于 delay 执行。
type Scheduler interface {
	Schedule(delay time.Duration, task func()) Timer
}

// SchedulerFunc 函数适配器。
type SchedulerFunc func(delay time.Duration, task func()) Timer

// Schedule 实现 Scheduler。
func (f SchedulerFunc) Schedule(delay time.Duration, task func()) Timer { return f(delay, task) }

// TimerScheduler 基于 time.AfterFunc，任务在独立 goroutine 执行。
type TimerScheduler struct{}

// Schedule 实现 Scheduler。
func (TimerScheduler) Schedule(delay time.Duration, task func()) Timer {
	return time.AfterFunc(delay, task)
}
