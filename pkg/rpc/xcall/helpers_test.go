package xcall

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xcall/pkg/observability/xlog"
)

const testChannelID = "3"

// scriptedExecutor 按脚本同步返回状态码，最后一个状态码重复使用
type scriptedExecutor struct {
	mu     sync.Mutex
	script []codes.Code
	starts int
	ctxs   []context.Context
	mds    []metadata.MD
	onMD   func(metadata.MD)
}

func newScripted(script ...codes.Code) *scriptedExecutor {
	return &scriptedExecutor{script: script}
}

func (e *scriptedExecutor) Start(ctx context.Context, _ string, md metadata.MD, l Listener[string]) CallHandle {
	e.mu.Lock()
	i := e.starts
	e.starts++
	e.ctxs = append(e.ctxs, ctx)
	e.mds = append(e.mds, md.Copy())
	onMD := e.onMD
	e.mu.Unlock()

	if onMD != nil {
		onMD(md)
	}
	code := e.script[min(i, len(e.script)-1)]
	if code == codes.OK {
		l.OnComplete(Outcome[string]{Response: "ok"})
		return nil
	}
	l.OnComplete(Outcome[string]{
		Status:  status.New(code, "attempt failed"),
		Trailer: metadata.Pairs(DefaultChannelIDKey, testChannelID),
	})
	return nil
}

func (e *scriptedExecutor) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// blockingExecutor 尝试一直挂起，直到 Cancel 时以 Canceled 完成
type blockingExecutor struct {
	started chan struct{}
	starts  atomic.Int32
	cancels atomic.Int32
}

func newBlocking() *blockingExecutor {
	return &blockingExecutor{started: make(chan struct{}, 16)}
}

func (e *blockingExecutor) Start(_ context.Context, _ string, _ metadata.MD, l Listener[string]) CallHandle {
	e.starts.Add(1)
	var once sync.Once
	h := CancelFunc(func(reason string) {
		e.cancels.Add(1)
		once.Do(func() {
			go l.OnComplete(Outcome[string]{Status: status.New(codes.Canceled, reason)})
		})
	})
	e.started <- struct{}{}
	return h
}

// countingMetrics 并发安全的计数 Metrics
type countingMetrics struct {
	operations atomic.Int32
	opClosed   atomic.Int32
	attempts   atomic.Int32
	retries    atomic.Int32
	failures   atomic.Int32
	exhausted  atomic.Int32
}

type countingTimer struct {
	once   sync.Once
	closed *atomic.Int32
}

func (t *countingTimer) Close() { t.once.Do(func() { t.closed.Add(1) }) }

func (m *countingMetrics) TimeOperation() TimerContext {
	m.operations.Add(1)
	return &countingTimer{closed: &m.opClosed}
}

func (m *countingMetrics) TimeAttempt() TimerContext {
	m.attempts.Add(1)
	return NoopMetrics().TimeAttempt()
}

func (m *countingMetrics) MarkRetry()            { m.retries.Add(1) }
func (m *countingMetrics) MarkFailure()          { m.failures.Add(1) }
func (m *countingMetrics) MarkRetriesExhausted() { m.exhausted.Add(1) }

// manualScheduler 只在测试显式触发时执行任务
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay time.Duration
	task  func()
	state atomic.Int32 // 0 等待，1 已执行，2 已停止
}

func (t *manualTimer) Stop() bool { return t.state.CompareAndSwap(0, 2) }

func (s *manualScheduler) Schedule(delay time.Duration, task func()) Timer {
	t := &manualTimer{delay: delay, task: task}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return t
}

func (s *manualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *manualScheduler) Timer(i int) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[i]
}

// Fire 执行第 i 个任务，已停止的任务不执行
func (s *manualScheduler) Fire(i int) bool {
	t := s.Timer(i)
	if !t.state.CompareAndSwap(0, 1) {
		return false
	}
	t.task()
	return true
}

func quietLogger() Option {
	return WithLogger(xlog.Discard())
}
