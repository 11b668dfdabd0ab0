package xcall

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/omeyang/xcall/pkg/context/xctx"
	"github.com/omeyang/xcall/pkg/observability/xlog"
	"github.com/omeyang/xcall/pkg/resilience/xretry"
)

const cancelReason = "xcall: operation cancelled by caller"

// attempt 一次物理尝试。handle 与 done 受 Coordinator.mu 保护。
type attempt struct {
	index  int
	timer  TimerContext
	handle CallHandle
	done   bool
}

// Coordinator 驱动一个逻辑请求的全部尝试，直到 Completion 恰好完成一次。
//
// 状态：Idle → AttemptInFlight →（等待重试 → AttemptInFlight）* → Completed。
// Coordinator 只能 Start 一次，Cancel 之后不可再用。
type Coordinator[Req, Resp any] struct {
	exec       Executor[Req, Resp]
	req        Req
	md         metadata.MD
	retry      *RetryOptions
	idempotent bool
	metrics    Metrics
	scheduler  Scheduler
	logger     xlog.Logger
	finalize   func(Resp) (Resp, error)
	channelKey string
	method     string
	id         string
	completion *Completion[Resp]
	started    atomic.Bool
	finishOnce sync.Once

	// 只在 Start 与串行的完成回调中写入
	ctx       context.Context
	opTimer   TimerContext
	stopWatch func() bool
	backoff   xretry.Backoff
	failures  int

	mu           sync.Mutex
	current      *attempt
	cancelled    bool
	retryPending bool
	retrySeq     uint64
	retryTimer   Timer
}

// NewCoordinator 创建 Coordinator。幂等性在此时求值一次。
func NewCoordinator[Req, Resp any](exec Executor[Req, Resp], req Req, opts ...Option) (*Coordinator[Req, Resp], error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.retry == nil {
		cfg.retry = DefaultRetryOptions()
	}
	if cfg.logger == nil {
		cfg.logger = xlog.Default()
	}

	idempotent, err := cfg.resolveIdempotent(req)
	if err != nil {
		return nil, err
	}

	c := &Coordinator[Req, Resp]{
		exec:       exec,
		req:        req,
		md:         cfg.md,
		retry:      cfg.retry,
		idempotent: idempotent,
		metrics:    cfg.metrics,
		scheduler:  cfg.scheduler,
		logger:     cfg.logger,
		channelKey: cfg.channelKey,
		method:     cfg.method,
		id:         uuid.NewString(),
		completion: NewCompletion[Resp](),
	}
	if cfg.finalize != nil {
		fn, ok := cfg.finalize.(func(Resp) (Resp, error))
		if !ok {
			return nil, fmt.Errorf("xcall: finalizer type %T does not match response type", cfg.finalize)
		}
		c.finalize = fn
	}
	c.completion.setOnCancel(func() { c.cancelInFlight(cancelReason) })
	return c, nil
}

// ID 返回操作 ID，注入到每次尝试的 context 与日志中。
func (c *Coordinator[Req, Resp]) ID() string { return c.id }

// Idempotent 返回构造时求值的幂等性。
func (c *Coordinator[Req, Resp]) Idempotent() bool { return c.idempotent }

// Completion 返回操作的结果句柄。
func (c *Coordinator[Req, Resp]) Completion() *Completion[Resp] { return c.completion }

// Start 开始操作并立即返回。ctx 结束等同于 Cancel。
func (c *Coordinator[Req, Resp]) Start(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx, _ = xctx.WithOperationID(ctx, c.id)
	ctx, _ = xctx.WithMethod(ctx, c.method)
	c.ctx = ctx
	c.opTimer = c.metrics.TimeOperation()
	c.stopWatch = context.AfterFunc(ctx, c.Cancel)
	c.run(0)
	return nil
}

// Cancel 幂等，可在任意 goroutine、任意状态调用。
//
// 未完成的 Completion 立即以 Cancelled 结束；正在进行的尝试收到 Cancel，
// 等待中的重试不再执行。
//
// Executor.Start 调用期间不持有锁，因此与 Cancel 并发时，已通过检查的那一次
// 尝试仍可能在 Cancel 返回后才发起；它拿到句柄后立即被取消，其结果被忽略。
// 此后不会再发起任何尝试。
func (c *Coordinator[Req, Resp]) Cancel() {
	c.completion.Cancel()
}

func (c *Coordinator[Req, Resp]) run(index int) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		c.finishCancelled()
		return
	}
	a := &attempt{index: index}
	c.current = a
	c.mu.Unlock()

	a.timer = c.metrics.TimeAttempt()
	ctx, _ := xctx.WithAttempt(c.ctx, index)
	h := c.exec.Start(ctx, c.req, c.md.Copy(), ListenerFunc[Resp](func(o Outcome[Resp]) {
		c.onComplete(a, o)
	}))

	c.mu.Lock()
	switch {
	case a.done || h == nil:
		c.mu.Unlock()
	case c.cancelled:
		// Cancel 发生在 Start 返回句柄之前
		c.mu.Unlock()
		h.Cancel(cancelReason)
	default:
		a.handle = h
		c.mu.Unlock()
	}
}

func (c *Coordinator[Req, Resp]) onComplete(a *attempt, o Outcome[Resp]) {
	c.mu.Lock()
	if a.done {
		c.mu.Unlock()
		return
	}
	a.done = true
	a.handle = nil
	if c.current == a {
		c.current = nil
	}
	cancelled := c.cancelled
	c.mu.Unlock()

	a.timer.Close()
	if cancelled {
		c.finishCancelled()
		return
	}

	switch Classify(o.Status, c.retry, c.idempotent) {
	case DecisionAccept:
		c.succeed(o.Response)
	case DecisionBenignCancel:
		c.finishCancelled()
	case DecisionFailTerminal:
		c.finish()
		c.metrics.MarkFailure()
		c.completion.Fail(&NonRetryableError{Status: o.Status})
	case DecisionRetry:
		c.retryOrExhaust(a, o)
	}
}

func (c *Coordinator[Req, Resp]) succeed(resp Resp) {
	if c.finalize != nil {
		v, err := c.finalize(resp)
		if err != nil {
			c.finish()
			c.metrics.MarkFailure()
			c.completion.Fail(err)
			return
		}
		resp = v
	}
	c.finish()
	c.completion.Resolve(resp)
}

func (c *Coordinator[Req, Resp]) retryOrExhaust(a *attempt, o Outcome[Resp]) {
	if c.backoff == nil {
		c.backoff = c.newBackoff()
	}
	c.failures++
	delay, ok := xretry.SafeNextDelay(c.backoff)
	if !ok {
		c.finish()
		c.metrics.MarkRetriesExhausted()
		c.metrics.MarkFailure()
		c.completion.Fail(&RetriesExhaustedError{Attempts: c.failures, Last: o.Status})
		return
	}

	c.metrics.MarkRetry()
	c.logRetry(a, o, delay)

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		c.finishCancelled()
		return
	}
	c.retryPending = true
	c.retrySeq++
	seq, next := c.retrySeq, a.index+1
	c.mu.Unlock()

	t := c.scheduler.Schedule(delay, func() { c.fireRetry(seq, next) })

	c.mu.Lock()
	switch {
	case c.retryPending && c.retrySeq == seq:
		c.retryTimer = t
		c.mu.Unlock()
	case c.cancelled:
		c.mu.Unlock()
		t.Stop()
	default:
		c.mu.Unlock()
	}
}

// newBackoff 策略构造失败视为立即耗尽
func (c *Coordinator[Req, Resp]) newBackoff() (b xretry.Backoff) {
	defer func() {
		if r := recover(); r != nil {
			b = nil
		}
	}()
	return c.retry.NewBackoff()
}

func (c *Coordinator[Req, Resp]) fireRetry(seq uint64, next int) {
	c.mu.Lock()
	if !c.retryPending || c.retrySeq != seq {
		c.mu.Unlock()
		return
	}
	c.retryPending = false
	c.retryTimer = nil
	c.mu.Unlock()
	c.run(next)
}

func (c *Coordinator[Req, Resp]) cancelInFlight(reason string) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	var h CallHandle
	if a := c.current; a != nil {
		h = a.handle
		a.handle = nil
		c.current = nil
	}
	pending, t := c.retryPending, c.retryTimer
	c.retryPending = false
	c.retryTimer = nil
	c.mu.Unlock()

	if h != nil {
		h.Cancel(reason)
	}
	if pending {
		if t != nil {
			t.Stop()
		}
		c.finishCancelled()
	}
}

func (c *Coordinator[Req, Resp]) finish() {
	c.finishOnce.Do(func() {
		if c.opTimer != nil {
			c.opTimer.Close()
		}
		if c.stopWatch != nil {
			c.stopWatch()
		}
	})
}

func (c *Coordinator[Req, Resp]) finishCancelled() {
	c.finish()
	c.completion.markCancelled()
}

func (c *Coordinator[Req, Resp]) logRetry(a *attempt, o Outcome[Resp], delay time.Duration) {
	attrs := []slog.Attr{
		slog.Int(xlog.KeyFailures, c.failures),
		slog.String(xlog.KeyCode, o.Status.Code().String()),
		slog.Duration(xlog.KeyDelay, delay),
	}
	if vals := o.Trailer.Get(c.channelKey); len(vals) > 0 {
		attrs = append(attrs, slog.String(xlog.KeyChannel, vals[0]))
	}
	ctx, _ := xctx.WithAttempt(c.ctx, a.index)
	c.logger.Info(ctx, "Retrying failed call", attrs...)
}
