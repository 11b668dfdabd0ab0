package xcall

import (
	"context"
	"sync"
)

// ResultKind 操作终态类别。
type ResultKind int

const (
	// ResultSuccess 操作成功。
	ResultSuccess ResultKind = iota + 1
	// ResultCancelled 操作被调用方取消。
	ResultCancelled
	// ResultFailed 操作失败，Err 为 *RetriesExhaustedError、*NonRetryableError 或终结函数返回的错误。
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultCancelled:
		return "cancelled"
	case ResultFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Result 操作的终态结果。
type Result[T any] struct {
	Kind  ResultKind
	Value T
	Err   error
}

// Completion 单次赋值的 future。
//
// Resolve、Fail、Cancel 中首个调用生效，之后的调用返回 false 且无副作用。
// 任意数量的消费者（包括结果产生之后才注册的）观察到同一个结果。
type Completion[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	result   Result[T]
	resolved bool
	waiters  []func(Result[T])
	onCancel func()
}

// NewCompletion 创建未完成的 Completion。
func NewCompletion[T any]() *Completion[T] {
	return &Completion[T]{done: make(chan struct{})}
}

// Resolve 以成功结果完成。
func (c *Completion[T]) Resolve(v T) bool {
	return c.complete(Result[T]{Kind: ResultSuccess, Value: v})
}

// Fail 以失败结果完成。
func (c *Completion[T]) Fail(err error) bool {
	return c.complete(Result[T]{Kind: ResultFailed, Err: err})
}

// Cancel 标记为取消，并把取消请求传递给正在进行的尝试。
//
// 已完成时不做任何事，返回 false。
func (c *Completion[T]) Cancel() bool {
	if !c.markCancelled() {
		return false
	}
	c.mu.Lock()
	hook := c.onCancel
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return true
}

// markCancelled 标记取消，不触发 onCancel。
func (c *Completion[T]) markCancelled() bool {
	return c.complete(Result[T]{Kind: ResultCancelled, Err: ErrCanceled})
}

// setOnCancel 由 Coordinator 在构造时注册。
func (c *Completion[T]) setOnCancel(fn func()) {
	c.mu.Lock()
	c.onCancel = fn
	c.mu.Unlock()
}

func (c *Completion[T]) complete(r Result[T]) bool {
	c.mu.Lock()
	if c.resolved {
		c.mu.Unlock()
		return false
	}
	c.resolved = true
	c.result = r
	waiters := c.waiters
	c.waiters = nil
	close(c.done)
	c.mu.Unlock()

	// 回调在锁外执行，允许回调内再次访问 Completion
	for _, fn := range waiters {
		fn(r)
	}
	return true
}

// Done 在完成时关闭。
func (c *Completion[T]) Done() <-chan struct{} {
	return c.done
}

// Result 返回结果，未完成时 ok 为 false。
func (c *Completion[T]) Result() (r Result[T], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.resolved
}

// IsCancelled 是否以取消结束。
func (c *Completion[T]) IsCancelled() bool {
	r, ok := c.Result()
	return ok && r.Kind == ResultCancelled
}

// OnComplete 注册完成回调。已完成时立即在当前 goroutine 执行。
func (c *Completion[T]) OnComplete(fn func(Result[T])) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	if !c.resolved {
		c.waiters = append(c.waiters, fn)
		c.mu.Unlock()
		return
	}
	r := c.result
	c.mu.Unlock()
	fn(r)
}

// Await 阻塞直到完成或 ctx 结束。
//
// ctx 结束只停止等待，不取消操作。Cancelled 结果返回 ErrCanceled。
func (c *Completion[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	select {
	case <-c.done:
	case <-ctx.Done():
		return zero, context.Cause(ctx)
	}
	r, _ := c.Result()
	if r.Kind == ResultSuccess {
		return r.Value, nil
	}
	return zero, r.Err
}
