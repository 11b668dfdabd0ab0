package xcall

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/status"
)

var (
	// ErrAlreadyStarted 表示 Coordinator.Start 被重复调用。
	ErrAlreadyStarted = errors.New("xcall: coordinator already started")

	// ErrCanceled 表示操作已被取消，Await 在 Cancelled 结果上返回此错误。
	ErrCanceled = errors.New("xcall: operation canceled")

	// ErrRetriesExhausted 退避耗尽，*RetriesExhaustedError 满足 errors.Is。
	ErrRetriesExhausted = errors.New("xcall: retries exhausted")

	// ErrNonRetryable 不可重试的失败，*NonRetryableError 满足 errors.Is。
	ErrNonRetryable = errors.New("xcall: non-retryable failure")

	// ErrNilExecutor 表示 Executor 为 nil。
	ErrNilExecutor = errors.New("xcall: nil executor")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xcall: nil context")

	// ErrUnknownCode 表示配置中的状态码名称无法识别。
	ErrUnknownCode = errors.New("xcall: unknown status code")
)

// RetriesExhaustedError 可重试的失败持续到退避上限。
//
// Attempts 为实际执行的尝试次数，Last 为最后一次尝试的状态。
type RetriesExhaustedError struct {
	Attempts int
	Last     *status.Status
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("xcall: exhausted retries after %d failures: %s", e.Attempts, statusText(e.Last))
}

// Is 使 errors.Is(err, ErrRetriesExhausted) 成立。
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// Unwrap 返回最后一次尝试的状态错误。
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last.Err()
}

// GRPCStatus 使 status.FromError / status.Code 返回最后一次尝试的状态。
func (e *RetriesExhaustedError) GRPCStatus() *status.Status {
	return e.Last
}

// NonRetryableError 失败一次且重试配置或幂等性不允许再次尝试。
type NonRetryableError struct {
	Status *status.Status
}

func (e *NonRetryableError) Error() string {
	return "xcall: non-retryable: " + statusText(e.Status)
}

// Is 使 errors.Is(err, ErrNonRetryable) 成立。
func (e *NonRetryableError) Is(target error) bool {
	return target == ErrNonRetryable
}

// Unwrap 返回原始状态错误。
func (e *NonRetryableError) Unwrap() error {
	return e.Status.Err()
}

// GRPCStatus 返回原始状态。
func (e *NonRetryableError) GRPCStatus() *status.Status {
	return e.Status
}

func statusText(st *status.Status) string {
	if st == nil {
		return "code = OK"
	}
	return fmt.Sprintf("code = %s desc = %s", st.Code(), st.Message())
}
