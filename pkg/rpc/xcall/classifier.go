package xcall

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Decision 单次尝试完成后的分类结果。
type Decision int

const (
	// DecisionAccept 尝试成功。
	DecisionAccept Decision = iota
	// DecisionBenignCancel 调用方主动取消，不计为失败。
	DecisionBenignCancel
	// DecisionRetry 可以重试，由退避决定延迟或耗尽。
	DecisionRetry
	// DecisionFailTerminal 不允许再次尝试。
	DecisionFailTerminal
)

func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionBenignCancel:
		return "benign_cancel"
	case DecisionRetry:
		return "retry"
	case DecisionFailTerminal:
		return "fail_terminal"
	default:
		return "unknown"
	}
}

// Classify 按顺序应用规则：
//  1. OK → DecisionAccept
//  2. Canceled → DecisionBenignCancel
//  3. 重试关闭、状态码不在可重试集合或请求非幂等 → DecisionFailTerminal
//  4. 其他 → DecisionRetry
//
// st 为 nil 视为 OK；opts 为 nil 时使用 DefaultRetryOptions()。
func Classify(st *status.Status, opts *RetryOptions, idempotent bool) Decision {
	if opts == nil {
		opts = DefaultRetryOptions()
	}
	switch code := st.Code(); {
	case code == codes.OK:
		return DecisionAccept
	case code == codes.Canceled:
		return DecisionBenignCancel
	case !opts.EnableRetries() || !opts.IsRetryable(code) || !idempotent:
		return DecisionFailTerminal
	default:
		return DecisionRetry
	}
}
