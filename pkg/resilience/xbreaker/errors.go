package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrOpenState 熔断器处于打开状态
	ErrOpenState = gobreaker.ErrOpenState

	// ErrTooManyRequests 半开状态下请求数超过上限
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// BreakerError 熔断器拒绝执行时返回的错误
type BreakerError struct {
	Err   error
	Name  string
	State State
}

// Error 实现 error 接口
func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

// Unwrap 返回 gobreaker 原始错误
func (e *BreakerError) Unwrap() error {
	return e.Err
}

// IsBreakerRejection 判断 err 是否为熔断器拒绝
func IsBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
