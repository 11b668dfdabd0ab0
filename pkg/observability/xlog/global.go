package xlog

import (
	"sync"
)

// 进程级默认 Logger，供未显式注入 logger 的 xcall.Coordinator 与 CLI 使用。
var (
	defaultMu     sync.RWMutex
	defaultLogger LoggerWithLevel
)

// Default 返回默认 Logger。未设置时惰性创建 stderr/Info/text 的 logger。
func Default() LoggerWithLevel {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		// 默认参数的 Build 不会失败
		defaultLogger, _, _ = New().Build()
	}
	return defaultLogger
}

// SetDefault 替换默认 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// ResetDefault 清除已设置的默认 Logger，下次 Default 重新创建。
func ResetDefault() {
	defaultMu.Lock()
	defaultLogger = nil
	defaultMu.Unlock()
}
