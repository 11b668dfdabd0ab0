// xlog.go 定义 Logger 接口。
//
// 所有方法第一个参数是 context：xcall.Coordinator 把 operation_id、method
// 与 attempt 写入尝试的 context，EnrichHandler 在输出时取出。
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口，只接受 slog.Attr。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger，派生 logger 共享父级的级别
	With(attrs ...slog.Attr) Logger
}

// Leveler 级别控制接口
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 由 Builder.Build 返回，支持运行时调整级别。
type LoggerWithLevel interface {
	Logger
	Leveler
}
