package xctx

import (
	"context"
	"errors"
	"log/slog"
)

type contextKey string

const (
	keyOperationID contextKey = "xctx.operation_id"
	keyAttempt     contextKey = "xctx.attempt"
	keyMethod      contextKey = "xctx.method"
)

// 日志属性 Key 常量
const (
	KeyOperationID = "operation_id"
	KeyAttempt     = "attempt"
	KeyMethod      = "method"
)

// callFieldCount AppendCallAttrs 最多追加的字段数
const callFieldCount = 3

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrEmptyOperationID 表示操作 ID 为空。
	ErrEmptyOperationID = errors.New("xctx: empty operation_id")

	// ErrNegativeAttempt 表示尝试序号为负数。
	ErrNegativeAttempt = errors.New("xctx: negative attempt")
)

// WithOperationID 注入操作 ID。
func WithOperationID(ctx context.Context, id string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if id == "" {
		return ctx, ErrEmptyOperationID
	}
	return context.WithValue(ctx, keyOperationID, id), nil
}

// OperationID 返回操作 ID，不存在时返回空字符串。
func OperationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(keyOperationID).(string)
	return v
}

// WithAttempt 注入尝试序号（从 0 开始）。
func WithAttempt(ctx context.Context, attempt int) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if attempt < 0 {
		return ctx, ErrNegativeAttempt
	}
	return context.WithValue(ctx, keyAttempt, attempt), nil
}

// Attempt 返回尝试序号，不存在时 ok 为 false。
func Attempt(ctx context.Context) (attempt int, ok bool) {
	if ctx == nil {
		return 0, false
	}
	attempt, ok = ctx.Value(keyAttempt).(int)
	return attempt, ok
}

// WithMethod 注入 RPC 方法名，空字符串时原样返回 ctx。
func WithMethod(ctx context.Context, method string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if method == "" {
		return ctx, nil
	}
	return context.WithValue(ctx, keyMethod, method), nil
}

// Method 返回 RPC 方法名，不存在时返回空字符串。
func Method(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(keyMethod).(string)
	return v
}

// AppendCallAttrs 将 context 中的调用信息追加到 attrs，只追加存在的字段。
func AppendCallAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := OperationID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyOperationID, v))
	}
	if v := Method(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyMethod, v))
	}
	if v, ok := Attempt(ctx); ok {
		attrs = append(attrs, slog.Int(KeyAttempt, v))
	}
	return attrs
}

// CallAttrs 返回调用信息的 slog.Attr 切片，没有任何字段时返回 nil。
func CallAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendCallAttrs(make([]slog.Attr, 0, callFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
