package xlog

import "log/slog"

// 常用属性 Key
const (
	KeyError    = "error"
	KeyDelay    = "delay"
	KeyCode     = "code"
	KeyChannel  = "channel_id"
	KeyFailures = "failures"
)

// Err 返回错误属性，nil 错误返回空 Attr（slog 会忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
