package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 解析配置失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrFromBytes 从字节数据创建的 Config 不支持 Reload 与 Watch。
	ErrFromBytes = errors.New("xconf: config created from bytes")

	// ErrUnsupportedConfig Watch 只支持本包创建的 Config。
	ErrUnsupportedConfig = errors.New("xconf: unsupported config implementation")
)
