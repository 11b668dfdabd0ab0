package xcall

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/omeyang/xcall/pkg/config/xconf"
	"github.com/omeyang/xcall/pkg/resilience/xretry"
)

// RetryConfig 可从配置文件加载的重试配置。
//
// YAML 示例：
//
//	retry:
//	  enable_retries: true
//	  retryable_codes: [UNAVAILABLE, DEADLINE_EXCEEDED]
//	  initial_backoff: 5ms
//	  max_backoff: 30s
//	  multiplier: 2
//	  jitter: 0.1
//	  max_elapsed: 60s
//	  max_attempts: 0
type RetryConfig struct {
	EnableRetries  bool          `koanf:"enable_retries"`
	RetryableCodes []string      `koanf:"retryable_codes"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`
	Multiplier     float64       `koanf:"multiplier"`
	Jitter         float64       `koanf:"jitter"`
	MaxElapsed     time.Duration `koanf:"max_elapsed"`
	// MaxAttempts 总尝试次数上限，0 表示只受 MaxElapsed 限制
	MaxAttempts int `koanf:"max_attempts"`
}

// DefaultRetryConfig 返回与 DefaultRetryOptions 等价的配置。
func DefaultRetryConfig() RetryConfig {
	names := make([]string, 0, len(DefaultRetryableCodes))
	for _, c := range DefaultRetryableCodes {
		names = append(names, codeName(c))
	}
	return RetryConfig{
		EnableRetries:  true,
		RetryableCodes: names,
		InitialBackoff: xretry.DefaultInitialInterval,
		MaxBackoff:     xretry.DefaultMaxInterval,
		Multiplier:     xretry.DefaultMultiplier,
		Jitter:         xretry.DefaultJitter,
		MaxElapsed:     xretry.DefaultMaxElapsed,
	}
}

// LoadRetryConfig 从 cfg 的 path 节点加载配置，未配置的字段保留默认值。
func LoadRetryConfig(cfg xconf.Config, path string) (RetryConfig, error) {
	rc := DefaultRetryConfig()
	defaults := rc.RetryableCodes
	// mapstructure 按下标覆盖已有切片，先清空避免残留默认值
	rc.RetryableCodes = nil
	if err := cfg.Unmarshal(path, &rc); err != nil {
		return RetryConfig{}, err
	}
	if !cfg.Client().Exists(joinPath(path, "retryable_codes")) {
		rc.RetryableCodes = defaults
	}
	return rc, nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Options 转换为 RetryOptions，零值字段保留 xretry 默认值。
func (c RetryConfig) Options() (*RetryOptions, error) {
	cs, err := ParseCodes(c.RetryableCodes)
	if err != nil {
		return nil, err
	}
	policy := xretry.NewExponentialBackoff(
		xretry.WithInitialInterval(c.InitialBackoff),
		xretry.WithMaxInterval(c.MaxBackoff),
		xretry.WithMultiplier(c.Multiplier),
		xretry.WithJitter(c.Jitter),
		xretry.WithMaxElapsed(c.MaxElapsed),
		xretry.WithMaxAttempts(c.MaxAttempts),
	)
	return NewRetryOptions(
		WithRetriesEnabled(c.EnableRetries),
		WithRetryableCodes(cs...),
		WithBackoffPolicy(policy),
	), nil
}

// ParseCodes 解析状态码名称（UNAVAILABLE、deadline_exceeded 等，大小写不敏感）。
func ParseCodes(names []string) ([]codes.Code, error) {
	out := make([]codes.Code, 0, len(names))
	for _, name := range names {
		var c codes.Code
		normalized := strings.ToUpper(strings.TrimSpace(name))
		if err := c.UnmarshalJSON([]byte(strconv.Quote(normalized))); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCode, name)
		}
		out = append(out, c)
	}
	return out, nil
}

// codeName 返回 ParseCodes 可识别的名称，如 DEADLINE_EXCEEDED。
func codeName(c codes.Code) string {
	var b strings.Builder
	for i, r := range c.String() {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
