package xmetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xcall/xmetrics"

	// AttrMethod 方法名属性
	AttrMethod = "method"
)

// 指标名称
const (
	MetricOperationDuration = "xcall.rpc.operation.duration"
	MetricAttemptDuration   = "xcall.rpc.attempt.duration"
	MetricRetries           = "xcall.rpc.retries"
	MetricFailures          = "xcall.rpc.failures"
	MetricRetriesExhausted  = "xcall.rpc.retries_exhausted"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
	now                 func() time.Time
}

// Option 定义 OTel RPCMetrics 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认使用 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// withNow 替换时钟（测试用）
func withNow(now func() time.Time) Option {
	return func(cfg *otelConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

type otelMetrics struct {
	attrs     metric.MeasurementOption
	opDur     metric.Float64Histogram
	attemptDu metric.Float64Histogram
	retries   metric.Int64Counter
	failures  metric.Int64Counter
	exhausted metric.Int64Counter
	now       func() time.Time
}

// NewOTelRPCMetrics 创建 method 对应的 RPCMetrics。
func NewOTelRPCMetrics(method string, opts ...Option) (RPCMetrics, error) {
	if method == "" {
		return nil, ErrEmptyMethod
	}
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
		now:                 time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	m := &otelMetrics{
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String(AttrMethod, method))),
		now:   cfg.now,
	}

	var err error
	if m.opDur, err = meter.Float64Histogram(MetricOperationDuration,
		metric.WithDescription("rpc operation duration including retries"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}
	if m.attemptDu, err = meter.Float64Histogram(MetricAttemptDuration,
		metric.WithDescription("single rpc attempt duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}
	if m.retries, err = meter.Int64Counter(MetricRetries,
		metric.WithDescription("scheduled rpc retries"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	if m.failures, err = meter.Int64Counter(MetricFailures,
		metric.WithDescription("failed rpc operations"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	if m.exhausted, err = meter.Int64Counter(MetricRetriesExhausted,
		metric.WithDescription("rpc operations failed after exhausting retries"),
		metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	return m, nil
}

func (m *otelMetrics) timer(h metric.Float64Histogram) Timer {
	start := m.now()
	return OnceTimer(func() {
		h.Record(context.Background(), m.now().Sub(start).Seconds(), m.attrs)
	})
}

func (m *otelMetrics) TimeOperation() Timer { return m.timer(m.opDur) }

func (m *otelMetrics) TimeAttempt() Timer { return m.timer(m.attemptDu) }

func (m *otelMetrics) MarkRetry() { m.retries.Add(context.Background(), 1, m.attrs) }

func (m *otelMetrics) MarkFailure() { m.failures.Add(context.Background(), 1, m.attrs) }

func (m *otelMetrics) MarkRetriesExhausted() {
	m.exhausted.Add(context.Background(), 1, m.attrs)
}
