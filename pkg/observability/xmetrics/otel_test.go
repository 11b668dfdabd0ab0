package xmetrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const testMethod = "/svc.Test/Read"

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterValue(t *testing.T, metrics map[string]metricdata.Metrics, name string) int64 {
	t.Helper()
	m, ok := metrics[name]
	if !ok {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		v, ok := dp.Attributes.Value(attribute.Key(AttrMethod))
		require.True(t, ok)
		assert.Equal(t, testMethod, v.AsString())
		total += dp.Value
	}
	return total
}

func TestNewOTelRPCMetrics_EmptyMethod(t *testing.T) {
	_, err := NewOTelRPCMetrics("")
	assert.ErrorIs(t, err, ErrEmptyMethod)
}

func TestNewOTelRPCMetrics_Default(t *testing.T) {
	m, err := NewOTelRPCMetrics(testMethod, nil, WithInstrumentationName(""))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.TimeOperation().Close()
		m.MarkRetry()
	})
}

func TestOTelRPCMetrics_Counters(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	m, err := NewOTelRPCMetrics(testMethod, WithMeterProvider(mp))
	require.NoError(t, err)

	m.MarkRetry()
	m.MarkRetry()
	m.MarkFailure()
	m.MarkRetriesExhausted()

	got := collect(t, reader)
	assert.Equal(t, int64(2), counterValue(t, got, MetricRetries))
	assert.Equal(t, int64(1), counterValue(t, got, MetricFailures))
	assert.Equal(t, int64(1), counterValue(t, got, MetricRetriesExhausted))
}

func TestOTelRPCMetrics_TimersRecordOnce(t *testing.T) {
	mp, reader := newTestMeterProvider(t)

	var mu sync.Mutex
	now := time.Unix(100, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	m, err := NewOTelRPCMetrics(testMethod, WithMeterProvider(mp), withNow(clock))
	require.NoError(t, err)

	op := m.TimeOperation()
	attempt := m.TimeAttempt()
	advance(250 * time.Millisecond)
	attempt.Close()
	attempt.Close()
	advance(250 * time.Millisecond)
	op.Close()

	got := collect(t, reader)

	hist, ok := got[MetricAttemptDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.25, hist.DataPoints[0].Sum, 1e-9)

	hist, ok = got[MetricOperationDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 0.5, hist.DataPoints[0].Sum, 1e-9)
}

func TestNoop(t *testing.T) {
	m := Noop()
	assert.NotPanics(t, func() {
		m.TimeOperation().Close()
		m.TimeAttempt().Close()
		m.MarkRetry()
		m.MarkFailure()
		m.MarkRetriesExhausted()
	})
}

func TestOnceTimer(t *testing.T) {
	n := 0
	timer := OnceTimer(func() { n++ })
	timer.Close()
	timer.Close()
	assert.Equal(t, 1, n)
}
