package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xcall/pkg/observability/xlog"
	"github.com/omeyang/xcall/pkg/observability/xmetrics"
	"github.com/omeyang/xcall/pkg/resilience/xbreaker"
	"github.com/omeyang/xcall/pkg/rpc/xcall"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

type (
	healthReq  = *healthpb.HealthCheckRequest
	healthResp = *healthpb.HealthCheckResponse
)

type probeConfig struct {
	services       []string
	timeout        time.Duration
	waitReady      time.Duration
	retry          *xcall.RetryOptions
	breaker        xbreaker.TripPolicy
	logger         xlog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

type probeResult struct {
	service string
	status  healthpb.HealthCheckResponse_ServingStatus
	err     error
	elapsed time.Duration
}

func (r probeResult) healthy() bool {
	return r.err == nil && r.status == healthpb.HealthCheckResponse_SERVING
}

func newHealthExecutor(conn grpc.ClientConnInterface, pc probeConfig) xcall.Executor[healthReq, healthResp] {
	var exec xcall.Executor[healthReq, healthResp] = xcall.NewUnaryExecutor[healthReq, healthResp](
		conn, healthCheckMethod, func() healthResp { return &healthpb.HealthCheckResponse{} })
	exec = xcall.NewTracingExecutor(exec, healthCheckMethod, pc.tracerProvider)
	if pc.breaker != nil {
		b := xbreaker.NewBreaker("health",
			xbreaker.WithTripPolicy(pc.breaker),
			xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
				pc.logger.Warn(context.Background(), "breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}),
		)
		exec = xcall.NewBreakerExecutor(exec, b)
	}
	return exec
}

const defaultBreakerMinRequests = 10

// breakerPolicy 由命令行参数选择熔断策略，都未设置时返回 nil（不熔断）。
func breakerPolicy(failures int, ratio float64, minRequests int) (xbreaker.TripPolicy, error) {
	switch {
	case failures < 0 || ratio < 0 || ratio > 1 || minRequests < 0:
		return nil, &usageError{msg: "熔断参数超出范围"}
	case failures > 0 && ratio > 0:
		return nil, &usageError{msg: "--breaker-failures 与 --breaker-ratio 不能同时使用"}
	case failures > 0:
		return xbreaker.NewConsecutiveFailures(uint32(failures)), nil
	case ratio > 0:
		return xbreaker.NewFailureRatio(ratio, uint32(minRequests)), nil
	}
	return nil, nil
}

// probe 并发探测所有服务，每个服务独立计时与重试。返回结果顺序与 services 一致。
func probe(ctx context.Context, conn grpc.ClientConnInterface, pc probeConfig) ([]probeResult, error) {
	if pc.logger == nil {
		pc.logger = xlog.Default()
	}
	var mopts []xmetrics.Option
	if pc.meterProvider != nil {
		mopts = append(mopts, xmetrics.WithMeterProvider(pc.meterProvider))
	}
	m, err := xmetrics.NewOTelRPCMetrics(healthCheckMethod, mopts...)
	if err != nil {
		return nil, err
	}
	exec := newHealthExecutor(conn, pc)

	results := make([]probeResult, len(pc.services))
	var g errgroup.Group
	for i, svc := range pc.services {
		g.Go(func() error {
			results[i] = probeOne(ctx, exec, svc, m, pc)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func probeOne(ctx context.Context, exec xcall.Executor[healthReq, healthResp], svc string, m xcall.Metrics, pc probeConfig) probeResult {
	if pc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pc.timeout)
		defer cancel()
	}
	begin := time.Now()
	resp, err := xcall.Call[healthReq, healthResp](ctx, exec, &healthpb.HealthCheckRequest{Service: svc},
		xcall.WithIdempotent(true),
		xcall.WithRetryOptions(pc.retry),
		xcall.WithMetrics(m),
		xcall.WithLogger(pc.logger.With(slog.String("service", svc))),
		xcall.WithMethod(healthCheckMethod),
	)
	r := probeResult{service: svc, err: err, elapsed: time.Since(begin)}
	if err == nil {
		r.status = resp.GetStatus()
	}
	return r
}

// printResults 输出结果表，全部 SERVING 时返回 true。
func printResults(w io.Writer, results []probeResult) bool {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tSTATUS\tELAPSED\tDETAIL")
	healthy := true
	for _, r := range results {
		name := r.service
		if name == "" {
			name = "(server)"
		}
		state, detail := r.status.String(), ""
		if r.err != nil {
			state, detail = "ERROR", describeError(r.err)
		}
		if !r.healthy() {
			healthy = false
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, state, r.elapsed.Round(time.Millisecond), detail)
	}
	_ = tw.Flush()
	return healthy
}

func describeError(err error) string {
	var exhausted *xcall.RetriesExhaustedError
	switch {
	case errors.As(err, &exhausted):
		return fmt.Sprintf("retries exhausted after %d attempts: %s", exhausted.Attempts, exhausted.Last.Code())
	case errors.Is(err, xcall.ErrCanceled):
		return "canceled"
	}
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s: %s", st.Code(), st.Message())
	}
	return err.Error()
}

// printSummary 汇总 reader 中的计数器与直方图。
func printSummary(ctx context.Context, w io.Writer, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}
	lines := make(map[string]string)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				lines[m.Name] = fmt.Sprintf("%d", total)
			case metricdata.Histogram[float64]:
				var (
					count uint64
					sum   float64
				)
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				lines[m.Name] = fmt.Sprintf("count=%d sum=%.3fs", count, sum)
			}
		}
	}
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, lines[name])
	}
	return tw.Flush()
}

func printRetryConfig(w io.Writer, rc xcall.RetryConfig) {
	fmt.Fprintf(w, "enable_retries=%t retryable_codes=%v initial_backoff=%s max_backoff=%s multiplier=%g jitter=%g max_elapsed=%s max_attempts=%d\n",
		rc.EnableRetries, rc.RetryableCodes, rc.InitialBackoff, rc.MaxBackoff,
		rc.Multiplier, rc.Jitter, rc.MaxElapsed, rc.MaxAttempts)
}
