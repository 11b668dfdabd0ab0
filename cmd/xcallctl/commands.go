package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/omeyang/xcall/pkg/config/xconf"
	"github.com/omeyang/xcall/pkg/observability/xlog"
	"github.com/omeyang/xcall/pkg/resilience/xretry"
	"github.com/omeyang/xcall/pkg/rpc/xcall"
)

const (
	defaultCallTimeout   = 10 * time.Second
	retrySection         = "retry"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 3
)

// exitError 命令已完成输出，只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func createHealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "探测 gRPC 健康检查服务",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "目标地址 host:port",
			},
			&cli.StringSliceFlag{
				Name:    "service",
				Aliases: []string{"s"},
				Usage:   "服务名，可重复；缺省探测整体状态",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "单个服务的总超时（含重试）",
				Value:   defaultCallTimeout,
			},
			&cli.DurationFlag{
				Name:  "wait-ready",
				Usage: "调用前等待连接就绪的最长时间，0 表示不等待",
			},
			&cli.IntFlag{
				Name:  "breaker-failures",
				Usage: "连续失败多少次后熔断，0 表示不启用熔断",
			},
			&cli.Float64Flag{
				Name:  "breaker-ratio",
				Usage: "失败率达到该值后熔断（0-1），与 --breaker-failures 互斥",
			},
			&cli.IntFlag{
				Name:  "breaker-min-requests",
				Usage: "失败率熔断的最少请求数",
				Value: defaultBreakerMinRequests,
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "结束时打印调用指标汇总",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			addr := cmd.String("addr")
			if addr == "" {
				return &usageError{msg: "缺少 --addr"}
			}
			logger, cleanup, err := buildLogger(logOptionsFrom(cmd), os.Stderr)
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			defer func() { _ = cleanup() }()

			retry, err := loadRetryOptions(cmd.String("config"))
			if err != nil {
				return err
			}
			breaker, err := breakerPolicy(cmd.Int("breaker-failures"), cmd.Float64("breaker-ratio"), cmd.Int("breaker-min-requests"))
			if err != nil {
				return err
			}
			services := cmd.StringSlice("service")
			if len(services) == 0 {
				services = []string{""}
			}
			return cmdHealth(ctx, addr, probeConfig{
				services:  services,
				timeout:   cmd.Duration("timeout"),
				waitReady: cmd.Duration("wait-ready"),
				retry:     retry,
				breaker:   breaker,
				logger:    logger,
			}, cmd.Bool("metrics"), os.Stdout)
		},
	}
}

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "监视配置文件并打印生效的重试配置",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "变更防抖时间",
				Value: xconf.DefaultDebounce,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if path == "" {
				return &usageError{msg: "watch 需要 --config"}
			}
			logger, cleanup, err := buildLogger(logOptionsFrom(cmd), os.Stderr)
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			defer func() { _ = cleanup() }()
			return cmdWatch(ctx, path, cmd.Duration("debounce"), logger, os.Stdout)
		},
	}
}

type logOptions struct {
	level      string
	format     string
	file       string
	maxSizeMB  int
	maxBackups int
}

func logOptionsFrom(cmd *cli.Command) logOptions {
	return logOptions{
		level:      cmd.String("log-level"),
		format:     cmd.String("log-format"),
		file:       cmd.String("log-file"),
		maxSizeMB:  cmd.Int("log-max-size"),
		maxBackups: cmd.Int("log-max-backups"),
	}
}

// buildLogger 构建日志并设为默认 Logger。指定 file 时写入轮转文件，否则写 w。
func buildLogger(o logOptions, w io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(w).
		SetLevelString(o.level).
		SetFormat(o.format)
	if o.file != "" {
		b = b.SetRotation(o.file, xlog.Rotation{
			MaxSizeMB:  o.maxSizeMB,
			MaxBackups: o.maxBackups,
			Compress:   true,
		})
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	xlog.SetDefault(logger)
	return logger, cleanup, nil
}

// loadRetryOptions 读取配置文件的 retry 节点，path 为空时使用默认配置。
func loadRetryOptions(path string) (*xcall.RetryOptions, error) {
	if path == "" {
		return xcall.DefaultRetryOptions(), nil
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, err
	}
	rc, err := xcall.LoadRetryConfig(cfg, retrySection)
	if err != nil {
		return nil, err
	}
	return rc.Options()
}

func cmdHealth(ctx context.Context, addr string, pc probeConfig, printMetrics bool, out io.Writer) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效地址 %q: %v", addr, err)}
	}
	defer func() { _ = conn.Close() }()

	if pc.waitReady > 0 {
		if err := waitReady(ctx, conn, pc.waitReady); err != nil {
			return err
		}
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	pc.meterProvider = mp

	results, err := probe(ctx, conn, pc)
	if err != nil {
		return err
	}
	healthy := printResults(out, results)
	if printMetrics {
		if err := printSummary(ctx, out, reader); err != nil {
			pc.logger.Warn(ctx, "collect metrics failed", xlog.Err(err))
		}
	}
	if !healthy {
		return &exitError{code: 1}
	}
	return nil
}

func cmdWatch(ctx context.Context, path string, debounce time.Duration, logger xlog.Logger, out io.Writer) error {
	cfg, err := xconf.New(path)
	if err != nil {
		return err
	}
	report := func(c xconf.Config) {
		rc, err := xcall.LoadRetryConfig(c, retrySection)
		if err == nil {
			_, err = rc.Options()
		}
		if err != nil {
			logger.Warn(ctx, "invalid retry config", xlog.Err(err))
			return
		}
		printRetryConfig(out, rc)
	}
	report(cfg)

	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "reload config failed", xlog.Err(err))
			return
		}
		logger.Info(ctx, "config reloaded", slog.String("path", c.Path()))
		report(c)
	}, xconf.WithDebounce(debounce))
	if err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// waitReady 主动建立连接并等待 READY，期间按固定间隔轮询。
func waitReady(ctx context.Context, conn *grpc.ClientConn, limit time.Duration) error {
	const interval = 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	conn.Connect()
	policy := xretry.NewFixedBackoff(interval, int(limit/interval)+1)
	err := xretry.Do(ctx, policy, func(context.Context) error {
		if s := conn.GetState(); s != connectivity.Ready {
			return fmt.Errorf("connection state %s", s)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("wait ready: %w", err)
	}
	return nil
}
