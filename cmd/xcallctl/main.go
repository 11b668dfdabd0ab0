// xcallctl 用 xcall 重试引擎探测 gRPC 服务健康状态。
//
// 用法:
//
//	xcallctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      重试配置文件（YAML/JSON，读取 retry 节点）
//	    --log-level   日志级别 (debug/info/warn/error，默认: info)
//	    --log-format  日志格式 (text/json，默认: text)
//	    --log-file    日志写入文件并按大小轮转，缺省写 stderr
//
// 命令:
//
//	health         调用 grpc.health.v1.Health/Check，失败时按重试配置退避
//	watch          监视配置文件，变更时打印生效的重试配置
//
// 退出码:
//
//	0: 所有服务 SERVING
//	1: 调用失败或服务非 SERVING
//	2: 参数错误
//
// 示例:
//
//	xcallctl health --addr 127.0.0.1:9090
//	xcallctl -c retry.yaml health --addr 127.0.0.1:9090 --service orders --service users
//	xcallctl -c retry.yaml watch
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xcallctl",
		Usage:   "带重试的 gRPC 健康探测工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "重试配置文件路径",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，启用按大小轮转",
			},
			&cli.IntFlag{
				Name:  "log-max-size",
				Usage: "单个日志文件上限（MB）",
				Value: defaultLogMaxSizeMB,
			},
			&cli.IntFlag{
				Name:  "log-max-backups",
				Usage: "保留的旧日志文件数",
				Value: defaultLogMaxBackups,
			},
		},
		Commands: []*cli.Command{
			createHealthCommand(),
			createWatchCommand(),
		},
		// 由 run 统一映射退出码，禁止 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, args); err != nil {
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}
