// Package xlog 提供基于 log/slog 的结构化日志。
//
// 特性：
//   - 所有方法强制传入 context，EnrichHandler 自动注入 xctx 中的
//     operation_id、method、attempt
//   - 运行时动态调整级别（slog.LevelVar）
//   - 基于 lumberjack 的文件轮转，Build() 返回的 cleanup 关闭文件
//
// 基本用法：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "Retrying failed call", xlog.Err(err))
package xlog
