// Package xretry 提供退避策略接口及实现，供 RPC 重试协调器计算重试间隔。
//
// # 设计理念
//
// 退避分为两层：
//   - BackoffPolicy：无状态工厂，描述一组退避参数，可在多个操作间共享
//   - Backoff：单个操作私有的退避状态，只前进、不重置
//
// Backoff.NextDelay 以 (delay, ok) 形式返回结果，ok 为 false 表示退避已耗尽。
// 耗尽是普通的控制流值而不是 panic 或 error；一旦耗尽，后续调用始终耗尽。
//
// # 内置策略
//
//   - ExponentialBackoff：指数退避（带抖动），支持最大累计时间与最大尝试次数
//   - FixedBackoff：固定延迟，按尝试次数耗尽
//   - NoBackoff：无延迟，按尝试次数耗尽
//
// # 使用方式
//
//	policy := xretry.NewExponentialBackoff(
//	    xretry.WithInitialInterval(5*time.Millisecond),
//	    xretry.WithMaxElapsed(time.Minute),
//	)
//	b := policy.NewBackoff()
//	if d, ok := xretry.SafeNextDelay(b); ok {
//	    time.AfterFunc(d, retry)
//	}
//
// SafeNextDelay 会把 Backoff 实现中的 panic、负数延迟统一视为耗尽，
// 保证退避计算失败只会让调用方停止重试，而不会让重试循环崩溃。
//
// # 阻塞式重试
//
// 对于不需要异步调度的简单循环（如 CLI 启动时等待服务就绪），
// Do 是对 [avast/retry-go/v5] 的薄包装，可直接复用同一个 BackoffPolicy。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
