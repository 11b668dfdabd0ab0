// Package xbreaker 提供基于 [sony/gobreaker/v2] 的两阶段熔断器。
//
// RPC 尝试是异步完成的：发起时获取许可，完成回调中再上报结果。
// 因此这里只封装 gobreaker 的 TwoStepCircuitBreaker（Allow/done 模式），
// 而不是同步的 Execute 模式。
//
// # 使用示例
//
//	b := xbreaker.NewBreaker("bigtable.ReadRows",
//	    xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(5)),
//	    xbreaker.WithTimeout(30*time.Second),
//	)
//	done, err := b.Allow()
//	if err != nil {
//	    // 熔断器打开，快速失败
//	}
//	// ... 异步完成后
//	done(err) // err 为 nil 记为成功
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker
