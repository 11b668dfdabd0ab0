// Package xcall 驱动单个逻辑 RPC 请求的重试、退避与完成。
//
// 组件：
//   - Executor: 发起一次物理尝试，完成时恰好通知 Listener 一次
//   - Classify: 根据状态码、重试配置与幂等性决定接受、良性取消、重试或终止
//   - Completion: 单次赋值的 future，首个结果生效，可被任意多个消费者观察
//   - Coordinator: 状态机，串行执行尝试，按退避调度重试，与取消并发安全
//
// 基本用法：
//
//	exec := xcall.NewUnaryExecutor[*pb.ReadRowsRequest, *pb.ReadRowsResponse](
//		conn, "/google.bigtable.v2.Bigtable/ReadRows", func() *pb.ReadRowsResponse { return new(pb.ReadRowsResponse) })
//
//	resp, err := xcall.Call(ctx, exec, req,
//		xcall.WithIdempotent(true),
//		xcall.WithRetryOptions(opts),
//	)
//	var exhausted *xcall.RetriesExhaustedError
//	if errors.As(err, &exhausted) {
//		// exhausted.Attempts, exhausted.Last
//	}
//
// 并发模型：
//
// 同一操作的尝试严格串行；完成回调与 Cancel 可来自任意 goroutine。
// 当前尝试句柄只在一个互斥区内读写，该互斥区从不跨越对 Executor 或退避的调用。
// 等待重试通过定时器延迟执行，不占用阻塞的 goroutine。
//
// 幂等性在构造 Coordinator 时求值一次，操作期间修改请求视为使用错误。
package xcall
