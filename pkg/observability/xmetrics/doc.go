// Package xmetrics 定义 RPC 重试过程的指标接口，并提供 OpenTelemetry 实现。
//
// RPCMetrics 按方法创建，一个实例在该方法的所有操作间共享：
//
//	m, err := xmetrics.NewOTelRPCMetrics("/google.bigtable.v2.Bigtable/ReadRows",
//		xmetrics.WithMeterProvider(mp))
//
//	op := m.TimeOperation()
//	defer op.Close()
//
// 指标名称：
//   - xcall.rpc.operation.duration: 整个操作耗时（秒）
//   - xcall.rpc.attempt.duration: 单次尝试耗时（秒）
//   - xcall.rpc.retries: 调度的重试次数
//   - xcall.rpc.failures: 失败的操作数
//   - xcall.rpc.retries_exhausted: 因退避耗尽而失败的操作数
//
// 所有指标带 method 属性。
package xmetrics
