package xcall

import "github.com/omeyang/xcall/pkg/observability/xmetrics"

// Metrics 操作级指标接收器，见 xmetrics.RPCMetrics。
type Metrics = xmetrics.RPCMetrics

// TimerContext 计时上下文，Close 幂等。
type TimerContext = xmetrics.Timer

// NoopMetrics 返回不记录任何数据的 Metrics。
func NoopMetrics() Metrics { return xmetrics.Noop() }
