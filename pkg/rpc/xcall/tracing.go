package xcall

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"github.com/omeyang/xcall/pkg/context/xctx"
)

const tracerName = "github.com/omeyang/xcall/xcall"

// 尝试 span 的属性
const (
	AttrRPCMethod     = "rpc.method"
	AttrRPCStatusCode = "rpc.grpc.status_code"
	AttrAttempt       = "xcall.attempt"
	AttrOperationID   = "xcall.operation_id"
)

// TracingExecutor 为每次尝试创建一个 client span，尝试完成时结束。
type TracingExecutor[Req, Resp any] struct {
	next   Executor[Req, Resp]
	method string
	tracer trace.Tracer
}

// NewTracingExecutor 包装 next。tp 为 nil 时使用 otel.GetTracerProvider()。
func NewTracingExecutor[Req, Resp any](next Executor[Req, Resp], method string, tp trace.TracerProvider) *TracingExecutor[Req, Resp] {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingExecutor[Req, Resp]{next: next, method: method, tracer: tp.Tracer(tracerName)}
}

// Start 实现 Executor。
func (e *TracingExecutor[Req, Resp]) Start(ctx context.Context, req Req, md metadata.MD, l Listener[Resp]) CallHandle {
	attrs := []attribute.KeyValue{attribute.String(AttrRPCMethod, e.method)}
	if n, ok := xctx.Attempt(ctx); ok {
		attrs = append(attrs, attribute.Int(AttrAttempt, n))
	}
	if id := xctx.OperationID(ctx); id != "" {
		attrs = append(attrs, attribute.String(AttrOperationID, id))
	}
	ctx, span := e.tracer.Start(ctx, e.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return e.next.Start(ctx, req, md, ListenerFunc[Resp](func(o Outcome[Resp]) {
		code := o.Status.Code()
		span.SetAttributes(attribute.Int(AttrRPCStatusCode, int(code)))
		if code != codes.OK {
			span.SetStatus(otelcodes.Error, o.Status.Message())
		}
		span.End()
		l.OnComplete(o)
	}))
}
