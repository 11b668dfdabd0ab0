package xcall

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/omeyang/xcall/pkg/resilience/xretry"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

type (
	healthReq  = *healthpb.HealthCheckRequest
	healthResp = *healthpb.HealthCheckResponse
)

// flakyServer 前 failFirst 次调用返回 Unavailable 并写入 channel id trailer
type flakyServer struct {
	failFirst int32
	calls     atomic.Int32
	block     bool

	mu  sync.Mutex
	mds []metadata.MD
}

func (s *flakyServer) intercept(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	n := s.calls.Add(1)
	md, _ := metadata.FromIncomingContext(ctx)
	s.mu.Lock()
	s.mds = append(s.mds, md)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, status.FromContextError(ctx.Err()).Err()
	}
	if n <= s.failFirst {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(DefaultChannelIDKey, "9"))
		return nil, status.Error(codes.Unavailable, "warming up")
	}
	return handler(ctx, req)
}

func newHealthConn(t *testing.T, srv *flakyServer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(srv.intercept))
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	go func() { _ = s.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
		hs.Shutdown()
	})
	return conn
}

func newHealthExecutor(conn grpc.ClientConnInterface) *UnaryExecutor[healthReq, healthResp] {
	return NewUnaryExecutor[healthReq, healthResp](conn, healthCheckMethod,
		func() healthResp { return new(healthpb.HealthCheckResponse) })
}

func TestUnaryExecutor_RetriesUntilServing(t *testing.T) {
	srv := &flakyServer{failFirst: 2}
	exec := newHealthExecutor(newHealthConn(t, srv))
	assert.Equal(t, healthCheckMethod, exec.Method())

	m := &countingMetrics{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := Call[healthReq, healthResp](ctx, exec, &healthpb.HealthCheckRequest{},
		WithIdempotent(true),
		WithRetryOptions(NewRetryOptions(WithBackoffPolicy(xretry.NewFixedBackoff(time.Millisecond, 5)))),
		WithMetadata(metadata.Pairs("x-request-id", "r-1")),
		WithMetrics(m),
		quietLogger(),
	)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	assert.Equal(t, int32(3), srv.calls.Load())
	assert.Equal(t, int32(2), m.retries.Load())

	srv.mu.Lock()
	defer srv.mu.Unlock()
	for _, md := range srv.mds {
		assert.Equal(t, []string{"r-1"}, md.Get("x-request-id"))
	}
}

func TestUnaryExecutor_MergesOutgoingMetadata(t *testing.T) {
	srv := &flakyServer{}
	exec := newHealthExecutor(newHealthConn(t, srv))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-tenant", "t1")
	_, err := Call[healthReq, healthResp](ctx, exec, &healthpb.HealthCheckRequest{},
		WithMetadata(metadata.Pairs("x-request-id", "r-2")), quietLogger())
	require.NoError(t, err)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.mds, 1)
	assert.Equal(t, []string{"t1"}, srv.mds[0].Get("x-tenant"))
	assert.Equal(t, []string{"r-2"}, srv.mds[0].Get("x-request-id"))
}

func TestUnaryExecutor_TrailerAndStatus(t *testing.T) {
	srv := &flakyServer{failFirst: 1}
	exec := newHealthExecutor(newHealthConn(t, srv))

	done := make(chan Outcome[healthResp], 1)
	h := exec.Start(context.Background(), &healthpb.HealthCheckRequest{}, nil,
		ListenerFunc[healthResp](func(o Outcome[healthResp]) { done <- o }))
	require.NotNil(t, h)

	select {
	case o := <-done:
		assert.Equal(t, codes.Unavailable, o.Status.Code())
		assert.Equal(t, []string{"9"}, o.Trailer.Get(DefaultChannelIDKey))
		assert.Nil(t, o.Response)
	case <-time.After(5 * time.Second):
		t.Fatal("attempt did not complete")
	}
}

func TestUnaryExecutor_CancelSurfacesAsCanceled(t *testing.T) {
	srv := &flakyServer{block: true}
	exec := newHealthExecutor(newHealthConn(t, srv))

	c, err := NewCoordinator[healthReq, healthResp](exec, &healthpb.HealthCheckRequest{}, WithIdempotent(true), quietLogger())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool { return srv.calls.Load() == 1 }, 5*time.Second, time.Millisecond)
	c.Cancel()

	r := await(t, c.Completion())
	assert.Equal(t, ResultCancelled, r.Kind)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestCall_ContextDeadline(t *testing.T) {
	srv := &flakyServer{block: true}
	exec := newHealthExecutor(newHealthConn(t, srv))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Call[healthReq, healthResp](ctx, exec, &healthpb.HealthCheckRequest{}, WithIdempotent(true), quietLogger())
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCall_NilExecutor(t *testing.T) {
	_, err := Call[string, string](context.Background(), nil, "req")
	assert.ErrorIs(t, err, ErrNilExecutor)
}
