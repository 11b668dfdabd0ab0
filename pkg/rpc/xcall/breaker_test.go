package xcall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xcall/pkg/resilience/xbreaker"
	"github.com/omeyang/xcall/pkg/resilience/xretry"
)

func TestBreakerExecutor_OpensAndRejects(t *testing.T) {
	b := xbreaker.NewBreaker("backend", xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(2)))
	inner := newScripted(codes.Unavailable)
	exec := NewBreakerExecutor[string, string](inner, b)

	m := &countingMetrics{}
	c, err := NewCoordinator[string, string](exec, "req",
		WithIdempotent(true),
		WithRetryOptions(retryOpts(xretry.NewNoBackoff(4))),
		WithMetrics(m),
		quietLogger(),
	)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	r := await(t, c.Completion())
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, r.Err, &exhausted)

	// 前两次到达后端，之后熔断器打开，剩余尝试在本地以 Unavailable 完成
	assert.Equal(t, 2, inner.Starts())
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, codes.Unavailable, exhausted.Last.Code())
	assert.Contains(t, exhausted.Last.Message(), "circuit breaker is open")
	assert.Equal(t, xbreaker.StateOpen, b.State())
}

func TestBreakerExecutor_NonFailureCodes(t *testing.T) {
	b := xbreaker.NewBreaker("backend", xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(1)))
	inner := newScripted(codes.NotFound)
	exec := NewBreakerExecutor[string, string](inner, b)

	for range 3 {
		_, err := Call[string, string](context.Background(), exec, "req", quietLogger())
		assert.Equal(t, codes.NotFound, status.Code(err))
	}
	assert.Equal(t, 3, inner.Starts())
	assert.Equal(t, xbreaker.StateClosed, b.State())
}

func TestBreakerExecutor_CustomFailureCodes(t *testing.T) {
	b := xbreaker.NewBreaker("backend", xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(1)))
	inner := newScripted(codes.NotFound)
	exec := NewBreakerExecutor[string, string](inner, b, WithBreakerFailureCodes(codes.NotFound), nil)

	_, err := Call[string, string](context.Background(), exec, "req", quietLogger())
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, xbreaker.StateOpen, b.State())

	_, err = Call[string, string](context.Background(), exec, "req", quietLogger())
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, 1, inner.Starts())
}

func TestBreakerExecutor_SuccessResetsConsecutiveFailures(t *testing.T) {
	b := xbreaker.NewBreaker("backend", xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(2)))
	inner := newScripted(codes.Unavailable, codes.OK, codes.Unavailable)
	exec := NewBreakerExecutor[string, string](inner, b)

	// 非幂等请求不重试，每次 Call 恰好一次尝试
	_, err := Call[string, string](context.Background(), exec, "req", quietLogger())
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)

	resp, err := Call[string, string](context.Background(), exec, "req", quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, uint32(0), b.Counts().ConsecutiveFailures)
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)

	_, err = Call[string, string](context.Background(), exec, "req", quietLogger())
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, xbreaker.StateClosed, b.State())
	assert.Equal(t, 3, inner.Starts())
}
