package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_SuccessAfterRetry(t *testing.T) {
	var attempts int
	err := Do(context.Background(), NewNoBackoff(5), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("not ready")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_Exhausted(t *testing.T) {
	var attempts int
	err := Do(context.Background(), NewNoBackoff(3), func(context.Context) error {
		attempts++
		return errors.New("down")
	})

	assert.ErrorContains(t, err, "down")
	assert.Equal(t, 3, attempts)
}

func TestDo_Unrecoverable(t *testing.T) {
	var attempts int
	err := Do(context.Background(), NewNoBackoff(5), func(context.Context) error {
		attempts++
		return Unrecoverable(errors.New("bad request"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_UsesPolicyDelay(t *testing.T) {
	var attempts int
	start := time.Now()
	err := Do(context.Background(), NewFixedBackoff(30*time.Millisecond, 3), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("retry")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Do(ctx, NewFixedBackoff(time.Second, 0), func(context.Context) error {
		return errors.New("down")
	})
	assert.Error(t, err)
}

func TestDo_NilArgs(t *testing.T) {
	assert.ErrorIs(t, Do(context.Background(), nil, nil), ErrNilFunc)

	//nolint:staticcheck // 验证 nil ctx 的兜底处理
	err := Do(nil, nil, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestDo_OnRetry(t *testing.T) {
	var calls []uint
	var attempts int
	err := Do(context.Background(), NewNoBackoff(3), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("retry")
		}
		return nil
	}, OnRetry(func(n uint, _ error) {
		calls = append(calls, n)
	}))

	assert.NoError(t, err)
	assert.NotEmpty(t, calls)
}
