package xcall

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRetriesExhaustedError(t *testing.T) {
	last := status.New(codes.Unavailable, "backend down")
	var err error = &RetriesExhaustedError{Attempts: 4, Last: last}

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.NotErrorIs(t, err, ErrNonRetryable)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Contains(t, err.Error(), "exhausted retries after 4 failures")
	assert.Contains(t, err.Error(), "backend down")

	wrapped := fmt.Errorf("read rows: %w", err)
	var exhausted *RetriesExhaustedError
	assert.ErrorAs(t, wrapped, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, codes.Unavailable, status.Code(wrapped))
}

func TestNonRetryableError(t *testing.T) {
	var err error = &NonRetryableError{Status: status.New(codes.PermissionDenied, "no access")}

	assert.ErrorIs(t, err, ErrNonRetryable)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Contains(t, err.Error(), "PermissionDenied")
	assert.NotNil(t, errors.Unwrap(err))
}

func TestStatusText_Nil(t *testing.T) {
	err := &NonRetryableError{}
	assert.Contains(t, err.Error(), "OK")
	assert.NoError(t, err.Unwrap())
}
