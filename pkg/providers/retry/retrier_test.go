package retry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func response(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func TestRetrierSucceedsAfterTransientFailures(t *testing.T) {
	r := New(fastConfig())
	attempts := 0

	resp, err := r.Do(context.Background(), func() (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return response(http.StatusServiceUnavailable), nil
		}
		return response(http.StatusOK), nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestRetrierDoesNotRetryClientErrors(t *testing.T) {
	r := New(fastConfig())
	attempts := 0

	resp, err := r.Do(context.Background(), func() (*http.Response, error) {
		attempts++
		return response(http.StatusBadRequest), nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, attempts, "4xx (except 429) is not transient")
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := New(fastConfig())
	attempts := 0

	resp, err := r.Do(context.Background(), func() (*http.Response, error) {
		attempts++
		return response(http.StatusTooManyRequests), nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 4, attempts, "initial attempt plus max retries")
}

func TestRetrierHonorsContextCancel(t *testing.T) {
	r := New(Config{
		MaxRetries:    10,
		InitialDelay:  time.Hour,
		MaxDelay:      time.Hour,
		BackoffFactor: 1.0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Do(ctx, func() (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
