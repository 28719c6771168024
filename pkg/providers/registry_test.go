package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Translate(_ context.Context, req *Request) (*Response, error) {
	return &Response{Text: req.Text}, nil
}

func (s *stubProvider) GetName() string {
	return s.name
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("alpha", &stubProvider{name: "alpha"}))
	require.NoError(t, r.Register("beta", &stubProvider{name: "beta"}))

	err := r.Register("alpha", &stubProvider{name: "alpha"})
	assert.Error(t, err, "duplicate registration is rejected")

	p, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.GetName())

	_, err = r.Get("missing")
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{"alpha", "beta"}, r.List())

	r.Remove("alpha")
	_, err = r.Get("alpha")
	assert.Error(t, err)
}

func TestProviderErrorRetryable(t *testing.T) {
	assert.True(t, NewError("rate_limit", "too many requests").IsRetryable())
	assert.True(t, NewError("timeout", "deadline").IsRetryable())
	assert.False(t, NewError("invalid_request", "bad input").IsRetryable())
}
