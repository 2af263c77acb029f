package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyClient struct {
	failures int32
	calls    int32
}

func (f *flakyClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *flakyClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= atomic.LoadInt32(&f.failures) {
		return "", errors.New("transient transport error")
	}
	return "ok", nil
}

func TestRetryingClientRecovers(t *testing.T) {
	inner := &flakyClient{failures: 2}
	c := NewRetryingClient(inner, 2, time.Millisecond, time.Second, nil)

	text, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
}

func TestRetryingClientExhausts(t *testing.T) {
	inner := &flakyClient{failures: 10}
	c := NewRetryingClient(inner, 2, time.Millisecond, time.Second, nil)

	_, err := c.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryingClientHonorsCancellation(t *testing.T) {
	inner := &flakyClient{failures: 10}
	c := NewRetryingClient(inner, 5, 50*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), "abacus", Options{APIKey: "k"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestOpenAICompatRequiresKey(t *testing.T) {
	_, err := NewOpenAICompatClient(Options{})
	assert.Error(t, err)
}
