// Package llm wraps the model providers behind a small client interface.
// Every agent interaction in the experiment flows through a Client; the
// experiment packages never talk to a provider SDK directly.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Client is the minimal language capability the experiment consumes.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures a provider client.
type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	Timeout         time.Duration
	MaxOutputTokens int
}

// ErrEmptyResponse is returned when a provider answers with no usable text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// RetryingClient wraps a Client with per-call timeout and bounded retries
// with exponential backoff. Transport failures and timeouts are retried;
// context cancellation is not.
type RetryingClient struct {
	inner    Client
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRetryingClient builds the retry wrapper. attempts counts retries after
// the first try; backoff doubles per retry.
func NewRetryingClient(inner Client, attempts int, backoff, timeout time.Duration, logger *zap.Logger) *RetryingClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingClient{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		timeout:  timeout,
		logger:   logger,
	}
}

// Complete implements Client.
func (c *RetryingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements Client.
func (c *RetryingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	delay := c.backoff

	for attempt := 0; attempt <= c.attempts; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying model call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		text, err := c.inner.CompleteWithSystem(callCtx, systemPrompt, userPrompt)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return text, nil
		}
		lastErr = err

		// The parent context being done means the experiment is shutting
		// down, not that the provider hiccuped.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", c.attempts+1, lastErr)
}
