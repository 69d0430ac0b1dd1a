package llm

import (
	"context"
	"log/slog"
	"math"
	"time"
)

const (
	DefaultMaxRetries = 1
	DefaultRetryWait  = 500 * time.Millisecond
)

type retryingClient struct {
	next       Client
	maxRetries int
	baseWait   time.Duration
	logger     *slog.Logger
}

// WithRetry wraps client so transient invocation errors are retried up to
// maxRetries times with exponential backoff. Any other error, including a
// successful call that returns unusable text, is returned as is.
func WithRetry(client Client, maxRetries int, baseWait time.Duration, logger *slog.Logger) Client {
	if maxRetries <= 0 {
		return client
	}
	if baseWait <= 0 {
		baseWait = DefaultRetryWait
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &retryingClient{next: client, maxRetries: maxRetries, baseWait: baseWait, logger: logger}
}

func (c *retryingClient) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(float64(c.baseWait) * math.Pow(2, float64(attempt-1)))
			c.logger.Warn("retrying model call", "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		text, err := c.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}
