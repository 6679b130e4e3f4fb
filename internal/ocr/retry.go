package ocr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// retryingRecognizer retries transient failures with exponential backoff.
// Blocked, empty and auth outcomes are final and surface immediately.
type retryingRecognizer struct {
	inner        Recognizer
	maxAttempts  int
	initialDelay time.Duration
}

// NewRetrying wraps a recognizer with a bounded retry policy.
func NewRetrying(
	inner Recognizer,
	maxAttempts int,
	initialDelay time.Duration,
) Recognizer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	return &retryingRecognizer{
		inner:        inner,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
	}
}

func (r *retryingRecognizer) Recognize(
	ctx context.Context,
	imagePath string,
) (string, error) {
	var lastErr error
	delay := r.initialDelay

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, err := r.inner.Recognize(ctx, imagePath)
		if err == nil {
			return text, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf(
		"failed after %d attempts: %w",
		r.maxAttempts,
		lastErr,
	)
}

// IsTransient reports whether a recognition failure is worth retrying.
// Per-attempt timeouts are transient; caller cancellation is not.
func IsTransient(err error) bool {
	switch {
	case errors.Is(err, ErrBlocked),
		errors.Is(err, ErrEmpty),
		errors.Is(err, ErrAuth),
		errors.Is(err, context.Canceled),
		errors.Is(err, fs.ErrNotExist):
		return false
	}
	return true
}
