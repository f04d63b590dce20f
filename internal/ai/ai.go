// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai provides the generative AI backend used for test case
// generation and compliance analysis.
package ai

import (
	"context"
	"fmt"
	"math"
	"time"
)

// GenerateOptions controls a single generation call.
type GenerateOptions struct {
	// Temperature controls sampling randomness, in [0, 1].
	Temperature float64

	// MaxTokens caps the response length.
	MaxTokens int
}

// Backend abstracts the Generative AI API so tests can supply a mock.
type Backend interface {
	GenerateContent(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// RetryBaseDelay is the base duration for exponential backoff between
// attempts. Tests override it to avoid real sleeps.
var RetryBaseDelay = time.Second

// Generate calls the backend with exponential backoff between attempts.
func Generate(ctx context.Context, backend Backend, prompt string, opts GenerateOptions, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := backend.GenerateContent(ctx, prompt, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
