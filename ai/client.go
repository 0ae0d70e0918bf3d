package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/vecfill/core"
	"golang.org/x/time/rate"
)

// RetryState tracks the retry budget of a single Embed call. It only moves
// forward and is never shared between calls.
type RetryState struct {
	AttemptsRemaining int
	Delay             time.Duration
}

// next consumes one attempt and computes the delay of the following one.
func (s RetryState) next(multiplier float64, maxDelay time.Duration) RetryState {
	delay := s.Delay
	if multiplier > 1 {
		delay = time.Duration(float64(delay) * multiplier)
		if maxDelay > 0 && delay > maxDelay {
			delay = maxDelay
		}
	}
	return RetryState{AttemptsRemaining: s.AttemptsRemaining - 1, Delay: delay}
}

// Client wraps an Embedder with bounded retry on rate limits and a fixed
// pause after each successful call. It is safe for concurrent use if the
// underlying Embedder is.
type Client struct {
	embedder   Embedder
	maxRetries int
	delay      time.Duration
	multiplier float64
	maxDelay   time.Duration
	pacing     time.Duration
	limiter    *rate.Limiter // nil when calls are not capped
	logger     *slog.Logger
}

// NewClient creates a Client around embedder using the retry policy in config.
func NewClient(embedder Embedder, config *Config) (*Client, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return &Client{
		limiter:    limiter,
		embedder:   embedder,
		maxRetries: config.MaxRetries,
		delay:      config.RetryDelay,
		multiplier: config.RetryMultiplier,
		maxDelay:   config.MaxRetryDelay,
		pacing:     config.Pacing,
		logger:     slog.Default().With("component", "embedding-client"),
	}, nil
}

// Embed returns the embedding of text.
//
// Rate-limited calls are retried up to the configured number of times, with a
// pause before each retry. Every other failure returns at once. All failures
// are reported as *ProviderError; when the retries run out the error has
// Exhausted set and matches ErrRateLimited.
func (c *Client) Embed(ctx context.Context, text string) (core.Vector, error) {
	state := RetryState{AttemptsRemaining: c.maxRetries, Delay: c.delay}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vec, err := c.embedder.Embed(ctx, text)
		if err == nil {
			if len(vec) == 0 {
				return nil, &ProviderError{Err: ErrMalformedResponse}
			}
			if err := sleep(ctx, c.pacing); err != nil {
				return nil, err
			}
			return core.Vector(vec), nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		perr := AsProviderError(err)
		if !perr.Retryable() {
			return nil, perr
		}
		if state.AttemptsRemaining <= 0 {
			exhausted := *perr
			exhausted.Exhausted = true
			c.logger.Warn("rate limit retries exhausted", "maxRetries", c.maxRetries)
			return nil, &exhausted
		}

		c.logger.Debug("rate limited, retrying",
			"attemptsRemaining", state.AttemptsRemaining,
			"delay", state.Delay)

		if err := sleep(ctx, state.Delay); err != nil {
			return nil, err
		}
		state = state.next(c.multiplier, c.maxDelay)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
