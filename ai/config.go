// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the embedding model the table was backfilled with.
	DefaultModel = "text-embedding-ada-002"

	// DefaultMaxRetries bounds the retries on rate-limit responses.
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the pause before each retry.
	DefaultRetryDelay = 20 * time.Millisecond

	// DefaultPacing is the pause after every successful call.
	DefaultPacing = 20 * time.Millisecond
)

// Config holds configuration for the embedding provider and the retry policy
// wrapped around it.
type Config struct {
	// BaseURL is the root of the embedding API, ending in /v1.
	// Example: "https://api.openai.com/v1", "http://localhost:11434/v1"
	BaseURL string

	// APIKey is sent as a bearer credential. Local OpenAI-compatible servers
	// usually accept any value.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// MaxRetries is the number of retries after a rate-limited call.
	// Zero disables retrying.
	MaxRetries int

	// RetryDelay is the delay before the first retry.
	RetryDelay time.Duration

	// RetryMultiplier scales the delay after each retry. 1 keeps it constant.
	RetryMultiplier float64

	// MaxRetryDelay caps the delay when RetryMultiplier > 1. Zero means no cap.
	MaxRetryDelay time.Duration

	// Pacing is slept after every successful call to stay under the
	// provider's rate limit.
	Pacing time.Duration

	// Timeout bounds a single HTTP request. Zero means no timeout.
	Timeout time.Duration

	// RequestsPerSecond caps how often the provider is called, retries
	// included, across everything sharing one Client. Zero means no cap.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBaseURL sets the embedding API root.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithAPIKey sets the bearer credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithMaxRetries sets the number of retries on rate-limit responses.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetryDelay sets the delay before the first retry.
func WithRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithBackoff switches from constant retry delays to exponential ones,
// multiplying the delay by multiplier after each retry up to maxDelay.
func WithBackoff(multiplier float64, maxDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryMultiplier = multiplier
		c.MaxRetryDelay = maxDelay
	}
}

// WithRequestsPerSecond caps the call rate of a Client. Zero removes the cap.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// WithPacing sets the pause after every successful call.
func WithPacing(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Pacing = d
	}
}

// WithTimeout bounds a single HTTP request.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config for the OpenAI embeddings API with the
// retry policy the backfill was tuned for: five constant 20ms retries and a
// 20ms pause after each success.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Model:           DefaultModel,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		RetryMultiplier: 1,
		Pacing:          DefaultPacing,
		Timeout:         60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithBackoff(2, time.Second),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// The base URL loses any trailing slash and gains a /v1 suffix if missing.
func (c *Config) Normalize() {
	if c.BaseURL != "" {
		c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
		if !strings.HasSuffix(c.BaseURL, "/v1") {
			c.BaseURL = c.BaseURL + "/v1"
		}
	}
	if c.RetryMultiplier == 0 {
		c.RetryMultiplier = 1
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.BaseURL == "" {
		return errors.New("ai config: BaseURL is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.MaxRetries < 0 {
		return errors.New("ai config: MaxRetries cannot be negative")
	}
	if c.RetryDelay < 0 || c.Pacing < 0 || c.MaxRetryDelay < 0 || c.Timeout < 0 {
		return errors.New("ai config: durations cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	if c.RetryMultiplier < 1 {
		return errors.New("ai config: RetryMultiplier must be at least 1")
	}
	return nil
}
