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
	"fmt"
)

// CodeRateLimitExceeded is the provider error code that marks a transient
// rate-limit rejection.
const CodeRateLimitExceeded = "rate_limit_exceeded"

var (
	// ErrRateLimited is wrapped by a ProviderError whose payload carries the
	// rate-limit code. It is only surfaced once retries are exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates a success response without a usable embedding.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrEmbedderRequired is returned when a Client is created without an Embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)

// ProviderErrorPayload is the structured form of the provider's error body.
// Code is nil when the body carried no code at all.
type ProviderErrorPayload struct {
	Code    *string `json:"code"`
	Type    string  `json:"type"`
	Message string  `json:"message"`
}

// Retryable reports whether the payload classifies as a rate limit.
func (p ProviderErrorPayload) Retryable() bool {
	return p.Code != nil && *p.Code == CodeRateLimitExceeded
}

// ProviderError is returned for every failed embedding call: a non-success
// response, a malformed response, a transport failure or exhausted retries.
type ProviderError struct {
	// StatusCode is the HTTP status of the response, or 0 if none was received.
	StatusCode int

	// Payload is the parsed error body.
	Payload ProviderErrorPayload

	// Body is the raw response body as received.
	Body []byte

	// Exhausted is set when the call was still rate limited after the last retry.
	Exhausted bool

	// Err is the underlying cause, if any.
	Err error
}

// NewRateLimitError builds the error a provider returns for a rate-limited call.
func NewRateLimitError(statusCode int, body []byte) *ProviderError {
	code := CodeRateLimitExceeded
	return &ProviderError{
		StatusCode: statusCode,
		Payload:    ProviderErrorPayload{Code: &code},
		Body:       body,
	}
}

func (e *ProviderError) Error() string {
	msg := "failed to fetch embedding"
	if e.Exhausted {
		msg += " (retries exhausted)"
	}
	switch {
	case len(e.Body) > 0:
		return fmt.Sprintf("%s: %s", msg, e.Body)
	case e.Payload.Message != "":
		return fmt.Sprintf("%s: %s", msg, e.Payload.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

// Unwrap exposes the cause. Rate-limit errors unwrap to ErrRateLimited.
func (e *ProviderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Payload.Retryable() {
		return ErrRateLimited
	}
	return nil
}

// Retryable reports whether the error is a rate limit.
func (e *ProviderError) Retryable() bool {
	return e.Payload.Retryable()
}

// AsProviderError converts any error into a *ProviderError.
// Errors that are not already provider errors become non-retryable ones.
func AsProviderError(err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &ProviderError{Err: err}
}
