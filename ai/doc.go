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


// Package ai provides the embedding client used by the backfill and the
// similarity query.
//
// The package defines the Embedder interface implemented by providers, and
// Client, which wraps a provider with the retry and pacing policy:
//
//   - Rate-limited calls (error code "rate_limit_exceeded") are retried up to
//     Config.MaxRetries times, sleeping Config.RetryDelay before each retry.
//   - Every other failure is returned immediately.
//   - Every successful call is followed by a Config.Pacing pause.
//
// Failures are always reported as *ProviderError, which keeps the status code,
// the parsed error payload and the raw body.
//
// # Implementation Packages
//
//   - ai/openai: the OpenAI embeddings API over plain HTTP
//   - ai/compat: OpenAI-compatible local servers (Ollama, LocalAI, vLLM)
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := ai.NewClient(provider, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := client.Embed(ctx, "Hello world")
package ai
