// Package compat implements ai.Embedder for OpenAI-compatible embedding
// servers through langchaingo.
//
// Use it for local runs against Ollama, LocalAI or vLLM:
//
//	config := ai.NewConfig(
//	    ai.WithBaseURL("http://localhost:11434"), // /v1 added automatically
//	    ai.WithModel("nomic-embed-text"),
//	)
//	embedder, err := compat.NewEmbedder(config)
//
// Failures from this provider are never retried by ai.Client.
package compat
