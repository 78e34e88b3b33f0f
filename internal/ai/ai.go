package ai

import "context"

// Package ai abstracts the language-model provider. Services depend on
// these interfaces so tests never touch the network.

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates an answer from a system prompt and user message.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Client is the full provider surface the service layer wires in.
type Client interface {
	Embedder
	Completer
}
