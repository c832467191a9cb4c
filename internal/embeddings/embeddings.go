// Package embeddings provides a swappable interface for text embedding
// generation, with a deterministic fallback so callers never have to branch
// on provider availability.
package embeddings

import (
	"context"
)

// Dimensions is the embedding vector size (1536 = OpenAI text-embedding-3-small).
// The fallback provider emits the same dimensionality so stored vectors are
// shape-compatible regardless of which provider produced them.
const Dimensions = 1536

// Provider generates text embeddings.
type Provider interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name for logging.
	Name() string
}
