package embeddings

import (
	"context"
)

// FallbackProvider generates deterministic pseudo-embeddings without any
// network dependency. It is not semantically meaningful: its job is to keep
// the pipeline producing shape-correct, reproducible vectors when no real
// provider is configured or reachable, so tests can assert on exact output.
type FallbackProvider struct{}

// NewFallbackProvider creates a new FallbackProvider.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

// Name returns the provider name.
func (p *FallbackProvider) Name() string {
	return "fallback"
}

// Embed folds each character code of text into position i mod Dimensions,
// then scales each accumulated sum into [0,1). The same text always yields
// the same vector, and any non-empty text yields a non-zero vector.
func (p *FallbackProvider) Embed(_ context.Context, text string) ([]float32, error) {
	acc := make([]int64, Dimensions)
	i := 0
	for _, r := range text {
		acc[i%Dimensions] += int64(r)
		i++
	}

	vec := make([]float32, Dimensions)
	for j, sum := range acc {
		if sum == 0 {
			continue
		}
		// x/(x+255) maps any positive sum into (0,1) monotonically.
		vec[j] = float32(float64(sum) / (float64(sum) + 255))
	}
	return vec, nil
}
