package embeddings

import (
	"context"
	"log/slog"
)

// Degrading wraps a real provider and substitutes the deterministic fallback
// on any failure. Callers see degraded output instead of errors: pipeline
// availability is preferred over embedding fidelity.
type Degrading struct {
	primary  Provider
	fallback *FallbackProvider
	logger   *slog.Logger
}

// NewDegrading wraps primary with fallback-on-error behavior. primary may be
// nil, in which case every call uses the fallback directly.
func NewDegrading(primary Provider, logger *slog.Logger) *Degrading {
	return &Degrading{
		primary:  primary,
		fallback: NewFallbackProvider(),
		logger:   logger,
	}
}

// Name returns the active provider's name.
func (d *Degrading) Name() string {
	if d.primary == nil {
		return d.fallback.Name()
	}
	return d.primary.Name()
}

// Embed tries the primary provider and falls back on error. The returned
// error is always nil.
func (d *Degrading) Embed(ctx context.Context, text string) ([]float32, error) {
	if d.primary != nil {
		vec, err := d.primary.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		d.logger.Warn("embedding provider failed, using fallback",
			"provider", d.primary.Name(), "error", err)
	}
	return d.fallback.Embed(ctx, text)
}
