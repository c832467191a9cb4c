package embeddings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestFallback_Deterministic(t *testing.T) {
	p := NewFallbackProvider()
	ctx := context.Background()

	v1, err := p.Embed(ctx, "sushi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, _ := p.Embed(ctx, "sushi")

	if len(v1) != Dimensions {
		t.Fatalf("len = %d, want %d", len(v1), Dimensions)
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestFallback_NonEmptyTextIsNonZero(t *testing.T) {
	p := NewFallbackProvider()
	vec, _ := p.Embed(context.Background(), "sushi")

	nonZero := false
	for _, v := range vec {
		if v != 0 {
			nonZero = true
		}
		if v < 0 || v >= 1 {
			t.Fatalf("component %v outside [0,1)", v)
		}
	}
	if !nonZero {
		t.Error("non-empty text produced the all-zero vector")
	}
}

func TestFallback_EmptyTextIsZeroVector(t *testing.T) {
	p := NewFallbackProvider()
	vec, _ := p.Embed(context.Background(), "")
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("position %d = %v, want 0", i, v)
		}
	}
}

func TestFallback_DifferentTextsDiffer(t *testing.T) {
	p := NewFallbackProvider()
	ctx := context.Background()
	v1, _ := p.Embed(ctx, "italian food")
	v2, _ := p.Embed(ctx, "quantum physics")

	same := true
	for i := range v1 {
		if v1[i] != v2[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical vectors")
	}
}

type failingProvider struct{}

func (failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("connection refused")
}
func (failingProvider) Name() string { return "failing" }

func TestDegrading_FallsBackOnError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDegrading(failingProvider{}, logger)

	vec, err := d.Embed(context.Background(), "sushi")
	if err != nil {
		t.Fatalf("Degrading must never return an error, got %v", err)
	}

	want, _ := NewFallbackProvider().Embed(context.Background(), "sushi")
	for i := range want {
		if vec[i] != want[i] {
			t.Fatalf("degraded vector differs from fallback at %d", i)
		}
	}
}

func TestDegrading_NilPrimary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDegrading(nil, logger)
	if d.Name() != "fallback" {
		t.Errorf("Name() = %q, want fallback", d.Name())
	}
	if _, err := d.Embed(context.Background(), "anything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
