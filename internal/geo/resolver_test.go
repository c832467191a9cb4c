package geo

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve_StaticTable(t *testing.T) {
	r := NewResolver("", testLogger())
	c := r.Resolve(context.Background(), "10001")
	if c.Latitude != 40.7506 || c.Longitude != -73.9972 {
		t.Errorf("Resolve(10001) = %+v, want static table entry", c)
	}
}

func TestResolve_UnknownCodeWithoutKey(t *testing.T) {
	r := NewResolver("", testLogger())
	// No API key: unknown codes must fall straight through to the default
	// without any network call.
	for _, code := range []string{"99999", "not-a-zip", "", "   "} {
		if c := r.Resolve(context.Background(), code); c != Default {
			t.Errorf("Resolve(%q) = %+v, want Default", code, c)
		}
	}
}

func TestResolve_TrimsWhitespace(t *testing.T) {
	r := NewResolver("", testLogger())
	if c := r.Resolve(context.Background(), " 11211 "); c != staticCodes["11211"] {
		t.Errorf("Resolve with whitespace = %+v, want static entry", c)
	}
}
