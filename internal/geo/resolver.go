// Package geo maps postal codes to coordinates. Resolution favors
// availability over precision: a static table of local codes first, then an
// optional external geocoding call, then a fixed regional default.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Default is the fixed regional fallback (midtown Manhattan) returned when a
// postal code cannot be resolved any other way.
var Default = Coordinates{Latitude: 40.7580, Longitude: -73.9855}

// staticCodes covers the postal codes the app launched with. Kept small on
// purpose: anything else goes through the geocoder or the regional default.
var staticCodes = map[string]Coordinates{
	"10001": {40.7506, -73.9972},
	"10002": {40.7157, -73.9862},
	"10003": {40.7316, -73.9890},
	"10011": {40.7420, -74.0000},
	"10013": {40.7200, -74.0050},
	"10016": {40.7459, -73.9777},
	"10019": {40.7656, -73.9840},
	"10021": {40.7694, -73.9595},
	"10023": {40.7759, -73.9827},
	"11201": {40.6937, -73.9904},
	"11211": {40.7126, -73.9531},
	"11215": {40.6623, -73.9875},
	"11222": {40.7278, -73.9479},
}

// Resolver resolves postal codes. The external geocoding call is enabled by
// a non-empty API key; without one the static table and default are used.
type Resolver struct {
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// NewResolver creates a Resolver. apiKey may be empty.
func NewResolver(apiKey string, logger *slog.Logger) *Resolver {
	return &Resolver{
		apiKey: apiKey,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// Resolve returns coordinates for a postal code. It never fails: unknown or
// malformed codes and geocoder errors all fall through to Default.
func (r *Resolver) Resolve(ctx context.Context, postalCode string) Coordinates {
	code := strings.TrimSpace(postalCode)
	if code == "" {
		return Default
	}

	if c, ok := staticCodes[code]; ok {
		return c
	}

	if r.apiKey != "" {
		if c, err := r.geocode(ctx, code); err == nil {
			return c
		} else {
			r.logger.Warn("geocoding failed, using regional default", "postal_code", code, "error", err)
		}
	}

	return Default
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (r *Resolver) geocode(ctx context.Context, postalCode string) (Coordinates, error) {
	q := url.Values{}
	q.Set("components", "postal_code:"+postalCode)
	q.Set("key", r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://maps.googleapis.com/maps/api/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("calling geocoder: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, fmt.Errorf("reading response: %w", err)
	}

	var result geocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Coordinates{}, fmt.Errorf("parsing response: %w", err)
	}

	if result.Status != "OK" || len(result.Results) == 0 {
		return Coordinates{}, fmt.Errorf("geocoder status %q with %d results", result.Status, len(result.Results))
	}

	loc := result.Results[0].Geometry.Location
	return Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
