// Package clients contains the external data providers consumed by the
// research tools: Open-Meteo geocoding and forecasts, REST Countries, and the
// Travel Buddy visa API. Every lookup treats "nothing found" as a valid
// result (nil, nil), distinct from a transport failure.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	logx "github.com/nir-assistant/server/pkg/logger"
)

// Coordinates is a geocoded latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves free-text locations via the Open-Meteo geocoding API.
type Geocoder struct {
	baseURL string
	client  *http.Client
}

func NewGeocoder(baseURL string, timeout time.Duration) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Results []struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Country   string   `json:"country"`
	} `json:"results"`
}

func (g *Geocoder) search(ctx context.Context, location string) (*geocodeResponse, error) {
	q := url.Values{}
	q.Set("name", strings.TrimSpace(location))
	q.Set("count", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocoding request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding request: status %d", resp.StatusCode)
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	return &out, nil
}

// Coordinates returns the best-match coordinates for a location, or nil when
// the location cannot be resolved.
func (g *Geocoder) Coordinates(ctx context.Context, location string) (*Coordinates, error) {
	if strings.TrimSpace(location) == "" {
		return nil, nil
	}

	out, err := g.search(ctx, location)
	if err != nil {
		logx.Warn().Err(err).Str("location", location).Msg("geocoding lookup failed")
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}

	first := out.Results[0]
	if first.Latitude == nil || first.Longitude == nil {
		return nil, nil
	}
	return &Coordinates{Latitude: *first.Latitude, Longitude: *first.Longitude}, nil
}

// CountryOf returns the country name the location belongs to, or "" when the
// location cannot be resolved. Used to map cities onto country records.
func (g *Geocoder) CountryOf(ctx context.Context, location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", nil
	}

	out, err := g.search(ctx, location)
	if err != nil {
		logx.Warn().Err(err).Str("location", location).Msg("country resolution failed")
		return "", err
	}
	if len(out.Results) == 0 {
		return "", nil
	}
	return out.Results[0].Country, nil
}
