package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nearest-departures/internal/general/contracts"
)

// Nominatim geocodes addresses with the OpenStreetMap search API.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatim creates a Nominatim client.
func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		baseURL:   trimBase(baseURL),
		userAgent: userAgent,
		client:    newHTTPClient(timeout),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// SearchQuery renders "street no[, city][, country]".
func SearchQuery(addr contracts.Address) string {
	var b strings.Builder
	b.WriteString(addr.Street)
	b.WriteString(" ")
	b.WriteString(addr.HouseNumber)
	if addr.City != "" {
		b.WriteString(", ")
		b.WriteString(addr.City)
	}
	if addr.Country != "" {
		b.WriteString(", ")
		b.WriteString(addr.Country)
	}
	return b.String()
}

// Geocode returns the coordinates of the best match for addr, or ErrNotFound.
func (n *Nominatim) Geocode(ctx context.Context, addr contracts.Address) (contracts.Coordinates, error) {
	query := SearchQuery(addr)

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return contracts.Coordinates{}, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return contracts.Coordinates{}, fmt.Errorf("nominatim: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return contracts.Coordinates{}, fmt.Errorf("nominatim: %w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return contracts.Coordinates{}, fmt.Errorf("nominatim: parsing response: %w", err)
	}
	if len(results) == 0 {
		return contracts.Coordinates{}, fmt.Errorf("nominatim: %w: %s", ErrNotFound, query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return contracts.Coordinates{}, fmt.Errorf("nominatim: bad lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return contracts.Coordinates{}, fmt.Errorf("nominatim: bad lon %q: %w", results[0].Lon, err)
	}
	return contracts.Coordinates{Latitude: lat, Longitude: lon}, nil
}
