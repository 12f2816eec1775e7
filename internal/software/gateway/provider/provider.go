// Package provider talks to the external geocoding and transit APIs.
package provider

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotFound means the provider answered but had no match.
	ErrNotFound = errors.New("provider: not found")
	// ErrUnavailable means the provider could not be reached or answered with a non-200 status.
	ErrUnavailable = errors.New("provider: unavailable")
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func trimBase(u string) string {
	return strings.TrimRight(u, "/")
}
