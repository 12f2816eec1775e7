package ports

import (
	"context"
	"time"

	"nearest-departures/internal/general/contracts"
)

// ----- Stage controllers -----
// Controllers run after the ingress has acknowledged; their errors are only logged.

// DisplayController is the display stage: it starts a traversal from user text
// and renders the departures that come back.
type DisplayController interface {
	UserPassLocation(ctx context.Context, env contracts.Envelope, addr contracts.Address) error
	DisplayDepartures(ctx context.Context, env contracts.Envelope, stations []contracts.Station, fetchedAt *time.Time) error
	Board() (contracts.BoardEvent, bool)
}

// LocationController is the geocoding stage.
type LocationController interface {
	Resolve(ctx context.Context, env contracts.Envelope, addr contracts.Address) error
}

// TransitController is the transit lookup stage.
type TransitController interface {
	Resolve(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates) error
}

// ---------------------------------------------------------------------------------------------------------------

// ----- Gateway -----

// ProviderService fronts the external providers for the other stages.
type ProviderService interface {
	Geocode(ctx context.Context, addr contracts.Address) (*contracts.GeocodeResponse, error)
	NearbyStations(ctx context.Context, coords contracts.Coordinates, maxStations int) (*contracts.StationsResponse, error)
	DeparturesForStations(ctx context.Context, stations []contracts.Station) (*contracts.StationsResponse, error)
	LastInteraction() (time.Time, bool)
}

// GeocodingProvider resolves addresses (Nominatim).
type GeocodingProvider interface {
	Geocode(ctx context.Context, addr contracts.Address) (contracts.Coordinates, error)
}

// TransitProvider finds stations and their departures (Geofox).
type TransitProvider interface {
	NearbyStations(ctx context.Context, coords contracts.Coordinates, maxStations int) ([]contracts.Station, error)
	Departures(ctx context.Context, stations []contracts.Station) ([]contracts.Station, error)
}
