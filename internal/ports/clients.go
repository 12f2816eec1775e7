package ports

import (
	"context"
	"time"

	"nearest-departures/internal/general/contracts"
)

// ----- Forwarding clients (fire-and-forget, outcome only logged) -----

// AddressTextSender starts a traversal at the display stage.
type AddressTextSender interface {
	SubmitAddressText(ctx context.Context, env contracts.Envelope, text string)
}

// AddressSender hands a parsed address to the location stage.
type AddressSender interface {
	SubmitAddress(ctx context.Context, env contracts.Envelope, addr contracts.Address)
}

// CoordinatesSender hands coordinates to the transit stage.
type CoordinatesSender interface {
	SubmitCoordinates(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates)
}

// DeparturesSender hands the final stations to the display stage.
type DeparturesSender interface {
	ShowDepartures(ctx context.Context, env contracts.Envelope, stations []contracts.Station, fetchedAt *time.Time)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- Provider clients (request/response through the gateway) -----

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, env contracts.Envelope, addr contracts.Address) (contracts.Coordinates, error)
}

// StationFinder looks up nearby stations and their departures.
type StationFinder interface {
	NearbyStations(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates, maxStations int) ([]contracts.Station, error)
	DeparturesForStations(ctx context.Context, env contracts.Envelope, stations []contracts.Station) ([]contracts.Station, *time.Time, error)
}
