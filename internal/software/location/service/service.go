package service

import (
	"context"
	"fmt"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/stagestate"
	"nearest-departures/internal/ports"
)

// Model is what the geocoding stage keeps for one traversal.
type Model struct {
	Address     contracts.Address
	Coordinates *contracts.Coordinates
}

type locationService struct {
	logger   *logger.Logger
	store    *stagestate.Store[Model]
	geocoder ports.Geocoder
	transit  ports.CoordinatesSender
}

// NewLocationService wires the geocoding stage.
func NewLocationService(
	logger *logger.Logger,
	store *stagestate.Store[Model],
	geocoder ports.Geocoder,
	transit ports.CoordinatesSender,
) ports.LocationController {
	return &locationService{logger: logger, store: store, geocoder: geocoder, transit: transit}
}

// Resolve geocodes addr and hands the coordinates to the transit stage. A
// failed lookup ends the traversal here.
func (s *locationService) Resolve(ctx context.Context, env contracts.Envelope, addr contracts.Address) error {
	s.logger.Info(ctx, "location_address_received", "Locationhandler received address", map[string]any{
		"street":       addr.Street,
		"house_number": addr.HouseNumber,
		"city":         addr.City,
	})

	s.store.Update(env.CorrelationID, func(m *Model) { m.Address = addr })

	coords, err := s.geocoder.Geocode(ctx, env, addr)
	if err != nil {
		s.store.Complete(env.CorrelationID)
		return fmt.Errorf("geocoding %s %s: %w", addr.Street, addr.HouseNumber, err)
	}

	s.logger.Info(ctx, "location_geocoded", "Geocoding successful", map[string]any{
		"latitude":  coords.Latitude,
		"longitude": coords.Longitude,
	})
	s.store.Update(env.CorrelationID, func(m *Model) { m.Coordinates = &coords })

	s.transit.SubmitCoordinates(ctx, env, coords)
	s.store.Complete(env.CorrelationID)
	return nil
}
