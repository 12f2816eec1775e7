package service

import (
	"context"
	"fmt"
	"time"

	"nearest-departures/internal/domain/station"
	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/stagestate"
	"nearest-departures/internal/ports"
)

// Model is what the transit stage keeps for one traversal.
type Model struct {
	Coordinates contracts.Coordinates
	Stations    []contracts.Station
}

type transitService struct {
	logger     *logger.Logger
	store      *stagestate.Store[Model]
	finder     ports.StationFinder
	display    ports.DeparturesSender
	candidates int
	top        int
}

// NewTransitService wires the transit stage. candidates caps the nearby
// station search, top is how many of the closest stations get departures.
func NewTransitService(
	logger *logger.Logger,
	store *stagestate.Store[Model],
	finder ports.StationFinder,
	display ports.DeparturesSender,
	candidates, top int,
) ports.TransitController {
	return &transitService{
		logger:     logger,
		store:      store,
		finder:     finder,
		display:    display,
		candidates: candidates,
		top:        top,
	}
}

// Resolve looks up departures near coords and hands them to the display stage.
// When a lookup fails the display still gets an empty list.
func (s *transitService) Resolve(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates) error {
	s.logger.Info(ctx, "transit_coordinates_received", "Transportplan received coordinates",
		map[string]any{"latitude": coords.Latitude, "longitude": coords.Longitude})

	s.store.Update(env.CorrelationID, func(m *Model) { m.Coordinates = coords })
	defer s.store.Complete(env.CorrelationID)

	stations, fetchedAt, err := s.lookup(ctx, env, coords)
	if err != nil {
		s.logger.Error(ctx, "transit_lookup_failed", "Failed to fetch departures", err,
			map[string]any{"code": errstatus.CodeOf(err).String()})
		now := time.Now().UTC()
		s.display.ShowDepartures(ctx, env, []contracts.Station{}, &now)
		return nil
	}

	s.store.Update(env.CorrelationID, func(m *Model) { m.Stations = stations })
	s.display.ShowDepartures(ctx, env, stations, fetchedAt)
	return nil
}

func (s *transitService) lookup(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates) ([]contracts.Station, *time.Time, error) {
	nearby, err := s.finder.NearbyStations(ctx, env, coords, s.candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("nearby stations: %w", err)
	}
	s.logger.Info(ctx, "transit_stations_found", "Provider returned nearby stations",
		map[string]any{"stations": len(nearby)})

	closest := station.Rank(nearby, s.top)
	if len(closest) == 0 {
		now := time.Now().UTC()
		return []contracts.Station{}, &now, nil
	}

	withDepartures, fetchedAt, err := s.finder.DeparturesForStations(ctx, env, closest)
	if err != nil {
		return nil, nil, fmt.Errorf("departures for %v: %w", station.IDs(closest), err)
	}
	if withDepartures == nil {
		withDepartures = []contracts.Station{}
	}
	return withDepartures, fetchedAt, nil
}
