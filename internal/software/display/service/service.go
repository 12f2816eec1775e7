package service

import (
	"context"
	"errors"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/stagestate"
	"nearest-departures/internal/ports"
)

// ErrNoStations is returned when departures arrive without a station list.
var ErrNoStations = errors.New("departures cannot be null")

// Model is what the display stage keeps for one traversal.
type Model struct {
	Address    *contracts.Address
	Stations   []contracts.Station
	FetchedAt  *time.Time
	HasResults bool
	Envelope   contracts.Envelope
}

// BoardPublisher pushes board events to live viewers.
type BoardPublisher interface {
	Broadcast(ctx context.Context, v any) error
}

type displayService struct {
	logger   *logger.Logger
	store    *stagestate.Store[Model]
	location ports.AddressSender
	view     *View
	board    BoardPublisher
}

// NewDisplayService wires the display stage. board may be nil.
func NewDisplayService(
	logger *logger.Logger,
	store *stagestate.Store[Model],
	location ports.AddressSender,
	view *View,
	board BoardPublisher,
) ports.DisplayController {
	return &displayService{
		logger:   logger,
		store:    store,
		location: location,
		view:     view,
		board:    board,
	}
}

// UserPassLocation saves the address, hands it to the location stage and
// shows the loading notice.
func (s *displayService) UserPassLocation(ctx context.Context, env contracts.Envelope, addr contracts.Address) error {
	s.logger.Info(ctx, "display_address_received", "DisplayManager received address",
		map[string]any{"street": addr.Street, "house_number": addr.HouseNumber})

	rec := s.store.Update(env.CorrelationID, func(m *Model) {
		m.Address = &addr
		m.Envelope = env
	})
	s.logger.Debug(ctx, "display_address_saved", "Address saved - processing...", nil)

	s.location.SubmitAddress(ctx, env, addr)

	s.view.ShowLoading(addr)
	s.publish(ctx, boardEvent(rec))
	return nil
}

// DisplayDepartures saves the stations and renders them. An empty list renders
// the "no departures" board.
func (s *displayService) DisplayDepartures(ctx context.Context, env contracts.Envelope, stations []contracts.Station, fetchedAt *time.Time) error {
	if stations == nil {
		return ErrNoStations
	}
	s.logger.Info(ctx, "display_departures_received", "DisplayManager received departures",
		map[string]any{"stations": len(stations)})

	rec := s.store.Update(env.CorrelationID, func(m *Model) {
		m.Stations = stations
		m.FetchedAt = fetchedAt
		m.HasResults = true
		m.Envelope = env
	})
	s.logger.Debug(ctx, "display_departures_saved", "Departures received - displaying...", nil)

	s.view.ShowDepartures(stations, fetchedAt)
	s.publish(ctx, boardEvent(rec))

	s.store.Complete(env.CorrelationID)
	return nil
}

// Board returns the event for the most recent traversal.
func (s *displayService) Board() (contracts.BoardEvent, bool) {
	rec, ok := s.store.Latest()
	if !ok {
		return contracts.BoardEvent{}, false
	}
	return boardEvent(rec), true
}

func (s *displayService) publish(ctx context.Context, ev contracts.BoardEvent) {
	if s.board == nil {
		return
	}
	if err := s.board.Broadcast(ctx, ev); err != nil {
		s.logger.Warn(ctx, "display_broadcast_failed", "Failed to push board to viewers", err, nil)
	}
}

func boardEvent(rec Model) contracts.BoardEvent {
	ev := contracts.BoardEvent{
		Type:     contracts.BoardEventLoading,
		Address:  rec.Address,
		Envelope: rec.Envelope,
	}
	if rec.HasResults {
		ev.Type = contracts.BoardEventUpdate
		ev.Stations = rec.Stations
		ev.FetchedAt = rec.FetchedAt
	}
	return ev
}
