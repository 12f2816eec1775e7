package service

import (
	"context"
	"errors"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/ratelimit"
	"nearest-departures/internal/ports"
	"nearest-departures/internal/software/gateway/provider"
)

const (
	defaultMaxStations = 10

	providerNominatim = "nominatim"
	providerGeofox    = "geofox"
)

// Interaction reports when a provider last answered.
type Interaction interface {
	LastInteraction() (time.Time, bool)
}

// gatewayService fronts Nominatim and Geofox for the pipeline stages.
type gatewayService struct {
	logger    *logger.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	geocoder  ports.GeocodingProvider
	transit   ports.TransitProvider
	status    Interaction
	now       func() time.Time
	maxPerReq int
}

// NewGatewayService wires the provider proxy. limiter may be nil.
func NewGatewayService(
	logger *logger.Logger,
	m *metrics.Metrics,
	limiter *ratelimit.Limiter,
	geocoder ports.GeocodingProvider,
	transit ports.TransitProvider,
	status Interaction,
) ports.ProviderService {
	return &gatewayService{
		logger:    logger,
		metrics:   m,
		limiter:   limiter,
		geocoder:  geocoder,
		transit:   transit,
		status:    status,
		now:       time.Now,
		maxPerReq: defaultMaxStations,
	}
}

func (s *gatewayService) LastInteraction() (time.Time, bool) {
	if s.status == nil {
		return time.Time{}, false
	}
	return s.status.LastInteraction()
}

// admit consumes a token for the provider or returns RATE_LIMITED.
func (s *gatewayService) admit(providerName string) error {
	if s.limiter.Allow(providerName, s.now()) {
		return nil
	}
	s.metrics.Provider(providerName, metrics.OutcomeLimited, 0)
	return errstatus.New(errstatus.CodeRateLimited, "Provider rate limit exceeded", providerName)
}

func (s *gatewayService) observe(providerName string, started time.Time, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.Provider(providerName, outcome, time.Since(started))
}

// Geocode resolves addr with Nominatim.
func (s *gatewayService) Geocode(ctx context.Context, addr contracts.Address) (*contracts.GeocodeResponse, error) {
	if err := s.admit(providerNominatim); err != nil {
		return nil, err
	}

	started := time.Now()
	coords, err := s.geocoder.Geocode(ctx, addr)
	s.observe(providerNominatim, started, err)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			s.logger.Info(ctx, "geocode_not_found", "Address not found", map[string]any{"query": provider.SearchQuery(addr)})
			return nil, errstatus.New(errstatus.CodeNotFound, "Address not found", err.Error())
		}
		s.logger.Error(ctx, "geocode_failed", "Internal geocoding error", err, nil)
		return nil, errstatus.Internal("Internal geocoding error", err)
	}

	s.logger.Debug(ctx, "geocode_ok", "Address geocoded",
		map[string]any{"latitude": coords.Latitude, "longitude": coords.Longitude})

	return &contracts.GeocodeResponse{
		Coordinates: coords,
		ResultMeta:  contracts.ResultMeta{GeneratedAt: s.now().UTC(), Source: contracts.SourceNominatim},
	}, nil
}

// NearbyStations lists stations around coords; maxStations <= 0 means 10.
func (s *gatewayService) NearbyStations(ctx context.Context, coords contracts.Coordinates, maxStations int) (*contracts.StationsResponse, error) {
	if maxStations <= 0 {
		maxStations = s.maxPerReq
	}
	if err := s.admit(providerGeofox); err != nil {
		return nil, err
	}

	started := time.Now()
	stations, err := s.transit.NearbyStations(ctx, coords, maxStations)
	s.observe(providerGeofox, started, err)
	if err != nil {
		return nil, s.geofoxError(ctx, "Internal stations error", err)
	}

	s.logger.Debug(ctx, "stations_found", "Nearby stations resolved", map[string]any{"count": len(stations)})
	return s.stationsResponse(stations), nil
}

// DeparturesForStations fills in departures for the given stations.
func (s *gatewayService) DeparturesForStations(ctx context.Context, stations []contracts.Station) (*contracts.StationsResponse, error) {
	if err := s.admit(providerGeofox); err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := s.transit.Departures(ctx, stations)
	s.observe(providerGeofox, started, err)
	if err != nil {
		return nil, s.geofoxError(ctx, "Internal departures error", err)
	}

	s.logger.Debug(ctx, "departures_found", "Departures resolved",
		map[string]any{"requested": len(stations), "with_departures": len(result)})
	return s.stationsResponse(result), nil
}

func (s *gatewayService) stationsResponse(stations []contracts.Station) *contracts.StationsResponse {
	if stations == nil {
		stations = []contracts.Station{}
	}
	return &contracts.StationsResponse{
		Stations:   stations,
		ResultMeta: contracts.ResultMeta{GeneratedAt: s.now().UTC(), Source: contracts.SourceGeofox},
	}
}

func (s *gatewayService) geofoxError(ctx context.Context, internalMsg string, err error) error {
	if errors.Is(err, provider.ErrUnavailable) {
		s.logger.Warn(ctx, "geofox_unavailable", "Geofox API unavailable", err, nil)
		return errstatus.New(errstatus.CodeUnavailable, "Geofox API unavailable", err.Error())
	}
	s.logger.Error(ctx, "geofox_failed", internalMsg, err, nil)
	return errstatus.Internal(internalMsg, err)
}
