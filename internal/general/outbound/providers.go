package outbound

import (
	"context"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/rpc"
)

// ProviderClient calls the gateway's provider methods and waits for the result.
type ProviderClient struct {
	invoker rpc.Invoker
	metrics *metrics.Metrics
	caller  string
	timeout time.Duration
}

// NewProviderClient builds a synchronous gateway client for the stage named caller.
func NewProviderClient(invoker rpc.Invoker, m *metrics.Metrics, caller string, timeout time.Duration) *ProviderClient {
	return &ProviderClient{invoker: invoker, metrics: m, caller: caller, timeout: timeout}
}

func (c *ProviderClient) invoke(ctx context.Context, method string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.invoker.Invoke(ctx, contracts.ServiceGateway, method, req, resp)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	c.metrics.Outbound(contracts.ServiceGateway, method, outcome)
	return err
}

// Geocode resolves addr. Failures come back as *rpc.CallError.
func (c *ProviderClient) Geocode(ctx context.Context, env contracts.Envelope, addr contracts.Address) (contracts.Coordinates, error) {
	var resp contracts.GeocodeResponse
	err := c.invoke(ctx, contracts.MethodGeocode, contracts.GeocodeRequest{
		Address:  addr,
		Envelope: env.Forward(c.caller),
	}, &resp)
	if err != nil {
		return contracts.Coordinates{}, err
	}
	return resp.Coordinates, nil
}

// NearbyStations lists up to maxStations stations around coords.
func (c *ProviderClient) NearbyStations(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates, maxStations int) ([]contracts.Station, error) {
	var resp contracts.StationsResponse
	err := c.invoke(ctx, contracts.MethodNearbyStations, contracts.NearbyStationsRequest{
		Coordinates: coords,
		MaxStations: maxStations,
		Envelope:    env.Forward(c.caller),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Stations, nil
}

// DeparturesForStations fills in departures and reports when the provider produced them.
func (c *ProviderClient) DeparturesForStations(ctx context.Context, env contracts.Envelope, stations []contracts.Station) ([]contracts.Station, *time.Time, error) {
	var resp contracts.StationsResponse
	err := c.invoke(ctx, contracts.MethodDeparturesForStations, contracts.DeparturesRequest{
		Stations: stations,
		Envelope: env.Forward(c.caller),
	}, &resp)
	if err != nil {
		return nil, nil, err
	}

	var fetchedAt *time.Time
	if !resp.ResultMeta.GeneratedAt.IsZero() {
		t := resp.ResultMeta.GeneratedAt
		fetchedAt = &t
	}
	return resp.Stations, fetchedAt, nil
}
