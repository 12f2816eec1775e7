package handler

import (
	"context"

	"nearest-departures/internal/general/contracts"
)

func (handler *GatewayHandler) geocode(ctx context.Context, req *contracts.GeocodeRequest) (*contracts.GeocodeResponse, error) {
	ctx = handler.withEnvelope(ctx, req.Envelope)
	return handler.svc.Geocode(ctx, req.Address)
}

func (handler *GatewayHandler) nearbyStations(ctx context.Context, req *contracts.NearbyStationsRequest) (*contracts.StationsResponse, error) {
	ctx = handler.withEnvelope(ctx, req.Envelope)
	return handler.svc.NearbyStations(ctx, req.Coordinates, req.MaxStations)
}

func (handler *GatewayHandler) departuresForStations(ctx context.Context, req *contracts.DeparturesRequest) (*contracts.StationsResponse, error) {
	ctx = handler.withEnvelope(ctx, req.Envelope)
	return handler.svc.DeparturesForStations(ctx, req.Stations)
}
