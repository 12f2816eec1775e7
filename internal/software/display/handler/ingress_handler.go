package handler

import (
	"context"

	"nearest-departures/internal/domain/address"
	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/metrics"
)

const (
	msgStationsNull  = "Stations list is null"
	msgStationsEmpty = "Stations list is empty"
	detailStations   = "At least one station is required"
)

// ----- RPC: display.SubmitAddressText -----

func (handler *DisplayHandler) submitAddressText(ctx context.Context, req *contracts.AddressTextRequest) (*contracts.Ack, error) {
	env := contracts.NewEnvelope(req.CorrelationID, req.Caller)
	ctx = handler.withEnvelope(ctx, env)

	addr, err := address.ParsePtr(req.Address)
	if err != nil {
		handler.reject(ctx, contracts.MethodSubmitAddressText, err)
		return nil, err
	}

	ack := contracts.NewAck()
	handler.runner.Go(ctx, "user_pass_location", func(ctx context.Context) error {
		return handler.ctrl.UserPassLocation(ctx, env, addr)
	})

	handler.metrics.Ingress(contracts.MethodSubmitAddressText, metrics.OutcomeAck)
	handler.logger.Info(ctx, "address_text_accepted", "Successfully processed userPassLocation request",
		map[string]any{"address": *req.Address})
	return ack, nil
}

// ----- RPC: display.ShowDepartures -----

func (handler *DisplayHandler) showDepartures(ctx context.Context, req *contracts.ShowDeparturesRequest) (*contracts.Ack, error) {
	env := contracts.NewEnvelope(req.CorrelationID, req.Caller)
	ctx = handler.withEnvelope(ctx, env)

	if req.Stations == nil {
		err := errstatus.InvalidArgument(msgStationsNull, detailStations)
		handler.reject(ctx, contracts.MethodShowDepartures, err)
		return nil, err
	}
	if len(req.Stations) == 0 && !handler.acceptEmpty {
		err := errstatus.InvalidArgument(msgStationsEmpty, detailStations)
		handler.reject(ctx, contracts.MethodShowDepartures, err)
		return nil, err
	}

	ack := contracts.NewAck()
	stations, fetchedAt := req.Stations, req.DataFetchedAt
	handler.runner.Go(ctx, "display_departures", func(ctx context.Context) error {
		return handler.ctrl.DisplayDepartures(ctx, env, stations, fetchedAt)
	})

	handler.metrics.Ingress(contracts.MethodShowDepartures, metrics.OutcomeAck)
	handler.logger.Info(ctx, "departures_accepted", "Successfully processed showDepartures request",
		map[string]any{"stations": len(stations)})
	return ack, nil
}

func (handler *DisplayHandler) reject(ctx context.Context, method string, err error) {
	handler.metrics.Ingress(method, metrics.OutcomeRejected)
	handler.logger.Warn(ctx, "ingress_rejected", "Invalid request in "+method, err, nil)
}
