package handler

import (
	"context"

	"nearest-departures/internal/domain/geo"
	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/ports"
)

const (
	msgCoordinatesNull    = "Coordinates are null"
	msgCoordinatesInvalid = "Coordinates out of range"
)

// TransitHandler is the ingress of the transit stage.
type TransitHandler struct {
	ctrl    ports.TransitController
	runner  *detached.Runner
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewTransitHandler(ctrl ports.TransitController, runner *detached.Runner, logger *logger.Logger, m *metrics.Metrics) *TransitHandler {
	return &TransitHandler{ctrl: ctrl, runner: runner, logger: logger, metrics: m}
}

// RegisterRPC binds transit.SubmitCoordinates.
func (handler *TransitHandler) RegisterRPC(srv *rpc.Server) {
	srv.Register(contracts.ServiceTransit, contracts.MethodSubmitCoordinates, rpc.Unary(handler.submitCoordinates))
}

// ----- RPC: transit.SubmitCoordinates -----

func (handler *TransitHandler) submitCoordinates(ctx context.Context, req *contracts.CoordinatesRequest) (*contracts.Ack, error) {
	env := contracts.NewEnvelope(req.CorrelationID, req.Caller)
	ctx = handler.logger.WithCorrelationID(ctx, env.CorrelationID)
	ctx = handler.logger.WithCaller(ctx, env.Caller)

	var err error
	if req.Coordinates == nil {
		err = errstatus.InvalidArgument(msgCoordinatesNull, "latitude and longitude are required")
	} else if verr := geo.Validate(req.Coordinates.Latitude, req.Coordinates.Longitude); verr != nil {
		err = errstatus.InvalidArgument(msgCoordinatesInvalid, verr.Error())
	}
	if err != nil {
		handler.metrics.Ingress(contracts.MethodSubmitCoordinates, metrics.OutcomeRejected)
		handler.logger.Warn(ctx, "ingress_rejected", "Invalid request", err, nil)
		return nil, err
	}

	ack := contracts.NewAck()
	coords := *req.Coordinates
	handler.runner.Go(ctx, "resolve_departures", func(ctx context.Context) error {
		return handler.ctrl.Resolve(ctx, env, coords)
	})

	handler.metrics.Ingress(contracts.MethodSubmitCoordinates, metrics.OutcomeAck)
	handler.logger.Debug(ctx, "coordinates_accepted", "ACK sent to Locationhandler", nil)
	return ack, nil
}
