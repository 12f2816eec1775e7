package handler

import (
	"context"
	"strings"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/ports"
)

const (
	msgAddressNull       = "Address is null"
	msgAddressIncomplete = "Address is incomplete"
	detailAddressFields  = "street and house number are required"
)

// LocationHandler is the ingress of the geocoding stage.
type LocationHandler struct {
	ctrl    ports.LocationController
	runner  *detached.Runner
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewLocationHandler(ctrl ports.LocationController, runner *detached.Runner, logger *logger.Logger, m *metrics.Metrics) *LocationHandler {
	return &LocationHandler{ctrl: ctrl, runner: runner, logger: logger, metrics: m}
}

// RegisterRPC binds location.SubmitAddress.
func (handler *LocationHandler) RegisterRPC(srv *rpc.Server) {
	srv.Register(contracts.ServiceLocation, contracts.MethodSubmitAddress, rpc.Unary(handler.submitAddress))
}

// ----- RPC: location.SubmitAddress -----

func (handler *LocationHandler) submitAddress(ctx context.Context, req *contracts.AddressRequest) (*contracts.Ack, error) {
	env := contracts.NewEnvelope(req.CorrelationID, req.Caller)
	ctx = handler.logger.WithCorrelationID(ctx, env.CorrelationID)
	ctx = handler.logger.WithCaller(ctx, env.Caller)

	if err := validateAddress(req.Address); err != nil {
		handler.metrics.Ingress(contracts.MethodSubmitAddress, metrics.OutcomeRejected)
		handler.logger.Warn(ctx, "ingress_rejected", "Invalid request", err, nil)
		return nil, err
	}

	ack := contracts.NewAck()
	addr := *req.Address
	handler.runner.Go(ctx, "resolve_location", func(ctx context.Context) error {
		return handler.ctrl.Resolve(ctx, env, addr)
	})

	handler.metrics.Ingress(contracts.MethodSubmitAddress, metrics.OutcomeAck)
	handler.logger.Debug(ctx, "address_accepted", "ACK sent to DisplayManager", nil)
	return ack, nil
}

func validateAddress(addr *contracts.Address) error {
	if addr == nil {
		return errstatus.InvalidArgument(msgAddressNull, detailAddressFields)
	}
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.HouseNumber) == "" {
		return errstatus.InvalidArgument(msgAddressIncomplete,
			"street="+strings.TrimSpace(addr.Street)+" house_number="+strings.TrimSpace(addr.HouseNumber))
	}
	return nil
}
