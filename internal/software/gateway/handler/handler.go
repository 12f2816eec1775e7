package handler

import (
	"context"
	"net/http"
	"strings"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/ports"
)

// GatewayHandler serves the public HTTP API and the provider RPC methods.
type GatewayHandler struct {
	svc     ports.ProviderService
	display ports.AddressTextSender
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewGatewayHandler wires the gateway surfaces around the provider service.
func NewGatewayHandler(
	svc ports.ProviderService,
	display ports.AddressTextSender,
	logger *logger.Logger,
	m *metrics.Metrics,
) *GatewayHandler {
	return &GatewayHandler{svc: svc, display: display, logger: logger, metrics: m}
}

// RegisterRoutes mounts the public endpoints on the provided mux.
func (handler *GatewayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/location", handler.handleLocation)
	mux.HandleFunc("GET /api/status", handler.handleStatus)
	mux.HandleFunc("GET /api/health", handler.handleHealth)
}

// RegisterRPC binds the provider methods.
func (handler *GatewayHandler) RegisterRPC(srv *rpc.Server) {
	srv.Register(contracts.ServiceGateway, contracts.MethodGeocode, rpc.Unary(handler.geocode))
	srv.Register(contracts.ServiceGateway, contracts.MethodNearbyStations, rpc.Unary(handler.nearbyStations))
	srv.Register(contracts.ServiceGateway, contracts.MethodDeparturesForStations, rpc.Unary(handler.departuresForStations))
}

// ----- general helpers -----

// withEnvelope puts the caller's correlation id and name into the logging context.
func (handler *GatewayHandler) withEnvelope(ctx context.Context, env contracts.Envelope) context.Context {
	ctx = handler.logger.WithCorrelationID(ctx, env.CorrelationID)
	return handler.logger.WithCaller(ctx, env.Caller)
}

// textResponse writes a plain-text body.
func (handler *GatewayHandler) textResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// correlationFrom reuses X-Request-ID when the client sent one.
func correlationFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Request-ID"))
}
