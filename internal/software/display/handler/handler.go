package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"nearest-departures/internal/domain/user"
	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/jwt"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/general/websocket"
	"nearest-departures/internal/ports"
)

// DisplayHandler is the ingress of the display stage plus the board surfaces.
type DisplayHandler struct {
	ctrl        ports.DisplayController
	runner      *detached.Runner
	hub         *websocket.Hub
	auth        *jwt.Manager
	acceptEmpty bool
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// NewDisplayHandler builds the handler. auth nil leaves the board open.
// acceptEmpty lets an empty station list through the ShowDepartures ingress.
func NewDisplayHandler(
	ctrl ports.DisplayController,
	runner *detached.Runner,
	hub *websocket.Hub,
	auth *jwt.Manager,
	acceptEmpty bool,
	logger *logger.Logger,
	m *metrics.Metrics,
) *DisplayHandler {
	return &DisplayHandler{
		ctrl:        ctrl,
		runner:      runner,
		hub:         hub,
		auth:        auth,
		acceptEmpty: acceptEmpty,
		logger:      logger,
		metrics:     m,
	}
}

// RegisterRPC binds the stage's ingress methods.
func (handler *DisplayHandler) RegisterRPC(srv *rpc.Server) {
	srv.Register(contracts.ServiceDisplay, contracts.MethodSubmitAddressText, rpc.Unary(handler.submitAddressText))
	srv.Register(contracts.ServiceDisplay, contracts.MethodShowDepartures, rpc.Unary(handler.showDepartures))
}

// RegisterRoutes mounts the board endpoints.
func (handler *DisplayHandler) RegisterRoutes(mux *http.ServeMux) {
	board := handler.handleBoard
	if handler.auth != nil {
		board = jwt.AuthMiddlewareFunc(handler.auth, user.BoardRoles...)(board)
	}
	mux.HandleFunc("GET /api/board", board)
	if handler.hub != nil {
		mux.HandleFunc("GET /ws/board", handler.hub.ServeBoard)
	}
}

// ----- general helpers -----

func (handler *DisplayHandler) withEnvelope(ctx context.Context, env contracts.Envelope) context.Context {
	ctx = handler.logger.WithCorrelationID(ctx, env.CorrelationID)
	return handler.logger.WithCaller(ctx, env.Caller)
}

func (handler *DisplayHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
	}
}
