package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/metrics"
)

const (
	msgNoInput      = "No input detected."
	msgAccepted     = "Address received. Searching for nearest departures at %s now..."
	msgNoSupplier   = "No supplier data received yet."
	msgHealthy      = "IT IS OK"
	methodPublicAPI = "ApiLocation"
)

// ----- Handler: GET /api/location?address= -----

func (handler *GatewayHandler) handleLocation(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if strings.TrimSpace(address) == "" {
		handler.metrics.Ingress(methodPublicAPI, metrics.OutcomeRejected)
		handler.logger.Debug(r.Context(), "location_no_input", "Received request with no address", nil)
		handler.textResponse(w, http.StatusBadRequest, msgNoInput)
		return
	}

	env := contracts.NewEnvelope(correlationFrom(r), contracts.CallerGateway)
	ctx := handler.withEnvelope(r.Context(), env)

	// fire-and-forget; the display stage validates the text itself
	handler.display.SubmitAddressText(ctx, env, address)
	handler.metrics.Ingress(methodPublicAPI, metrics.OutcomeAck)

	handler.logger.Info(ctx, "location_request_accepted", "Handing location request over to the display stage",
		map[string]any{"address": address})
	handler.textResponse(w, http.StatusOK, fmt.Sprintf(msgAccepted, address))
}

// ----- Handler: GET /api/status -----

func (handler *GatewayHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	last, ok := handler.svc.LastInteraction()
	if !ok {
		handler.logger.Debug(r.Context(), "status_no_supplier", "No interaction with data supplier yet", nil)
		handler.textResponse(w, http.StatusOK, msgNoSupplier)
		return
	}
	handler.textResponse(w, http.StatusOK, last.UTC().Format(time.RFC3339))
}

// ----- Handler: GET /api/health -----

func (handler *GatewayHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	handler.textResponse(w, http.StatusOK, msgHealthy)
}
