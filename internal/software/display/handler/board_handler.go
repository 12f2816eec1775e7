package handler

import (
	"net/http"
)

// ----- Handler: GET /api/board -----

func (handler *DisplayHandler) handleBoard(w http.ResponseWriter, r *http.Request) {
	ev, ok := handler.ctrl.Board()
	if !ok {
		handler.jsonResponse(r.Context(), w, http.StatusNotFound, map[string]string{"error": "no departures requested yet"})
		return
	}
	handler.jsonResponse(r.Context(), w, http.StatusOK, ev)
}
