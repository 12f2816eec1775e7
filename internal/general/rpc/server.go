package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
)

// Header names of the HTTP transport.
const (
	HeaderStatus = "Rpc-Status"
)

// HandlerFunc serves one method. The returned error should be an
// *errstatus.Status; anything else is reported as INTERNAL.
type HandlerFunc func(ctx context.Context, body json.RawMessage) (any, error)

// Unary adapts a typed handler. A body that does not decode is a transport
// malformation and reported as INTERNAL.
func Unary[Req, Resp any](fn func(ctx context.Context, req *Req) (*Resp, error)) HandlerFunc {
	return func(ctx context.Context, body json.RawMessage) (any, error) {
		var req Req
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errstatus.Internal("Malformed request", err)
		}
		return fn(ctx, &req)
	}
}

// Server routes calls to registered handlers regardless of transport.
type Server struct {
	logger   *logger.Logger
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewServer creates an empty method registry.
func NewServer(logger *logger.Logger) *Server {
	return &Server{logger: logger, handlers: make(map[string]HandlerFunc)}
}

// Register binds service/method to h.
func (s *Server) Register(service, method string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[service+"/"+method] = h
}

// Dispatch runs the handler for service/method. Panics become INTERNAL.
func (s *Server) Dispatch(ctx context.Context, service, method string, body []byte) (out []byte, err error) {
	s.mu.RLock()
	h, ok := s.handlers[service+"/"+method]
	s.mu.RUnlock()
	if !ok {
		return nil, errstatus.New(errstatus.CodeNotFound, "Unknown method", service+"/"+method)
	}

	defer func() {
		if p := recover(); p != nil {
			err = errstatus.Internal("Internal server error", fmt.Errorf("panic: %v", p))
		}
	}()

	resp, err := h(ctx, body)
	if err != nil {
		return nil, err
	}
	out, err = json.Marshal(resp)
	if err != nil {
		return nil, errstatus.Internal("Failed to encode response", err)
	}
	return out, nil
}

// RegisterRoutes mounts the HTTP transport on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rpc/{service}/{method}", s.serveHTTP)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	service, method := r.PathValue("service"), r.PathValue("method")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteHTTPError(w, errstatus.Internal("Failed to read request", err))
		return
	}

	out, err := s.Dispatch(r.Context(), service, method, body)
	if err != nil {
		s.logger.Debug(r.Context(), "rpc_failed", "RPC returned a failure",
			map[string]any{"service": service, "method": method, "error": err.Error()})
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(HeaderStatus, string(errstatus.RPCOK))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// StatusFor turns any handler error into the Status sent on the wire.
func StatusFor(err error) *errstatus.Status {
	if st, ok := errstatus.From(err); ok {
		return st
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errstatus.New(errstatus.CodeTimeout, "Deadline exceeded", err.Error())
	}
	return errstatus.Internal("Internal server error", err)
}

// WriteHTTPError writes err with its Status in the side channel.
func WriteHTTPError(w http.ResponseWriter, err error) {
	st := StatusFor(err)
	code := st.RPCCode()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(HeaderStatus, string(code))
	w.Header().Set(errstatus.HeaderHTTP, errstatus.EncodeHeader(st))
	w.WriteHeader(code.HTTPStatus())

	type errBody struct {
		Error string `json:"error"`
	}
	b, _ := json.Marshal(errBody{Error: st.Message})
	_, _ = w.Write(b)
}
