package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ----- Public wire types -----

// ErrorObject is emitted only for error and warn logs that carry an error.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack,omitempty"`
}

// LogEntry is the single-line JSON format written to the output.
type LogEntry struct {
	Timestamp     string       `json:"timestamp"`                // ISO 8601 format timestamp
	Level         string       `json:"level"`                    // DEBUG | INFO | WARN | ERROR
	Service       string       `json:"service"`                  // service name (e.g., transit-service)
	Action        string       `json:"action"`                   // event name (e.g., departures_forwarded)
	Message       string       `json:"message"`                  // human-readable description
	Hostname      string       `json:"hostname"`                 // service hostname
	CorrelationID string       `json:"correlation_id,omitempty"` // pipeline traversal id
	Caller        string       `json:"caller,omitempty"`         // upstream component of the current call
	Details       any          `json:"details,omitempty"`        // optional: extra fields (map or struct)
	Error         *ErrorObject `json:"error,omitempty"`          // optional: error details
}

// ----- Logger -----

type Logger struct {
	service  string
	hostname string
	out      io.Writer
	debug    atomic.Bool
	mu       sync.Mutex
}

// New creates a structured logger for the given service writing to stdout.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter creates a logger that writes to w (tests pass a buffer or io.Discard).
func NewWithWriter(service string, w io.Writer) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}

	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}
	if w == nil {
		w = os.Stdout
	}

	return &Logger{service: service, hostname: hn, out: w}
}

// SetDebug toggles DEBUG output.
func (l *Logger) SetDebug(enable bool) {
	l.debug.Store(enable)
}

// emit marshals and prints a single JSON line.
func (l *Logger) emit(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := json.Marshal(e)
	if err == nil {
		fmt.Fprintln(l.out, string(b))
		return
	}

	// retry once without Details (common source of marshal errors)
	e.Details = nil
	if b, err := json.Marshal(e); err == nil {
		fmt.Fprintln(l.out, string(b))
		return
	}

	// final structured fallback to keep logs JSON-shaped
	fallback := map[string]any{
		"timestamp": nowISO(),
		"level":     "ERROR",
		"service":   l.service,
		"action":    "logger_marshal_failed",
		"message":   "failed to encode log entry",
		"hostname":  l.hostname,
		"error": ErrorObject{
			Msg:   strings.TrimSpace(err.Error()),
			Stack: string(debug.Stack()),
		},
	}

	if fb, err := json.Marshal(fallback); err == nil {
		fmt.Fprintln(l.out, string(fb))
	} else {
		fmt.Fprintf(os.Stderr, "log marshal failed: %v\n", err)
	}
}

func (l *Logger) entry(ctx context.Context, level, action, msg string, details any) LogEntry {
	return LogEntry{
		Timestamp:     nowISO(),
		Level:         level,
		Service:       l.service,
		Action:        safeAction(action),
		Message:       strings.TrimSpace(msg),
		Hostname:      l.hostname,
		CorrelationID: CorrelationID(ctx),
		Caller:        caller(ctx),
		Details:       details,
	}
}

// Debug writes a DEBUG line with optional details. Dropped unless debug is on.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	if !l.debug.Load() {
		return
	}
	l.emit(l.entry(ctx, "DEBUG", action, msg, details))
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.emit(l.entry(ctx, "INFO", action, msg, details))
}

// Warn writes a WARN line; err may be nil. No stack trace is attached.
func (l *Logger) Warn(ctx context.Context, action, msg string, err error, details any) {
	e := l.entry(ctx, "WARN", action, msg, details)
	if err != nil {
		e.Error = &ErrorObject{Msg: strings.TrimSpace(err.Error())}
	}
	l.emit(e)
}

// Error writes an ERROR line and attaches an error stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}

	e := l.entry(ctx, "ERROR", action, msg, details)
	e.Error = &ErrorObject{
		Msg:   strings.TrimSpace(err.Error()),
		Stack: string(debug.Stack()),
	}
	l.emit(e)
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyCorrelationID ctxKey = "departures_correlation_id"
	ctxKeyCaller        ctxKey = "departures_caller"
)

// WithCorrelationID returns a new context carrying correlation_id.
func (l *Logger) WithCorrelationID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// WithCaller returns a new context carrying the upstream caller name.
func (l *Logger) WithCaller(ctx context.Context, name string) context.Context {
	if strings.TrimSpace(name) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyCaller, name)
}

// CorrelationID extracts correlation_id from ctx (if any).
func CorrelationID(ctx context.Context) string {
	return stringValue(ctx, ctxKeyCorrelationID)
}

func caller(ctx context.Context) string {
	return stringValue(ctx, ctxKeyCaller)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ----- Small utilities -----

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}
