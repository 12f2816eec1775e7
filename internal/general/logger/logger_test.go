package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var out []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func TestContextFieldsAreEmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("transit-service", &buf)

	ctx := l.WithCorrelationID(context.Background(), "corr-1")
	ctx = l.WithCaller(ctx, "Locationhandler")
	l.Info(ctx, "coordinates_received", "  got coordinates ", map[string]any{"lat": 53.5})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	e := lines[0]
	if e.CorrelationID != "corr-1" || e.Caller != "Locationhandler" {
		t.Errorf("context fields missing: %+v", e)
	}
	if e.Message != "got coordinates" || e.Level != "INFO" || e.Service != "transit-service" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestDebugIsGated(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("display-service", &buf)

	l.Debug(context.Background(), "noise", "hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug line written while disabled: %s", buf.String())
	}

	l.SetDebug(true)
	l.Debug(context.Background(), "noise", "shown", nil)
	if got := decodeLines(t, &buf); len(got) != 1 || got[0].Level != "DEBUG" {
		t.Errorf("unexpected output: %+v", got)
	}
}

func TestErrorCarriesMessageAndStack(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("gateway-service", &buf)

	l.Error(context.Background(), "", "failed", errors.New("boom"), nil)
	l.Warn(context.Background(), "soft_fail", "warned", errors.New("meh"), nil)

	lines := decodeLines(t, &buf)
	if lines[0].Action != "unspecified" || lines[0].Error == nil || lines[0].Error.Stack == "" {
		t.Errorf("error entry incomplete: %+v", lines[0])
	}
	if lines[1].Error == nil || lines[1].Error.Msg != "meh" || lines[1].Error.Stack != "" {
		t.Errorf("warn entry unexpected: %+v", lines[1])
	}
}
