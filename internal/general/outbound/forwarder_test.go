package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/rpc"
)

type fakeInvoker struct {
	mu       sync.Mutex
	calls    []string
	err      error
	block    bool
	deadline bool
}

func (f *fakeInvoker) Invoke(ctx context.Context, service, method string, req, resp any) error {
	f.mu.Lock()
	f.calls = append(f.calls, service+"/"+method)
	_, f.deadline = ctx.Deadline()
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return &rpc.CallError{Service: service, Method: method, Code: errstatus.RPCDeadlineExceeded, Cause: ctx.Err()}
	}
	if f.err != nil {
		return f.err
	}
	if ack, ok := resp.(*contracts.Ack); ok {
		ack.AcceptedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newForwarder(inv rpc.Invoker, timeout time.Duration) (*Forwarder, *detached.Runner, *syncBuffer) {
	out := &syncBuffer{}
	log := logger.NewWithWriter("outbound-test", out)
	runner := detached.NewRunner(log, nil, 4)
	return New(inv, runner, log, nil, contracts.ServiceDisplay, contracts.CallerTransit, timeout), runner, out
}

func TestSendLogsAck(t *testing.T) {
	inv := &fakeInvoker{}
	f, runner, out := newForwarder(inv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	f.Send(ctx, contracts.MethodShowDepartures, struct{}{})
	cancel() // the inbound call ending must not abort the forward

	if err := runner.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(inv.calls) != 1 || inv.calls[0] != "display/ShowDepartures" {
		t.Fatalf("calls = %v", inv.calls)
	}
	if !inv.deadline {
		t.Fatal("forward must carry its own deadline")
	}
	if !strings.Contains(out.String(), `"action":"forward_acked"`) {
		t.Fatalf("ack not logged: %s", out)
	}
}

func TestSendLogsDecodedStatus(t *testing.T) {
	inv := &fakeInvoker{err: &rpc.CallError{
		Service: "display", Method: "ShowDepartures", Code: errstatus.RPCInvalidArgument,
		Status: errstatus.InvalidArgument("Stations list is empty", "At least one station is required"),
	}}
	f, runner, out := newForwarder(inv, time.Second)

	f.Send(context.Background(), contracts.MethodShowDepartures, struct{}{})
	_ = runner.Wait(context.Background())

	var entry struct {
		Action  string         `json:"action"`
		Details map[string]any `json:"details"`
	}
	line := strings.TrimSpace(out.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if entry.Action != "forward_failed" {
		t.Fatalf("action = %q", entry.Action)
	}
	if entry.Details["error_code"] != "INVALID_ARGUMENT" || entry.Details["error_message"] != "Stations list is empty" {
		t.Fatalf("details = %v", entry.Details)
	}
}

func TestSendTimesOutOnItsOwn(t *testing.T) {
	inv := &fakeInvoker{block: true}
	f, runner, out := newForwarder(inv, 30*time.Millisecond)

	f.Send(context.Background(), contracts.MethodSubmitAddress, struct{}{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := runner.Wait(ctx); err != nil {
		t.Fatalf("forward did not finish within its timeout: %v", err)
	}
	if !strings.Contains(out.String(), `"rpc_code":"DeadlineExceeded"`) {
		t.Fatalf("timeout not logged: %s", out)
	}
}
