// Package outbound forwards a stage's result to the next stage without
// waiting for it.
package outbound

import (
	"context"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/rpc"
)

// Forwarder sends fire-and-forget calls to one target service.
type Forwarder struct {
	invoker rpc.Invoker
	runner  *detached.Runner
	logger  *logger.Logger
	metrics *metrics.Metrics
	target  string
	caller  string
	timeout time.Duration
}

// New builds a forwarder from caller (this stage's name) to the target service.
func New(invoker rpc.Invoker, runner *detached.Runner, logger *logger.Logger, m *metrics.Metrics,
	target, caller string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		invoker: invoker,
		runner:  runner,
		logger:  logger,
		metrics: m,
		target:  target,
		caller:  caller,
		timeout: timeout,
	}
}

// Caller is the name stamped into forwarded envelopes.
func (f *Forwarder) Caller() string { return f.caller }

// Send dispatches req in the background and returns immediately. The call is
// detached from ctx's cancellation and bounded only by the forwarder timeout.
// The outcome is logged; nothing is reported back.
func (f *Forwarder) Send(ctx context.Context, method string, req any) {
	f.runner.Go(ctx, "forward_"+method, func(ctx context.Context) error {
		f.call(ctx, method, req)
		return nil
	})
}

func (f *Forwarder) call(ctx context.Context, method string, req any) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	details := map[string]any{"target": f.target, "method": method}

	var ack contracts.Ack
	if err := f.invoker.Invoke(callCtx, f.target, method, req, &ack); err != nil {
		f.metrics.Outbound(f.target, method, metrics.OutcomeError)

		if ce, ok := rpc.AsCallError(err); ok {
			details["rpc_code"] = string(ce.Code)
			switch {
			case ce.Status != nil:
				details["error_code"] = ce.Status.Code.String()
				details["error_message"] = ce.Status.Message
				details["error_details"] = ce.Status.Details
			case ce.DetailErr != nil:
				details["error_status_decode"] = ce.DetailErr.Error()
			}
		}
		f.logger.Error(ctx, "forward_failed", "Failed to forward to "+f.target, err, details)
		return
	}

	f.metrics.Outbound(f.target, method, metrics.OutcomeAck)
	details["accepted_at"] = ack.AcceptedAt.Format(time.RFC3339Nano)
	f.logger.Info(ctx, "forward_acked", "Forward acknowledged by "+f.target, details)
}
