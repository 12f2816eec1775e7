// Package transport picks how stages reach each other: plain HTTP or RabbitMQ
// request/reply.
package transport

import (
	"context"
	"fmt"
	"time"

	"nearest-departures/internal/general/config"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/rabbitmq"
	"nearest-departures/internal/general/rpc"
)

// Transport hands out invokers for peer services and serves the local ones.
type Transport struct {
	cfg    *config.Config
	logger *logger.Logger
	mq     *rabbitmq.Client
	mqRPC  *rabbitmq.RPCClient
}

// Dial connects to the broker when the amqp transport is configured.
func Dial(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Transport, error) {
	t := &Transport{cfg: cfg, logger: logger}
	if cfg.Transport != config.TransportAMQP {
		return t, nil
	}

	mq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	t.mq = mq
	t.mqRPC = rabbitmq.NewRPCClient(mq, logger)
	return t, nil
}

// Kind reports the configured transport.
func (t *Transport) Kind() string {
	return t.cfg.Transport
}

// Invoker returns a caller for target. timeout bounds HTTP calls; over AMQP the
// caller's context deadline is used.
func (t *Transport) Invoker(target string, timeout time.Duration) (rpc.Invoker, error) {
	if t.mqRPC != nil {
		return t.mqRPC, nil
	}
	ep, ok := t.cfg.Endpoint(target)
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for %q", target)
	}
	return rpc.NewHTTPClient(ep.BaseURL(), timeout), nil
}

// Serve starts answering calls for service in the background. Over HTTP the
// server's routes are mounted on the service mux instead, so nothing happens here.
func (t *Transport) Serve(ctx context.Context, service string, srv *rpc.Server) {
	if t.mq == nil {
		return
	}
	go t.mq.ServeRPC(ctx, service, t.cfg.RabbitMQ.Prefetch, srv)
	t.logger.Info(ctx, "rpc_consumer_started", "Serving RPC over RabbitMQ",
		map[string]any{"service": service, "prefetch": t.cfg.RabbitMQ.Prefetch})
}

// Close releases broker resources.
func (t *Transport) Close() {
	if t.mqRPC != nil {
		t.mqRPC.Close()
	}
	if t.mq != nil {
		t.mq.Close()
	}
}
