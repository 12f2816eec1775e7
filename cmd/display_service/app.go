package displayservice

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"nearest-departures/internal/cli"
	"nearest-departures/internal/general/config"
	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/jwt"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/outbound"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/general/server"
	"nearest-departures/internal/general/stagestate"
	"nearest-departures/internal/general/transport"
	"nearest-departures/internal/general/websocket"
	"nearest-departures/internal/software/display/handler"
	"nearest-departures/internal/software/display/service"
)

// Run wires the display stage and blocks until ctx is cancelled.
func Run(ctx context.Context, opts cli.Options) error {
	// set up a new logger and a static correlation id for startup logs
	logger := logger.New("display-service")
	logger.SetDebug(opts.Debug)
	ctx = logger.WithCorrelationID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	m := metrics.New(contracts.ServiceDisplay)
	runner := detached.NewRunner(logger, m, cfg.Pipeline.MaxDetached)

	// connect the transport (RabbitMQ only when configured)
	tr, err := transport.Dial(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to initialize transport", err, nil)
		return err
	}
	defer tr.Close()

	// client for the next hop
	locationInvoker, err := tr.Invoker(contracts.ServiceLocation, cfg.Pipeline.OutboundTimeout)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to build location client", err, nil)
		return err
	}
	location := outbound.NewLocationClient(outbound.New(locationInvoker, runner, logger, m,
		contracts.ServiceLocation, contracts.CallerDisplay, cfg.Pipeline.OutboundTimeout))

	// per-traversal state
	store := stagestate.New[service.Model](cfg.Pipeline.StageTTL)
	store.Start()
	defer store.Stop()

	// console board and websocket feed
	view := service.NewView(io.Discard, io.Discard)
	if cfg.Display.Console {
		view = service.NewView(os.Stdout, os.Stderr)
	}
	var auth *jwt.Manager
	if cfg.Display.BoardAuth {
		auth = jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TTL)
	}
	hub := websocket.NewHub(logger, auth)

	// stage controller and ingress
	svc := service.NewDisplayService(logger, store, location, view, hub)
	h := handler.NewDisplayHandler(svc, runner, hub, auth, cfg.Pipeline.AcceptEmptyResults, logger, m)

	rpcServer := rpc.NewServer(logger)
	h.RegisterRPC(rpcServer)
	tr.Serve(ctx, contracts.ServiceDisplay, rpcServer)

	mux := http.NewServeMux()
	rpcServer.RegisterRoutes(mux)
	h.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	err = server.Run(ctx, logger, server.Options{
		Name:          "Display Service",
		Port:          cfg.Services.Display.Port,
		Handler:       mux,
		MaxConcurrent: opts.MaxConcurrent,
	})

	// let acknowledged work finish
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if werr := runner.Wait(drainCtx); werr != nil {
		logger.Warn(ctx, "detached_drain_timeout", "Detached tasks still running at shutdown", werr, nil)
	}
	return err
}
