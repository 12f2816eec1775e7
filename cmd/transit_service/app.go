package transitservice

import (
	"context"
	"net/http"
	"time"

	"nearest-departures/internal/cli"
	"nearest-departures/internal/general/config"
	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/detached"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"
	"nearest-departures/internal/general/outbound"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/general/server"
	"nearest-departures/internal/general/stagestate"
	"nearest-departures/internal/general/transport"
	"nearest-departures/internal/software/transit/handler"
	"nearest-departures/internal/software/transit/service"
)

// Run wires the transit stage and blocks until ctx is cancelled.
func Run(ctx context.Context, opts cli.Options) error {
	logger := logger.New("transit-service")
	logger.SetDebug(opts.Debug)
	ctx = logger.WithCorrelationID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	m := metrics.New(contracts.ServiceTransit)
	runner := detached.NewRunner(logger, m, cfg.Pipeline.MaxDetached)

	tr, err := transport.Dial(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to initialize transport", err, nil)
		return err
	}
	defer tr.Close()

	gatewayInvoker, err := tr.Invoker(contracts.ServiceGateway, cfg.Pipeline.ProviderTimeout)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to build gateway client", err, nil)
		return err
	}
	displayInvoker, err := tr.Invoker(contracts.ServiceDisplay, cfg.Pipeline.OutboundTimeout)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to build display client", err, nil)
		return err
	}
	finder := outbound.NewProviderClient(gatewayInvoker, m, contracts.CallerTransit, cfg.Pipeline.ProviderTimeout)
	display := outbound.NewDeparturesClient(outbound.New(displayInvoker, runner, logger, m,
		contracts.ServiceDisplay, contracts.CallerTransit, cfg.Pipeline.OutboundTimeout))

	store := stagestate.New[service.Model](cfg.Pipeline.StageTTL)
	store.Start()
	defer store.Stop()

	svc := service.NewTransitService(logger, store, finder, display,
		cfg.Pipeline.NearbyCandidates, cfg.Pipeline.TopStations)
	h := handler.NewTransitHandler(svc, runner, logger, m)

	rpcServer := rpc.NewServer(logger)
	h.RegisterRPC(rpcServer)
	tr.Serve(ctx, contracts.ServiceTransit, rpcServer)

	mux := http.NewServeMux()
	rpcServer.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	err = server.Run(ctx, logger, server.Options{
		Name:          "Transit Service",
		Port:          cfg.Services.Transit.Port,
		Handler:       mux,
		MaxConcurrent: opts.MaxConcurrent,
	})

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if werr := runner.Wait(drainCtx); werr != nil {
		logger.Warn(ctx, "detached_drain_timeout", "Detached tasks still running at shutdown", werr, nil)
	}
	return err
}
