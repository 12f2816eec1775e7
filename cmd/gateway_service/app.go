package gatewayservice

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
	"nearest-departures/internal/general/ratelimit"
	"nearest-departures/internal/general/rpc"
	"nearest-departures/internal/general/server"
	"nearest-departures/internal/general/transport"
	"nearest-departures/internal/software/gateway/handler"
	"nearest-departures/internal/software/gateway/provider"
	"nearest-departures/internal/software/gateway/service"
)

const limiterIdleTTL = 10 * time.Minute

// Run wires the gateway and blocks until ctx is cancelled.
func Run(ctx context.Context, opts cli.Options) error {
	logger := logger.New("gateway-service")
	logger.SetDebug(opts.Debug)
	ctx = logger.WithCorrelationID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if cfg.Providers.Geofox.User == "" || cfg.Providers.Geofox.Password == "" {
		logger.Warn(ctx, "geofox_credentials_missing", "GEOFOX_USER or GEOFOX_PASSWORD not set; transit lookups will fail", nil, nil)
	}

	m := metrics.New(contracts.ServiceGateway)
	runner := detached.NewRunner(logger, m, cfg.Pipeline.MaxDetached)

	tr, err := transport.Dial(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to initialize transport", err, nil)
		return err
	}
	defer tr.Close()

	displayInvoker, err := tr.Invoker(contracts.ServiceDisplay, cfg.Pipeline.OutboundTimeout)
	if err != nil {
		logger.Error(ctx, "transport_init_failed", "Failed to build display client", err, nil)
		return err
	}
	display := outbound.NewDisplayClient(outbound.New(displayInvoker, runner, logger, m,
		contracts.ServiceDisplay, contracts.CallerGateway, cfg.Pipeline.OutboundTimeout))

	// external providers behind a per-provider rate limit
	nominatim := provider.NewNominatim(cfg.Providers.Nominatim.BaseURL, cfg.Providers.Nominatim.UserAgent, cfg.Providers.Nominatim.Timeout)
	geofox := provider.NewGeofox(cfg.Providers.Geofox.BaseURL, cfg.Providers.Geofox.User, cfg.Providers.Geofox.Password, cfg.Providers.Geofox.Timeout)
	limiter := ratelimit.New(cfg.Providers.RateLimit.RPS, cfg.Providers.RateLimit.Burst, limiterIdleTTL)

	svc := service.NewGatewayService(logger, m, limiter, nominatim, geofox, geofox)
	h := handler.NewGatewayHandler(svc, display, logger, m)

	rpcServer := rpc.NewServer(logger)
	h.RegisterRPC(rpcServer)
	tr.Serve(ctx, contracts.ServiceGateway, rpcServer)

	mux := http.NewServeMux()
	rpcServer.RegisterRoutes(mux)
	h.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	err = server.Run(ctx, logger, server.Options{
		Name:          "Gateway Service",
		Port:          cfg.Services.Gateway.Port,
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
