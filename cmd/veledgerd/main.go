package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"veledger/config"
	"veledger/core"
	"veledger/gateway/middleware"
	"veledger/gateway/routes"
	"veledger/observability/logging"
	"veledger/observability/metrics"
	telemetry "veledger/observability/otel"
	"veledger/storage"
)

const serviceName = "veledgerd"

func main() {
	var cfgPath string
	var listenFlag string
	flag.StringVar(&cfgPath, "config", "./veledger.toml", "path to the ledger configuration")
	flag.StringVar(&listenFlag, "listen", "", "override api.ListenAddress")
	flag.Parse()

	if err := run(cfgPath, listenFlag); err != nil {
		slog.Error("veledgerd stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfgPath, listenOverride string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	env := cfg.Logging.Env
	if override := strings.TrimSpace(os.Getenv("VELEDGER_ENV")); override != "" {
		env = override
	}
	logger := logging.New(serviceName, logging.Options{
		Level:      cfg.Logging.Level,
		Env:        env,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return err
	}
	defer db.Close()

	ledger, err := core.NewLedger(cfg, db)
	if err != nil {
		return err
	}
	ledger.SetLogger(logger)
	ledger.SetMetrics(metrics.Ledger())
	if err := ledger.Bootstrap(); err != nil {
		return err
	}

	if cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		tel, err := telemetry.Start(context.Background(), telemetry.Config{
			ServiceName: serviceName,
			Environment: env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
			Deployment:  deployment(cfg, ledger),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := tel.Shutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
		if tel.Meter != nil {
			reg, err := telemetry.ObserveLedger(tel.Meter.Meter(serviceName), ledger)
			if err != nil {
				return err
			}
			defer reg.Unregister()
		}
	}

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName: serviceName,
		LogRequests: cfg.API.LogRequests,
	}, logger)
	router := routes.New(routes.Config{
		Ledger: ledger,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimit{
			RequestsPerMinute: float64(cfg.API.RequestsPerMinute),
			Burst:             cfg.API.Burst,
		}, logger),
		Observability: obs,
		CORS: middleware.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedHeaders: []string{"Content-Type"},
		},
	})
	handler := router
	if cfg.Telemetry.Traces {
		handler = otelhttp.NewHandler(router, serviceName)
	}

	addr := cfg.API.ListenAddress
	if strings.TrimSpace(listenOverride) != "" {
		addr = listenOverride
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func deployment(cfg *config.Config, ledger *core.Ledger) telemetry.Deployment {
	d := telemetry.Deployment{
		LockedToken: ledger.LockedToken().String(),
		Escrow:      ledger.EscrowAddress().String(),
		Distributor: ledger.DistributorAddress().String(),
		Owner:       ledger.Owner().String(),
		PowerCurve:  cfg.Escrow.PowerCurve,
	}
	for _, token := range cfg.Distribution.RewardTokens {
		d.RewardTokens = append(d.RewardTokens, token.Symbol)
	}
	return d
}
