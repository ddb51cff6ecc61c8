package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ultrachain/config"
	"ultrachain/core"
	"ultrachain/observability/logging"
	"ultrachain/observability/metrics"
	telemetry "ultrachain/observability/otel"
	"ultrachain/rpc"
	"ultrachain/storage"
)

const rpcTokenEnv = "ULTRA_RPC_TOKEN"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "ultrad: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env := strings.TrimSpace(os.Getenv("ULTRA_ENV"))
	logger := logging.Setup("ultrad", env, logging.Options{Level: cfg.LogLevel})
	logger.Info("configuration loaded", "path", configFile, "network", cfg.NetworkName, "data_dir", cfg.DataDir)

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "ultrad",
		Environment: env,
		Network:     cfg.NetworkName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rt := core.NewRuntime(db)
	rt.SetLogger(logger)
	rt.SetMetrics(metrics.Troves())
	rt.SetPauses(cfg.Pauses)

	if err := registerContracts(rt, cfg); err != nil {
		return err
	}
	if err := bootstrap(rt, cfg, logger); err != nil {
		return err
	}
	for name, addr := range rt.Contracts() {
		logger.Info("contract available", "contract", name, "address", addr)
	}

	token := os.Getenv(rpcTokenEnv)
	logger.Info("rpc authentication", logging.MaskField("rpc_token", token))
	server := rpc.NewServer(rt, rpc.Config{
		AuthToken: token,
		Denom:     cfg.Denom,
		Logger:    logger,
		RateLimit: rpc.RateLimit{RequestsPerMinute: cfg.RPC.RateLimitPerMinute, Burst: cfg.RPC.RateLimitBurst},
		WSOrigins: cfg.RPC.WSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPCAddress)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("rpc shutdown failed", slog.Any("error", err))
	}
	return <-errCh
}
