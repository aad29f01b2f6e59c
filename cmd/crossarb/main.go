// Package main is the entry point for the cross-venue arbitrage scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	arbitrageApp "crossarb/business/arbitrage/app"
	marketApp "crossarb/business/market/app"
	marketDomain "crossarb/business/market/domain"
	"crossarb/business/market/infra/ammpool"
	"crossarb/business/market/infra/exchange"
	"crossarb/internal/config"
	"crossarb/internal/health"
	"crossarb/internal/metrics"
	"crossarb/internal/ratelimit"
	"crossarb/internal/store"
	"crossarb/internal/store/memory"
	"crossarb/internal/store/postgres"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crossarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.App.LogLevel)
	logger.Info("starting scanner",
		"version", version,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Backend)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seedStore(ctx, cfg, st); err != nil {
		return err
	}

	// Venue clients by kind.
	registry := marketApp.NewClientRegistry()
	registry.RegisterKind(marketDomain.VenueKindExchange,
		func(vc marketDomain.VenueConfig) (marketApp.VenueClient, error) {
			return exchange.New(vc, logger)
		})
	registry.RegisterKind(marketDomain.VenueKindAMMPool,
		func(vc marketDomain.VenueConfig) (marketApp.VenueClient, error) {
			return ammpool.New(vc, logger)
		})

	limits := ratelimit.NewRegistry(cfg.Scan.RateLimit, cfg.Scan.RateWindow)
	aggregator := marketApp.NewAggregator(registry, limits, cfg.Scan.CallTimeout, logger)

	loop := arbitrageApp.NewScanLoop(
		st,
		aggregator,
		arbitrageApp.NewDetector(logger),
		arbitrageApp.NewProfitModel(),
		logger,
	)

	healthSrv := health.NewServer(cfg.Telemetry.HealthPort, version)
	healthSrv.RegisterCheck("scan_loop", func(context.Context) (bool, string) {
		state := loop.State()
		return state == arbitrageApp.StateRunning, string(state)
	})
	healthSrv.RegisterCheck("store", func(ctx context.Context) (bool, string) {
		if _, err := st.Settings(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	if err := healthSrv.Start(); err != nil {
		return err
	}

	metricsSrv := metrics.NewServer(cfg.Telemetry.PrometheusPort)
	metricsSrv.Start()

	loop.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	loop.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Stop(shutdownCtx)
	_ = metricsSrv.Stop(shutdownCtx)

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.ClientConfig{
			DSN:      cfg.Store.Postgres.DSN,
			Host:     cfg.Store.Postgres.Host,
			Port:     cfg.Store.Postgres.Port,
			Database: cfg.Store.Postgres.Database,
			User:     cfg.Store.Postgres.User,
			Password: cfg.Store.Postgres.Password,
			SSLMode:  cfg.Store.Postgres.SSLMode,
			MaxConns: cfg.Store.Postgres.MaxConns,
			MinConns: cfg.Store.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return postgres.New(pool, cfg.Store.Retention), nil
	default:
		return memory.New(cfg.Store.Retention), nil
	}
}

// seedStore pushes the configured settings, venues, and instruments into
// storage so the first cycle has a complete view.
func seedStore(ctx context.Context, cfg *config.Config, st store.Store) error {
	if err := st.UpdateSettings(ctx, cfg.Scan.ScanSettings()); err != nil {
		return err
	}
	for _, venue := range cfg.VenueConfigs() {
		if err := st.UpsertVenue(ctx, venue); err != nil {
			return err
		}
	}
	instruments, err := cfg.InstrumentList()
	if err != nil {
		return err
	}
	for _, inst := range instruments {
		if err := st.UpsertInstrument(ctx, inst, true); err != nil {
			return err
		}
	}
	return nil
}
