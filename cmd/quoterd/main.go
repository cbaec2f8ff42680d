// Command quoterd runs the dual-loop quoting fleet.
package main

import (
	"context"
	"flag"
	"fmt"
	"market_quoter/internal/bootstrap"
	"market_quoter/internal/config"
	"market_quoter/internal/core"
	"market_quoter/internal/engine"
	"market_quoter/internal/feed"
	"market_quoter/internal/fleet"
	"market_quoter/internal/journal"
	"market_quoter/internal/metrics"
	"market_quoter/internal/paper"
	"market_quoter/internal/trading/lifecycle"
	"market_quoter/pkg/logging"
	"market_quoter/pkg/telemetry"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "quoterd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// Telemetry first so the logger's OTel bridge has a provider.
	tel, err := telemetry.Setup("market_quoter")
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := logging.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		"mode", cfg.App.Mode,
		"instruments", len(cfg.Instruments))

	var metricsServer *metrics.Server
	if cfg.Telemetry.EnableMetrics {
		metricsServer = metrics.NewServer(cfg.Telemetry.MetricsPort, logger)
		metricsServer.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Stop(stopCtx)
		}()
	}

	var orderJournal core.IOrderJournal
	if cfg.Journal.Path != "" {
		store, err := journal.NewStore(cfg.Journal.Path, logger)
		if err != nil {
			return fmt.Errorf("journal setup: %w", err)
		}
		defer store.Close()
		orderJournal = store
	}

	// The paper venue executes orders in both modes; in feed mode it marks
	// against live quotes instead of simulated ones.
	venue := paper.NewVenue(logger)

	var data core.IMarketData
	switch cfg.App.Mode {
	case "paper":
		basePrices := make(map[string]decimal.Decimal, len(cfg.Instruments))
		for _, inst := range cfg.Instruments {
			basePrices[inst.Symbol] = decimal.NewFromFloat(inst.BasePrice)
		}
		data = paper.NewMarket(venue, basePrices, logger)
	case "feed":
		stream := feed.NewStream(cfg.Feed.URL, venue, logger)
		stream.SetQuoteSink(venue.MarkPrice)
		data = stream
	default:
		return fmt.Errorf("unknown mode %q", cfg.App.Mode)
	}

	controller := lifecycle.NewController(venue, orderJournal, logger)

	engines := make([]*engine.Engine, 0, len(cfg.Instruments))
	for _, ec := range cfg.EngineConfigs() {
		engines = append(engines, engine.New(ec, data, controller, logger))
	}

	fl := fleet.New(engines, venue, logger, cfg.StartupSettle())

	app := bootstrap.NewApp(logger)
	return app.Run(
		bootstrap.RunnerFunc(venue.Start),
		bootstrap.RunnerFunc(data.Start),
		bootstrap.RunnerFunc(fl.Run),
	)
}
