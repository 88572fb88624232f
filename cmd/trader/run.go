package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llm-crypto-trader/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a decision cycle every trader.interval_minutes until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single decision cycle and print the outcomes as JSON",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := initializeSystem(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer shutdownSystem(context.Background())

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if a.cfg.Metrics.Enabled {
		startMetricsServer(ctx, a.cfg.Metrics.Addr, a.metrics)
	}

	interval := time.Duration(a.cfg.Trader.IntervalMinutes) * time.Minute
	logger.Info(ctx, "Trader started",
		"mode", a.cfg.Mode,
		"instruments", a.cfg.Trader.Instruments,
		"interval", interval.String(),
	)

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		// persistence errors are logged by the engine; the loop keeps going
		_, _ = a.engine.RunCycle(ctx)

		select {
		case <-tick.C:
		case <-ctx.Done():
			logger.Info(context.Background(), "Shutting down...")
			return nil
		}
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	if err := initializeSystem(); err != nil {
		return err
	}
	ctx := cmd.Context()
	defer shutdownSystem(context.Background())

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	outcomes, cycleErr := a.engine.RunCycle(ctx)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcomes); err != nil {
		return fmt.Errorf("encode outcomes: %w", err)
	}
	return cycleErr
}
