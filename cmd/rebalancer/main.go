package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "rebalancer",
		Short:        "CLMM position rebalancing bot",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("network", "mainnet", "network selector (mainnet, testnet)")
	root.PersistentFlags().String("rpc", "", "custom RPC URL")
	root.PersistentFlags().String("key", "", "ed25519 signing key (hex or base64 seed)")
	root.PersistentFlags().String("pool", "", "pool object id to manage")
	root.PersistentFlags().String("package-id", "", "CLMM integrate package id")
	root.PersistentFlags().String("global-config-id", "", "CLMM global config object id")
	root.PersistentFlags().String("position-type", "", "full struct type of position objects")
	root.PersistentFlags().String("position-id", "", "position id to track (auto-selected when empty)")
	root.PersistentFlags().Float64("threshold", 0.05, "edge-distance fraction that triggers a rebalance")
	root.PersistentFlags().Int("range-width", 0, "tick width for new ranges (0 = tightest)")
	root.PersistentFlags().Float64("slippage", 0.01, "max slippage tolerance")
	root.PersistentFlags().Uint64("gas-budget", 100_000_000, "gas budget per transaction")
	root.PersistentFlags().String("gas-reserve", "50000000", "native balance withheld for gas")
	root.PersistentFlags().Int("max-retries", 3, "maximum retry attempts")
	root.PersistentFlags().Duration("retry-delay", 2*time.Second, "initial retry backoff")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("dry-run", false, "compute and log actions without submitting")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run scheduled check-and-rebalance cycles",
		RunE:  runLoop,
	}
	runCmd.Flags().Duration("check-interval", time.Minute, "time between cycles")
	root.AddCommand(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single check-and-rebalance cycle",
		RunE:  runCheck,
	}
	root.AddCommand(checkCmd)

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open an initial position in the pool",
		RunE:  runOpen,
	}
	openCmd.Flags().Int("lower-tick", 0, "fixed lower tick bound")
	openCmd.Flags().Int("upper-tick", 0, "fixed upper tick bound")
	openCmd.Flags().String("amount-a", "", "seed amount of token A")
	openCmd.Flags().String("amount-b", "", "seed amount of token B")
	root.AddCommand(openCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List owned positions in the pool",
		RunE:  runPositions,
	}
	root.AddCommand(positionsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runLoop(cmd *cobra.Command, _ []string) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info("rebalancer start",
		zap.String("pool", app.cfg.PoolID),
		zap.Duration("check_interval", app.cfg.CheckInterval),
		zap.Bool("dry_run", app.cfg.DryRun),
	)

	cycle := func() {
		result := app.engine.CheckAndRebalance(ctx, app.cfg.PoolID)
		if !result.Success {
			// A failed cycle is logged and the schedule continues.
			app.logger.Error("cycle failed", zap.String("error", result.Error))
			return
		}
		if result.Digest != "" {
			app.logger.Info("cycle rebalanced",
				zap.String("digest", result.Digest),
				zap.String("old_range", rangeStr(result.OldRange)),
				zap.String("new_range", rangeStr(result.NewRange)),
			)
		}
	}

	cycle()

	scheduler := cron.New()
	if err := scheduler.AddFunc(fmt.Sprintf("@every %s", app.cfg.CheckInterval), cycle); err != nil {
		return fmt.Errorf("schedule cycles: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()
	app.logger.Info("rebalancer stopping")
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := app.engine.CheckAndRebalance(ctx, app.cfg.PoolID)
	if !result.Success {
		return fmt.Errorf("check failed: %s", result.Error)
	}
	if result.Digest != "" {
		app.logger.Info("rebalanced",
			zap.String("digest", result.Digest),
			zap.String("old_range", rangeStr(result.OldRange)),
			zap.String("new_range", rangeStr(result.NewRange)),
		)
	}
	return nil
}

func runOpen(cmd *cobra.Command, _ []string) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := app.engine.OpenPosition(ctx, app.cfg.PoolID)
	if !result.Success {
		return fmt.Errorf("open position failed: %s", result.Error)
	}
	app.logger.Info("opened",
		zap.String("digest", result.Digest),
		zap.String("range", rangeStr(result.NewRange)),
		zap.String("position", app.engine.TrackedPositionID()),
	)
	return nil
}

func runPositions(cmd *cobra.Command, _ []string) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	positions, err := app.client.GetPositionsByOwner(ctx, app.client.Address())
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}

	count := 0
	for _, pos := range positions {
		if app.cfg.PoolID != "" && pos.PoolID != app.cfg.PoolID {
			continue
		}
		count++
		fmt.Printf("%s  pool=%s  range=[%d, %d]  liquidity=%s\n",
			pos.ID, pos.PoolID, pos.TickLower, pos.TickUpper, pos.Liquidity)
	}
	if count == 0 {
		fmt.Println("no positions found")
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
