package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangekeeper/internal/chain"
	"rangekeeper/internal/config"
	"rangekeeper/internal/model"
	"rangekeeper/internal/rebalance"
)

// app bundles the wired collaborators a command works with.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	client *chain.SuiClient
	engine *rebalance.Engine
}

func setup(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.PoolID == "" {
		return nil, fmt.Errorf("pool id is required")
	}
	if cfg.PackageID == "" || cfg.GlobalConfigID == "" || cfg.PositionType == "" {
		return nil, fmt.Errorf("package-id, global-config-id and position-type are required")
	}

	signer, err := chain.NewEd25519Signer(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	client, err := chain.NewSuiClient(context.Background(), cfg.RPCURL, signer, chain.ContractConfig{
		PackageID:      cfg.PackageID,
		GlobalConfigID: cfg.GlobalConfigID,
		PositionType:   cfg.PositionType,
	}, cfg.GasBudget, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	engine, err := rebalance.NewEngine(rebalance.Config{
		Threshold:         cfg.Threshold,
		RangeWidth:        cfg.RangeWidth,
		LowerTick:         cfg.LowerTick,
		UpperTick:         cfg.UpperTick,
		SeedAmountA:       cfg.AmountA,
		SeedAmountB:       cfg.AmountB,
		GasReserve:        cfg.GasReserve,
		Slippage:          cfg.Slippage,
		TrackedPositionID: cfg.PositionID,
		MaxRetries:        cfg.MaxRetries,
		RetryDelay:        cfg.RetryDelay,
		DryRun:            cfg.DryRun,
	}, client, signer.Address(), logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, client: client, engine: engine}, nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func rangeStr(r *model.TickRange) string {
	if r == nil {
		return "-"
	}
	return r.String()
}
