package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default RPC endpoints per network selector.
var networkRPC = map[string]string{
	"mainnet": "https://fullnode.mainnet.sui.io:443",
	"testnet": "https://fullnode.testnet.sui.io:443",
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network string
	RPCURL  string
	Key     string

	PoolID     string
	PositionID string

	PackageID      string
	GlobalConfigID string
	PositionType   string

	CheckInterval time.Duration
	Threshold     float64
	RangeWidth    int
	LowerTick     *int
	UpperTick     *int
	AmountA       *big.Int
	AmountB       *big.Int
	Slippage      float64
	GasBudget     uint64
	GasReserve    *big.Int

	MaxRetries int
	RetryDelay time.Duration

	LogLevel string
	DryRun   bool
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REBALANCER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "mainnet")
	v.SetDefault("check-interval", time.Minute)
	v.SetDefault("threshold", 0.05)
	v.SetDefault("range-width", 0)
	v.SetDefault("slippage", 0.01)
	v.SetDefault("gas-budget", uint64(100_000_000))
	v.SetDefault("gas-reserve", "50000000")
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-delay", 2*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Network:        v.GetString("network"),
		RPCURL:         v.GetString("rpc"),
		Key:            v.GetString("key"),
		PoolID:         v.GetString("pool"),
		PositionID:     v.GetString("position-id"),
		PackageID:      v.GetString("package-id"),
		GlobalConfigID: v.GetString("global-config-id"),
		PositionType:   v.GetString("position-type"),
		CheckInterval:  v.GetDuration("check-interval"),
		Threshold:      v.GetFloat64("threshold"),
		RangeWidth:     v.GetInt("range-width"),
		Slippage:       v.GetFloat64("slippage"),
		GasBudget:      v.GetUint64("gas-budget"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryDelay:     v.GetDuration("retry-delay"),
		LogLevel:       v.GetString("log-level"),
		DryRun:         v.GetBool("dry-run"),
	}

	if cfg.RPCURL == "" {
		cfg.RPCURL = networkRPC[cfg.Network]
	}
	if cfg.RPCURL == "" {
		return Config{}, fmt.Errorf("unknown network %q and no rpc url given", cfg.Network)
	}

	var err error
	if cfg.GasReserve, err = optionalAmount(v, "gas-reserve"); err != nil {
		return Config{}, err
	}
	if cfg.AmountA, err = optionalAmount(v, "amount-a"); err != nil {
		return Config{}, err
	}
	if cfg.AmountB, err = optionalAmount(v, "amount-b"); err != nil {
		return Config{}, err
	}
	cfg.LowerTick = optionalTick(v, "lower-tick")
	cfg.UpperTick = optionalTick(v, "upper-tick")
	if (cfg.LowerTick == nil) != (cfg.UpperTick == nil) {
		return Config{}, fmt.Errorf("lower-tick and upper-tick must be set together")
	}

	return cfg, nil
}

// optionalAmount parses a decimal token amount, nil when unset. Amounts are
// strings in config because they exceed float precision.
func optionalAmount(v *viper.Viper, key string) (*big.Int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%s: %q is not a non-negative integer amount", key, raw)
	}
	return amount, nil
}

func optionalTick(v *viper.Viper, key string) *int {
	if !v.IsSet(key) {
		return nil
	}
	tick := v.GetInt(key)
	return &tick
}
