package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithArgs(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("network", "", "")
	fs.String("rpc", "", "")
	fs.String("pool", "", "")
	fs.Float64("threshold", 0, "")
	fs.Int("range-width", 0, "")
	fs.Int("lower-tick", 0, "")
	fs.Int("upper-tick", 0, "")
	fs.String("amount-a", "", "")
	fs.String("amount-b", "", "")
	fs.String("gas-reserve", "", "")
	require.NoError(t, fs.Parse(args))
	return Load("", fs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWithArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, networkRPC["mainnet"], cfg.RPCURL)
	assert.Equal(t, 0.05, cfg.Threshold)
	assert.Equal(t, uint64(100_000_000), cfg.GasBudget)
	require.NotNil(t, cfg.GasReserve)
	assert.Equal(t, "50000000", cfg.GasReserve.String())
	assert.Nil(t, cfg.LowerTick)
	assert.Nil(t, cfg.UpperTick)
	assert.Nil(t, cfg.AmountA)
}

func TestLoadNetworkRPCFallback(t *testing.T) {
	cfg, err := loadWithArgs(t, "--network", "testnet")
	require.NoError(t, err)
	assert.Equal(t, networkRPC["testnet"], cfg.RPCURL)

	cfg, err = loadWithArgs(t, "--network", "devnet", "--rpc", "https://example.test:443")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test:443", cfg.RPCURL)

	_, err = loadWithArgs(t, "--network", "devnet")
	require.Error(t, err)
}

func TestLoadTicksMustBeSetTogether(t *testing.T) {
	_, err := loadWithArgs(t, "--lower-tick", "-120")
	require.Error(t, err)

	cfg, err := loadWithArgs(t, "--lower-tick", "-120", "--upper-tick", "120")
	require.NoError(t, err)
	require.NotNil(t, cfg.LowerTick)
	require.NotNil(t, cfg.UpperTick)
	assert.Equal(t, -120, *cfg.LowerTick)
	assert.Equal(t, 120, *cfg.UpperTick)
}

func TestLoadAmounts(t *testing.T) {
	cfg, err := loadWithArgs(t, "--amount-a", "123456789012345678901234567890")
	require.NoError(t, err)
	require.NotNil(t, cfg.AmountA)
	assert.Equal(t, "123456789012345678901234567890", cfg.AmountA.String())
	assert.Nil(t, cfg.AmountB)

	_, err = loadWithArgs(t, "--amount-a", "12.5")
	require.Error(t, err)

	_, err = loadWithArgs(t, "--gas-reserve", "-1")
	require.Error(t, err)
}
