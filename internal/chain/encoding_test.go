package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickBitsRoundTrip(t *testing.T) {
	cases := []struct {
		tick int
		bits uint32
	}{
		{0, 0},
		{1, 1},
		{443636, 443636},
		{-1, 4294967295},
		{-60, 4294967236},
		{-443636, 4294523660},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tick, DecodeTickBits(tc.bits), "decode %d", tc.bits)
		assert.Equal(t, tc.bits, EncodeTickBits(tc.tick), "encode %d", tc.tick)
	}
}

func TestPoolTypeArgs(t *testing.T) {
	a, b, err := poolTypeArgs("0xabc::pool::Pool<0x2::sui::SUI, 0xdef::usdc::USDC>")
	require.NoError(t, err)
	assert.Equal(t, "0x2::sui::SUI", a)
	assert.Equal(t, "0xdef::usdc::USDC", b)

	// Nested generics must not be split at their inner commas.
	a, b, err = poolTypeArgs("0xabc::pool::Pool<0x1::wrap::W<0x2::x::X, 0x3::y::Y>, 0xdef::usdc::USDC>")
	require.NoError(t, err)
	assert.Equal(t, "0x1::wrap::W<0x2::x::X, 0x3::y::Y>", a)
	assert.Equal(t, "0xdef::usdc::USDC", b)

	_, _, err = poolTypeArgs("0xabc::pool::Pool")
	require.Error(t, err)

	_, _, err = poolTypeArgs("0xabc::pool::Pool<0x2::sui::SUI>")
	require.Error(t, err)
}

func TestNormalizeCoinType(t *testing.T) {
	assert.Equal(t, "0x2::sui::SUI", normalizeCoinType("2::sui::SUI"))
	assert.Equal(t, "0x2::sui::SUI", normalizeCoinType("0x2::sui::SUI"))
	assert.Equal(t, "0xdef::usdc::USDC", normalizeCoinType("  def::usdc::USDC "))
	assert.Equal(t, "", normalizeCoinType(""))
}

func TestIsNativeCoin(t *testing.T) {
	assert.True(t, IsNativeCoin("0x2::sui::SUI"))
	assert.True(t, IsNativeCoin("0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"))
	assert.False(t, IsNativeCoin("0xdef::usdc::USDC"))
	assert.False(t, IsNativeCoin("0x2::sui::SUIP"))
}
