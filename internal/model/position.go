package model

import "math/big"

// Position represents a liquidity position owned by the operator wallet.
type Position struct {
	ID        string
	PoolID    string
	TickLower int
	TickUpper int
	Liquidity *big.Int
	CoinTypeA string
	CoinTypeB string
}

// HasLiquidity reports whether the position still holds any liquidity.
func (p Position) HasLiquidity() bool {
	return p.Liquidity != nil && p.Liquidity.Sign() > 0
}

// Width returns the tick width of the position's range.
func (p Position) Width() int {
	return p.TickUpper - p.TickLower
}

// InRange reports whether the given tick lies within the position's bounds.
// Both edges count as in range.
func (p Position) InRange(tick int) bool {
	return tick >= p.TickLower && tick <= p.TickUpper
}
