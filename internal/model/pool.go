package model

import "math/big"

// Pool represents the on-chain state of a CLMM pool at read time. It is
// fetched fresh before every decision point and never cached across retries.
type Pool struct {
	ID               string
	CurrentTick      int
	CurrentSqrtPrice *big.Int
	CoinTypeA        string
	CoinTypeB        string
	TickSpacing      int
}
