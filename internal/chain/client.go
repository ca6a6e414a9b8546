package chain

import (
	"context"
	"encoding/json"
	"math/big"

	"rangekeeper/internal/model"
)

// TxStatus is the terminal status of an executed transaction.
type TxStatus string

const (
	StatusSuccess TxStatus = "success"
	StatusFailure TxStatus = "failure"
)

// TxResult carries the outcome of an executed transaction block.
type TxResult struct {
	Status        TxStatus
	Digest        string
	Error         string
	Effects       json.RawMessage
	ObjectChanges json.RawMessage
}

// Payload is a built, signable transaction: BCS bytes in base64.
type Payload struct {
	TxBytes string
}

// RemoveLiquidityParams describes a liquidity withdrawal from a position.
type RemoveLiquidityParams struct {
	PoolID     string
	PositionID string
	CoinTypeA  string
	CoinTypeB  string
	Liquidity  *big.Int
	MinAmountA *big.Int
	MinAmountB *big.Int
}

// AddLiquidityParams describes a deposit into an existing position. The
// fixed side's amount is taken verbatim; the pool computes the proportional
// counterpart for the other side, capped by its limit amount.
type AddLiquidityParams struct {
	PoolID     string
	PositionID string
	CoinTypeA  string
	CoinTypeB  string
	AmountA    *big.Int
	AmountB    *big.Int
	FixA       bool
}

// OpenPositionParams opens a new position and makes its first deposit in a
// single transaction, so the fresh position object is never left in an
// intermediate unusable state.
type OpenPositionParams struct {
	PoolID    string
	CoinTypeA string
	CoinTypeB string
	TickLower int
	TickUpper int
	AmountA   *big.Int
	AmountB   *big.Int
	FixA      bool
}

// SwapParams describes a swap within the managed pool. Amount is the input
// amount of the source token when ByAmountIn is true, or the desired output
// amount of the destination token otherwise. AmountLimit bounds the unfixed
// side: the minimum acceptable output for a fixed-input swap, or the maximum
// spend for a fixed-output swap. A fixed-output swap needs a positive limit;
// the contract rejects any input above it, so zero can never execute.
type SwapParams struct {
	PoolID      string
	CoinTypeA   string
	CoinTypeB   string
	AToB        bool
	Amount      *big.Int
	ByAmountIn  bool
	AmountLimit *big.Int
}

// Client is the wallet/RPC collaborator: balance and pool/position reads,
// payload construction, and signed execution. The rebalance engine depends
// only on this interface.
type Client interface {
	GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error)
	GetPool(ctx context.Context, poolID string) (model.Pool, error)
	GetPositionsByOwner(ctx context.Context, owner string) ([]model.Position, error)

	BuildRemoveLiquidityPayload(ctx context.Context, p RemoveLiquidityParams) (Payload, error)
	BuildAddLiquidityPayload(ctx context.Context, p AddLiquidityParams) (Payload, error)
	BuildOpenPositionPayload(ctx context.Context, p OpenPositionParams) (Payload, error)
	BuildSwapPayload(ctx context.Context, p SwapParams) (Payload, error)

	SignAndExecute(ctx context.Context, payload Payload) (TxResult, error)
}
