package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"rangekeeper/internal/model"
)

const (
	clockObjectID = "0x6"

	// sqrt-price limits for the two swap directions.
	minSqrtPrice = "4295048016"
	maxSqrtPrice = "79226673515401279992447579055"
)

// ContractConfig locates the deployed CLMM contracts the client drives.
type ContractConfig struct {
	// PackageID of the integrate package exposing the pool script entries.
	PackageID string
	// GlobalConfigID shared object passed to every pool call.
	GlobalConfigID string
	// PositionType is the full struct type of position objects, used to
	// filter owned objects.
	PositionType string
}

// SuiClient implements Client over the chain's JSON-RPC interface.
type SuiClient struct {
	rpc       *rpc.Client
	signer    Signer
	contracts ContractConfig
	gasBudget uint64
	logger    *zap.Logger
}

// NewSuiClient dials the RPC endpoint and wires the signer and contract
// addresses. The signer's address is the owner for coin selection.
func NewSuiClient(ctx context.Context, rpcURL string, signer Signer, contracts ContractConfig, gasBudget uint64, logger *zap.Logger) (*SuiClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if contracts.PackageID == "" || contracts.GlobalConfigID == "" {
		return nil, fmt.Errorf("contract package and global config ids are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &SuiClient{
		rpc:       rpcClient,
		signer:    signer,
		contracts: contracts,
		gasBudget: gasBudget,
		logger:    logger,
	}, nil
}

// Close closes the underlying RPC client.
func (c *SuiClient) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// Address returns the operator wallet address.
func (c *SuiClient) Address() string {
	return c.signer.Address()
}

// GetBalance returns the total balance of a coin type for an owner.
func (c *SuiClient) GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error) {
	var out struct {
		TotalBalance string `json:"totalBalance"`
	}
	if err := c.rpc.CallContext(ctx, &out, "suix_getBalance", owner, coinType); err != nil {
		return nil, fmt.Errorf("get balance %s: %w", coinType, err)
	}
	balance, ok := new(big.Int).SetString(out.TotalBalance, 10)
	if !ok {
		return nil, fmt.Errorf("get balance %s: bad amount %q", coinType, out.TotalBalance)
	}
	return balance, nil
}

type objectContent struct {
	Data struct {
		ObjectID string `json:"objectId"`
		Type     string `json:"type"`
		Content  struct {
			Fields json.RawMessage `json:"fields"`
		} `json:"content"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type i32Field struct {
	Fields struct {
		Bits uint32 `json:"bits"`
	} `json:"fields"`
}

type poolFields struct {
	CurrentSqrtPrice string   `json:"current_sqrt_price"`
	CurrentTickIndex i32Field `json:"current_tick_index"`
	TickSpacing      uint32   `json:"tick_spacing"`
}

// GetPool reads the current pool state: tick, sqrt price, coin types and
// tick spacing.
func (c *SuiClient) GetPool(ctx context.Context, poolID string) (model.Pool, error) {
	var out objectContent
	opts := map[string]bool{"showContent": true, "showType": true}
	if err := c.rpc.CallContext(ctx, &out, "sui_getObject", poolID, opts); err != nil {
		return model.Pool{}, fmt.Errorf("get pool %s: %w", poolID, err)
	}
	if out.Error != nil {
		return model.Pool{}, fmt.Errorf("get pool %s: %s", poolID, out.Error.Code)
	}

	var fields poolFields
	if err := json.Unmarshal(out.Data.Content.Fields, &fields); err != nil {
		return model.Pool{}, fmt.Errorf("get pool %s: decode fields: %w", poolID, err)
	}

	sqrtPrice, ok := new(big.Int).SetString(fields.CurrentSqrtPrice, 10)
	if !ok {
		return model.Pool{}, fmt.Errorf("get pool %s: bad sqrt price %q", poolID, fields.CurrentSqrtPrice)
	}
	coinA, coinB, err := poolTypeArgs(out.Data.Type)
	if err != nil {
		return model.Pool{}, fmt.Errorf("get pool %s: %w", poolID, err)
	}

	return model.Pool{
		ID:               poolID,
		CurrentTick:      DecodeTickBits(fields.CurrentTickIndex.Fields.Bits),
		CurrentSqrtPrice: sqrtPrice,
		CoinTypeA:        coinA,
		CoinTypeB:        coinB,
		TickSpacing:      int(fields.TickSpacing),
	}, nil
}

type positionFields struct {
	Pool           string   `json:"pool"`
	Liquidity      string   `json:"liquidity"`
	TickLowerIndex i32Field `json:"tick_lower_index"`
	TickUpperIndex i32Field `json:"tick_upper_index"`
	CoinTypeA      struct {
		Fields struct {
			Name string `json:"name"`
		} `json:"fields"`
	} `json:"coin_type_a"`
	CoinTypeB struct {
		Fields struct {
			Name string `json:"name"`
		} `json:"fields"`
	} `json:"coin_type_b"`
}

// GetPositionsByOwner lists all position objects the owner holds, across
// pagination pages.
func (c *SuiClient) GetPositionsByOwner(ctx context.Context, owner string) ([]model.Position, error) {
	query := map[string]interface{}{
		"filter":  map[string]interface{}{"StructType": c.contracts.PositionType},
		"options": map[string]bool{"showContent": true},
	}

	var positions []model.Position
	var cursor interface{}
	for {
		var page struct {
			Data        []objectContent `json:"data"`
			NextCursor  json.RawMessage `json:"nextCursor"`
			HasNextPage bool            `json:"hasNextPage"`
		}
		if err := c.rpc.CallContext(ctx, &page, "suix_getOwnedObjects", owner, query, cursor, 50); err != nil {
			return nil, fmt.Errorf("get owned positions: %w", err)
		}

		for _, obj := range page.Data {
			pos, err := parsePosition(obj)
			if err != nil {
				c.logger.Warn("skip unparseable position",
					zap.String("object_id", obj.Data.ObjectID),
					zap.Error(err),
				)
				continue
			}
			positions = append(positions, pos)
		}

		if !page.HasNextPage {
			return positions, nil
		}
		cursor = page.NextCursor
	}
}

func parsePosition(obj objectContent) (model.Position, error) {
	var fields positionFields
	if err := json.Unmarshal(obj.Data.Content.Fields, &fields); err != nil {
		return model.Position{}, fmt.Errorf("decode fields: %w", err)
	}
	liquidity, ok := new(big.Int).SetString(fields.Liquidity, 10)
	if !ok {
		return model.Position{}, fmt.Errorf("bad liquidity %q", fields.Liquidity)
	}
	return model.Position{
		ID:        obj.Data.ObjectID,
		PoolID:    fields.Pool,
		TickLower: DecodeTickBits(fields.TickLowerIndex.Fields.Bits),
		TickUpper: DecodeTickBits(fields.TickUpperIndex.Fields.Bits),
		Liquidity: liquidity,
		CoinTypeA: normalizeCoinType(fields.CoinTypeA.Fields.Name),
		CoinTypeB: normalizeCoinType(fields.CoinTypeB.Fields.Name),
	}, nil
}

// BuildRemoveLiquidityPayload builds a pool_script::remove_liquidity call.
func (c *SuiClient) BuildRemoveLiquidityPayload(ctx context.Context, p RemoveLiquidityParams) (Payload, error) {
	args := []interface{}{
		c.contracts.GlobalConfigID,
		p.PoolID,
		p.PositionID,
		decString(p.Liquidity),
		decString(p.MinAmountA),
		decString(p.MinAmountB),
		clockObjectID,
	}
	return c.moveCall(ctx, "pool_script", "remove_liquidity", []string{p.CoinTypeA, p.CoinTypeB}, args)
}

// BuildAddLiquidityPayload builds a fix-coin deposit into an existing
// position, selecting coin objects to fund both sides.
func (c *SuiClient) BuildAddLiquidityPayload(ctx context.Context, p AddLiquidityParams) (Payload, error) {
	coinsA, err := c.selectCoins(ctx, p.CoinTypeA, p.AmountA)
	if err != nil {
		return Payload{}, err
	}
	coinsB, err := c.selectCoins(ctx, p.CoinTypeB, p.AmountB)
	if err != nil {
		return Payload{}, err
	}

	args := []interface{}{
		c.contracts.GlobalConfigID,
		p.PoolID,
		p.PositionID,
		coinsA,
		coinsB,
		decString(p.AmountA),
		decString(p.AmountB),
		p.FixA,
		clockObjectID,
	}
	return c.moveCall(ctx, "pool_script", "add_liquidity_by_fix_coin", []string{p.CoinTypeA, p.CoinTypeB}, args)
}

// BuildOpenPositionPayload builds a combined open-and-deposit call. Tick
// bounds travel as u32 bit patterns.
func (c *SuiClient) BuildOpenPositionPayload(ctx context.Context, p OpenPositionParams) (Payload, error) {
	coinsA, err := c.selectCoins(ctx, p.CoinTypeA, p.AmountA)
	if err != nil {
		return Payload{}, err
	}
	coinsB, err := c.selectCoins(ctx, p.CoinTypeB, p.AmountB)
	if err != nil {
		return Payload{}, err
	}

	args := []interface{}{
		c.contracts.GlobalConfigID,
		p.PoolID,
		fmt.Sprintf("%d", EncodeTickBits(p.TickLower)),
		fmt.Sprintf("%d", EncodeTickBits(p.TickUpper)),
		coinsA,
		coinsB,
		decString(p.AmountA),
		decString(p.AmountB),
		p.FixA,
		clockObjectID,
	}
	return c.moveCall(ctx, "pool_script", "open_position_with_liquidity_by_fix_coin", []string{p.CoinTypeA, p.CoinTypeB}, args)
}

// BuildSwapPayload builds a directional swap within the pool.
func (c *SuiClient) BuildSwapPayload(ctx context.Context, p SwapParams) (Payload, error) {
	if !p.ByAmountIn && (p.AmountLimit == nil || p.AmountLimit.Sign() <= 0) {
		return Payload{}, fmt.Errorf("fixed-output swap requires a positive max input limit")
	}

	sourceType := p.CoinTypeA
	function := "swap_a2b"
	sqrtPriceLimit := minSqrtPrice
	if !p.AToB {
		sourceType = p.CoinTypeB
		function = "swap_b2a"
		sqrtPriceLimit = maxSqrtPrice
	}

	// Coin selection needs the input side covered. For a fixed-output swap
	// the input is unknown up front, so select against the full balance.
	selectTarget := p.Amount
	if !p.ByAmountIn {
		balance, err := c.GetBalance(ctx, c.signer.Address(), sourceType)
		if err != nil {
			return Payload{}, err
		}
		selectTarget = balance
	}
	coins, err := c.selectCoins(ctx, sourceType, selectTarget)
	if err != nil {
		return Payload{}, err
	}

	args := []interface{}{
		c.contracts.GlobalConfigID,
		p.PoolID,
		coins,
		p.ByAmountIn,
		decString(p.Amount),
		decString(p.AmountLimit),
		sqrtPriceLimit,
		clockObjectID,
	}
	return c.moveCall(ctx, "pool_script", function, []string{p.CoinTypeA, p.CoinTypeB}, args)
}

// SignAndExecute signs a built payload and submits it, waiting for local
// execution so effects are available to the caller.
func (c *SuiClient) SignAndExecute(ctx context.Context, payload Payload) (TxResult, error) {
	txBytes, err := decodeBase64(payload.TxBytes)
	if err != nil {
		return TxResult{}, fmt.Errorf("decode tx bytes: %w", err)
	}
	signature, err := c.signer.Sign(txBytes)
	if err != nil {
		return TxResult{}, fmt.Errorf("sign transaction: %w", err)
	}

	var out struct {
		Digest  string `json:"digest"`
		Effects struct {
			Status struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"status"`
		} `json:"effects"`
		RawEffects    json.RawMessage `json:"rawEffects"`
		ObjectChanges json.RawMessage `json:"objectChanges"`
	}
	opts := map[string]bool{"showEffects": true, "showObjectChanges": true}
	err = c.rpc.CallContext(ctx, &out, "sui_executeTransactionBlock",
		payload.TxBytes, []string{signature}, opts, "WaitForLocalExecution")
	if err != nil {
		return TxResult{}, fmt.Errorf("execute transaction: %w", err)
	}

	result := TxResult{
		Status:        StatusSuccess,
		Digest:        out.Digest,
		Effects:       out.RawEffects,
		ObjectChanges: out.ObjectChanges,
	}
	if out.Effects.Status.Status != "success" {
		result.Status = StatusFailure
		result.Error = out.Effects.Status.Error
	}
	return result, nil
}

// moveCall builds transaction bytes for an entry function call, letting the
// node pick the gas object.
func (c *SuiClient) moveCall(ctx context.Context, module, function string, typeArgs []string, args []interface{}) (Payload, error) {
	var out struct {
		TxBytes string `json:"txBytes"`
	}
	err := c.rpc.CallContext(ctx, &out, "unsafe_moveCall",
		c.signer.Address(),
		c.contracts.PackageID,
		module,
		function,
		typeArgs,
		args,
		nil,
		fmt.Sprintf("%d", c.gasBudget),
	)
	if err != nil {
		return Payload{}, fmt.Errorf("build %s::%s: %w", module, function, err)
	}
	return Payload{TxBytes: out.TxBytes}, nil
}

// selectCoins greedily picks coin objects of the given type until their
// combined value covers the target amount. The native coin's gas object is
// left to the node's gas selection, so the first page order is fine.
func (c *SuiClient) selectCoins(ctx context.Context, coinType string, target *big.Int) ([]string, error) {
	if target == nil || target.Sign() <= 0 {
		return []string{}, nil
	}

	owner := c.signer.Address()
	var ids []string
	total := new(big.Int)
	var cursor interface{}
	for {
		var page struct {
			Data []struct {
				CoinObjectID string `json:"coinObjectId"`
				Balance      string `json:"balance"`
			} `json:"data"`
			NextCursor  json.RawMessage `json:"nextCursor"`
			HasNextPage bool            `json:"hasNextPage"`
		}
		if err := c.rpc.CallContext(ctx, &page, "suix_getCoins", owner, coinType, cursor, 50); err != nil {
			return nil, fmt.Errorf("get coins %s: %w", coinType, err)
		}

		for _, coin := range page.Data {
			value, ok := new(big.Int).SetString(coin.Balance, 10)
			if !ok {
				continue
			}
			ids = append(ids, coin.CoinObjectID)
			total.Add(total, value)
			if total.Cmp(target) >= 0 {
				return ids, nil
			}
		}

		if !page.HasNextPage {
			return nil, fmt.Errorf("insufficient balance of %s: expect %s, have %s", coinType, target, total)
		}
		cursor = page.NextCursor
	}
}

func decString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
