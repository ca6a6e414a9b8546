package rebalance

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"rangekeeper/internal/chain"
	"rangekeeper/internal/model"
)

// Config holds the engine's decision parameters.
type Config struct {
	// Threshold is the edge-distance fraction below which an in-range
	// position is still rebalanced.
	Threshold float64
	// RangeWidth is the default width for new ranges; 0 means the tightest
	// single-spacing bin.
	RangeWidth int
	// LowerTick/UpperTick optionally pin the range of an explicitly opened
	// position instead of computing one.
	LowerTick *int
	UpperTick *int
	// SeedAmountA/SeedAmountB cap the deposit of an explicitly opened
	// position; nil means the full safe wallet balance.
	SeedAmountA *big.Int
	SeedAmountB *big.Int
	// GasReserve is withheld from the native coin's deployable balance.
	GasReserve *big.Int
	// Slippage is the configured tolerance for price movement. Protective
	// execution limits need the DEX SDK's quoting math, which is delegated;
	// the value is carried for the payload builder and logged.
	Slippage float64
	// TrackedPositionID optionally names the position to manage. When empty
	// the position with the greatest liquidity is adopted.
	TrackedPositionID string
	// MaxRetries and RetryDelay parametrize transient-failure retries.
	MaxRetries int
	RetryDelay time.Duration
	// DryRun computes and logs intended transactions without submitting.
	DryRun bool
}

// Engine owns the check-and-rebalance cycle for a single wallet. It is not
// reentrant: overlapping cycles are rejected by an in-flight guard, and the
// tracked-position id is mutated only inside a held cycle.
type Engine struct {
	cfg    Config
	chain  chain.Client
	owner  string
	logger *zap.Logger

	tracked string
	busy    atomic.Bool
}

// NewEngine builds an engine around the chain client for one owner wallet.
func NewEngine(cfg Config, client chain.Client, owner string, logger *zap.Logger) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if owner == "" {
		return nil, fmt.Errorf("owner address is required")
	}
	if cfg.Threshold < 0 || cfg.Threshold >= 0.5 {
		return nil, fmt.Errorf("threshold must be in [0, 0.5), got %v", cfg.Threshold)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GasReserve == nil {
		cfg.GasReserve = new(big.Int)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	logger.Info("rebalance engine configured",
		zap.Float64("threshold", cfg.Threshold),
		zap.Int("range_width", cfg.RangeWidth),
		zap.Float64("max_slippage", cfg.Slippage),
		zap.String("gas_reserve", cfg.GasReserve.String()),
		zap.String("tracked_position", cfg.TrackedPositionID),
		zap.Bool("dry_run", cfg.DryRun),
	)

	return &Engine{
		cfg:     cfg,
		chain:   client,
		owner:   owner,
		logger:  logger,
		tracked: cfg.TrackedPositionID,
	}, nil
}

// TrackedPositionID returns the id of the position the engine currently
// manages, empty until one is adopted.
func (e *Engine) TrackedPositionID() string {
	return e.tracked
}

// CheckAndRebalance runs one decision cycle: read pool and position state,
// decide whether the tracked position needs repositioning, and execute the
// rebalance when it does. Failures come back as result values, never as a
// panic or error, so a scheduler can log and carry on.
func (e *Engine) CheckAndRebalance(ctx context.Context, poolID string) model.RebalanceResult {
	if !e.busy.CompareAndSwap(false, true) {
		return failure("rebalance cycle already in flight")
	}
	defer e.busy.Store(false)

	pool, err := e.chain.GetPool(ctx, poolID)
	if err != nil {
		return failure(fmt.Sprintf("fetch pool: %v", err))
	}

	positions, err := e.poolPositions(ctx, poolID)
	if err != nil {
		return failure(fmt.Sprintf("fetch positions: %v", err))
	}
	if len(positions) == 0 {
		// A routine check never creates a position out of nothing.
		e.logger.Info("no positions in pool, nothing to manage", zap.String("pool", poolID))
		return model.RebalanceResult{Success: true}
	}

	pos, ok := e.resolveTracked(positions)
	if !ok {
		return model.RebalanceResult{Success: true}
	}

	oldRange := &model.TickRange{Lower: pos.TickLower, Upper: pos.TickUpper}
	if !ShouldRebalance(*pos, pool, e.cfg.Threshold) {
		e.logger.Debug("position in range, no rebalance needed",
			zap.String("position", pos.ID),
			zap.Int("current_tick", pool.CurrentTick),
			zap.Int("tick_lower", pos.TickLower),
			zap.Int("tick_upper", pos.TickUpper),
		)
		return model.RebalanceResult{Success: true, OldRange: oldRange, NewRange: oldRange}
	}

	e.logger.Info("rebalance needed",
		zap.String("position", pos.ID),
		zap.Int("current_tick", pool.CurrentTick),
		zap.Int("tick_lower", pos.TickLower),
		zap.Int("tick_upper", pos.TickUpper),
	)
	return e.rebalancePosition(ctx, poolID)
}

// rebalancePosition executes the remove / balance / add sequence against a
// fresh read of pool and position state.
func (e *Engine) rebalancePosition(ctx context.Context, poolID string) model.RebalanceResult {
	pool, err := e.chain.GetPool(ctx, poolID)
	if err != nil {
		return failure(fmt.Sprintf("fetch pool: %v", err))
	}
	positions, err := e.poolPositions(ctx, poolID)
	if err != nil {
		return failure(fmt.Sprintf("fetch positions: %v", err))
	}

	// The tracked id is always resolved by the decision step before this
	// runs; the fresh read may still have lost the position to a concurrent
	// transfer, which skips the cycle.
	candidate, ok := e.resolveTracked(positions)
	if !ok {
		return model.RebalanceResult{Success: true}
	}

	// A tracked position already drained of liquidity is not worth replacing
	// when another position is covering the current price.
	if !candidate.HasLiquidity() {
		for _, p := range positions {
			if p.ID != candidate.ID && p.HasLiquidity() && p.InRange(pool.CurrentTick) {
				e.logger.Info("tracked position is empty but an in-range position exists, skipping",
					zap.String("tracked", candidate.ID),
					zap.String("in_range", p.ID),
				)
				return model.RebalanceResult{Success: true}
			}
		}
	}

	width := e.cfg.RangeWidth
	if e.tracked != "" && candidate.ID == e.tracked {
		// Keep the strategy's width when following a specific position.
		width = candidate.Width()
	}
	newRange, err := ComputeRange(pool.CurrentTick, pool.TickSpacing, width)
	if err != nil {
		return failure(err.Error())
	}

	oldRange := model.TickRange{Lower: candidate.TickLower, Upper: candidate.TickUpper}
	if withinOneSpacing(oldRange, newRange, pool.TickSpacing) {
		e.logger.Info("target range matches current range, skipping",
			zap.String("old_range", oldRange.String()),
			zap.String("new_range", newRange.String()),
		)
		return model.RebalanceResult{Success: true, OldRange: &oldRange, NewRange: &newRange}
	}

	if e.cfg.DryRun {
		// Freed amounts are inferred from balance deltas, which never move
		// in a dry run, so the sequence stops at the intent.
		e.logger.Info("dry run: would remove liquidity and redeploy",
			zap.String("position", candidate.ID),
			zap.String("old_range", oldRange.String()),
			zap.String("new_range", newRange.String()),
		)
		return model.RebalanceResult{Success: true, Digest: "dry-run", OldRange: &oldRange, NewRange: &newRange}
	}

	var freedA, freedB *big.Int
	if candidate.HasLiquidity() {
		freedA, freedB = e.removeLiquidity(ctx, pool, candidate.ID)
	} else {
		// Removing zero liquidity aborts on-chain; skip straight to the add.
		e.logger.Info("position holds no liquidity, skipping removal", zap.String("position", candidate.ID))
	}

	existing := findExactRange(positions, newRange, candidate.ID)
	digest, trackedID, err := e.addLiquidity(ctx, poolID, newRange, existing, candidate.ID, freedA, freedB, false)
	if err != nil {
		return model.RebalanceResult{
			Success:  false,
			Error:    err.Error(),
			OldRange: &oldRange,
			NewRange: &newRange,
		}
	}

	if trackedID != "" {
		e.tracked = trackedID
	}
	e.logger.Info("rebalance complete",
		zap.String("old_range", oldRange.String()),
		zap.String("new_range", newRange.String()),
		zap.String("digest", digest),
		zap.String("tracked_position", e.tracked),
	)
	return model.RebalanceResult{
		Success:  true,
		Digest:   digest,
		OldRange: &oldRange,
		NewRange: &newRange,
	}
}

// OpenPosition explicitly creates the first position for a pool, funded from
// configured seed amounts or the wallet's safe balances. This is the only
// path that creates a position without a prior removal.
func (e *Engine) OpenPosition(ctx context.Context, poolID string) model.RebalanceResult {
	if !e.busy.CompareAndSwap(false, true) {
		return failure("rebalance cycle already in flight")
	}
	defer e.busy.Store(false)

	pool, err := e.chain.GetPool(ctx, poolID)
	if err != nil {
		return failure(fmt.Sprintf("fetch pool: %v", err))
	}

	target, err := e.openRange(pool)
	if err != nil {
		return failure(err.Error())
	}

	digest, trackedID, err := e.addLiquidity(ctx, poolID, target, nil, "", nil, nil, true)
	if err != nil {
		return model.RebalanceResult{Success: false, Error: err.Error(), NewRange: &target}
	}
	if trackedID != "" {
		e.tracked = trackedID
	}
	e.logger.Info("position opened",
		zap.String("range", target.String()),
		zap.String("digest", digest),
		zap.String("tracked_position", e.tracked),
	)
	return model.RebalanceResult{Success: true, Digest: digest, NewRange: &target}
}

func (e *Engine) openRange(pool model.Pool) (model.TickRange, error) {
	if e.cfg.LowerTick != nil && e.cfg.UpperTick != nil {
		lower, upper := *e.cfg.LowerTick, *e.cfg.UpperTick
		if lower >= upper {
			return model.TickRange{}, fmt.Errorf("invalid tick range: lower %d must be below upper %d", lower, upper)
		}
		if lower%pool.TickSpacing != 0 || upper%pool.TickSpacing != 0 {
			return model.TickRange{}, fmt.Errorf("invalid tick range: bounds must be multiples of tick spacing %d", pool.TickSpacing)
		}
		return model.TickRange{Lower: lower, Upper: upper}, nil
	}
	return ComputeRange(pool.CurrentTick, pool.TickSpacing, e.cfg.RangeWidth)
}

// resolveTracked picks the position the cycle manages. An explicitly tracked
// id that is no longer owned is skipped, never replaced; with no tracked id
// the position with the greatest liquidity is adopted and remembered.
func (e *Engine) resolveTracked(positions []model.Position) (*model.Position, bool) {
	if e.tracked != "" {
		for i := range positions {
			if positions[i].ID == e.tracked {
				return &positions[i], true
			}
		}
		e.logger.Warn("tracked position no longer owned, skipping cycle",
			zap.String("position", e.tracked),
		)
		return nil, false
	}

	best := 0
	for i := range positions {
		if cmpLiquidity(positions[i].Liquidity, positions[best].Liquidity) > 0 {
			best = i
		}
	}
	e.tracked = positions[best].ID
	e.logger.Info("adopted position with greatest liquidity",
		zap.String("position", e.tracked),
	)
	return &positions[best], true
}

// removeLiquidity withdraws all liquidity from the position and reports the
// freed amount per token as the wallet balance delta, floored at zero (the
// delta goes negative when the freed token also paid the gas). A removal
// failure is logged and swallowed: the engine must still attempt to restore
// liquidity even when the old position did not fully close.
func (e *Engine) removeLiquidity(ctx context.Context, pool model.Pool, positionID string) (*big.Int, *big.Int) {
	preA, preB, err := e.bothBalances(ctx, pool)
	if err != nil {
		e.logger.Warn("balance read before removal failed", zap.Error(err))
		preA, preB = new(big.Int), new(big.Int)
	}

	_, err = Retry(ctx, e.logger, "remove liquidity", e.cfg.MaxRetries, e.cfg.RetryDelay, func(ctx context.Context) (chain.TxResult, error) {
		// The previous attempt may have consumed the position's object
		// version; every attempt starts from a fresh read.
		pos, err := e.findPosition(ctx, pool.ID, positionID)
		if err != nil {
			return chain.TxResult{}, err
		}
		if !pos.HasLiquidity() {
			return chain.TxResult{}, nil
		}
		payload, err := e.chain.BuildRemoveLiquidityPayload(ctx, chain.RemoveLiquidityParams{
			PoolID:     pool.ID,
			PositionID: positionID,
			CoinTypeA:  pool.CoinTypeA,
			CoinTypeB:  pool.CoinTypeB,
			Liquidity:  pos.Liquidity,
			MinAmountA: new(big.Int),
			MinAmountB: new(big.Int),
		})
		if err != nil {
			return chain.TxResult{}, err
		}
		return e.execute(ctx, "remove liquidity", payload)
	})
	if err != nil {
		e.logger.Warn("remove liquidity failed, continuing to redeploy",
			zap.String("position", positionID),
			zap.Error(err),
		)
	}

	postA, postB, err := e.bothBalances(ctx, pool)
	if err != nil {
		e.logger.Warn("balance read after removal failed", zap.Error(err))
		return new(big.Int), new(big.Int)
	}
	return flooredDelta(postA, preA), flooredDelta(postB, preB)
}

// addLiquidity runs the deposit sequence: reconcile amounts, correct a
// single-sided balance with a half swap, submit with retries, and apply the
// one-shot compensating actions. It returns the transaction digest and the
// position id the engine should track afterwards.
func (e *Engine) addLiquidity(
	ctx context.Context,
	poolID string,
	target model.TickRange,
	existing *model.Position,
	oldPositionID string,
	freedA, freedB *big.Int,
	fresh bool,
) (string, string, error) {
	pool, err := e.chain.GetPool(ctx, poolID)
	if err != nil {
		return "", "", fmt.Errorf("fetch pool: %w", err)
	}

	balA, balB, err := e.bothBalances(ctx, pool)
	if err != nil {
		return "", "", fmt.Errorf("fetch balances: %w", err)
	}
	nativeA := chain.IsNativeCoin(pool.CoinTypeA)
	nativeB := chain.IsNativeCoin(pool.CoinTypeB)

	var amountA, amountB *big.Int
	if fresh {
		amountA, amountB = InitialAmounts(balA, balB, nativeA, nativeB, e.cfg.GasReserve)
		if e.cfg.SeedAmountA != nil {
			amountA = minBig(e.cfg.SeedAmountA, amountA)
		}
		if e.cfg.SeedAmountB != nil {
			amountB = minBig(e.cfg.SeedAmountB, amountB)
		}
	} else {
		amountA, amountB = RebalanceAmounts(freedA, freedB, balA, balB, nativeA, nativeB, e.cfg.GasReserve)
	}

	if plan := DetectSwapNeeded(amountA, amountB); plan != nil {
		e.logger.Info("single-sided amounts, swapping half to balance",
			zap.Bool("a_to_b", plan.AToB),
			zap.String("amount", plan.Amount.String()),
		)
		// Fixed-input swap with no minimum-output floor: sizing a floor needs
		// pool quoting math, and the post-swap clamp already bounds what gets
		// redeployed from the outcome.
		deltaA, deltaB, afterA, afterB, err := e.executeSwap(ctx, pool, chain.SwapParams{
			PoolID:     pool.ID,
			CoinTypeA:  pool.CoinTypeA,
			CoinTypeB:  pool.CoinTypeB,
			AToB:       plan.AToB,
			Amount:     plan.Amount,
			ByAmountIn: true,
		})
		if err != nil {
			e.logger.Warn("balancing swap failed, proceeding with original amounts", zap.Error(err))
		} else {
			amountA, amountB = PostSwapAmounts(amountA, amountB, deltaA, deltaB, afterA, afterB, nativeA, nativeB, e.cfg.GasReserve)
		}
	}

	if amountA.Sign() == 0 && amountB.Sign() == 0 {
		return "", "", fmt.Errorf("nothing available to redeploy: both token amounts are zero")
	}
	if amountA.Sign() == 0 || amountB.Sign() == 0 {
		e.logger.Warn("one token amount is still zero, attempting deposit anyway",
			zap.String("amount_a", amountA.String()),
			zap.String("amount_b", amountB.String()),
		)
	}

	// The larger side is fixed so the pool computes the proportional
	// counterpart for the smaller one.
	fixA := amountA.Cmp(amountB) >= 0

	submit := func(ctx context.Context, into *model.Position) (chain.TxResult, error) {
		// The node assembles the payload against live chain state, so the
		// sqrt price is fresh by construction. This read surfaces RPC or
		// pool failures before a payload is built.
		if _, err := e.chain.GetPool(ctx, poolID); err != nil {
			return chain.TxResult{}, err
		}
		var payload chain.Payload
		var err error
		if into != nil {
			payload, err = e.chain.BuildAddLiquidityPayload(ctx, chain.AddLiquidityParams{
				PoolID:     pool.ID,
				PositionID: into.ID,
				CoinTypeA:  pool.CoinTypeA,
				CoinTypeB:  pool.CoinTypeB,
				AmountA:    amountA,
				AmountB:    amountB,
				FixA:       fixA,
			})
		} else {
			payload, err = e.chain.BuildOpenPositionPayload(ctx, chain.OpenPositionParams{
				PoolID:    pool.ID,
				CoinTypeA: pool.CoinTypeA,
				CoinTypeB: pool.CoinTypeB,
				TickLower: target.Lower,
				TickUpper: target.Upper,
				AmountA:   amountA,
				AmountB:   amountB,
				FixA:      fixA,
			})
		}
		if err != nil {
			return chain.TxResult{}, err
		}
		return e.execute(ctx, "add liquidity", payload)
	}

	opened := existing == nil
	result, err := Retry(ctx, e.logger, "add liquidity", e.cfg.MaxRetries, e.cfg.RetryDelay, func(ctx context.Context) (chain.TxResult, error) {
		return submit(ctx, existing)
	})

	if err != nil && isInsufficientBalance(err) {
		// One-shot compensation: buy the missing side and try once more.
		// A second failure reports the original error, not the recovery's.
		if e.recoverInsufficientBalance(ctx, pool, amountA, amountB, fixA, err) {
			if retried, retryErr := submit(ctx, existing); retryErr == nil {
				result, err = retried, nil
			}
		}
	}

	if err != nil && existing != nil {
		// One-shot fallback: the existing position would not take the
		// deposit, open a brand-new one instead.
		e.logger.Warn("deposit into existing position failed, opening a new position",
			zap.String("position", existing.ID),
			zap.Error(err),
		)
		if retried, retryErr := submit(ctx, nil); retryErr == nil {
			result, err = retried, nil
			opened = true
		}
	}
	if err != nil {
		return "", "", err
	}

	trackedID := ""
	if existing != nil && !opened {
		trackedID = existing.ID
	} else if id, findErr := e.findNewPosition(ctx, poolID, target, oldPositionID); findErr == nil {
		trackedID = id
	} else {
		e.logger.Warn("could not locate freshly created position", zap.Error(findErr))
	}
	return result.Digest, trackedID, nil
}

// recoverInsufficientBalance identifies the short token, swaps the other one
// for the missing amount plus a 10% buffer, and reports whether a retry is
// worth making. The required amount comes from the failure's "expect <N>"
// wording when present; it then refers to the non-fixed side, the one whose
// requirement the pool computed. Otherwise the proposed amounts are compared
// against current balances.
func (e *Engine) recoverInsufficientBalance(ctx context.Context, pool model.Pool, amountA, amountB *big.Int, fixA bool, cause error) bool {
	balA, balB, err := e.bothBalances(ctx, pool)
	if err != nil {
		e.logger.Warn("balance read during recovery failed", zap.Error(err))
		return false
	}

	var missing *big.Int
	aToB := false
	if required := parseExpectedAmount(cause); required != nil {
		if fixA {
			if required.Cmp(balB) > 0 {
				missing = new(big.Int).Sub(required, balB)
				aToB = true // buy B with A
			}
		} else {
			if required.Cmp(balA) > 0 {
				missing = new(big.Int).Sub(required, balA)
				aToB = false // buy A with B
			}
		}
	}
	if missing == nil {
		switch {
		case amountA.Cmp(balA) > 0:
			missing = new(big.Int).Sub(amountA, balA)
			aToB = false
		case amountB.Cmp(balB) > 0:
			missing = new(big.Int).Sub(amountB, balB)
			aToB = true
		default:
			return false
		}
	}

	swapAmount := SwapAmountWithBuffer(missing)
	otherBalance := balB
	if aToB {
		otherBalance = balA
	}
	if otherBalance.Cmp(swapAmount) < 0 {
		e.logger.Warn("counterpart balance cannot cover recovery swap",
			zap.String("swap_amount", swapAmount.String()),
			zap.String("available", otherBalance.String()),
		)
		return false
	}

	e.logger.Info("recovering from insufficient balance",
		zap.String("missing", missing.String()),
		zap.String("swap_amount", swapAmount.String()),
		zap.Bool("a_to_b", aToB),
	)
	// A fixed-output swap's limit is the maximum input spend. The counterpart
	// balance was just verified to cover the swap, so it is the widest bound
	// the wallet can honor.
	_, _, _, _, err = e.executeSwap(ctx, pool, chain.SwapParams{
		PoolID:      pool.ID,
		CoinTypeA:   pool.CoinTypeA,
		CoinTypeB:   pool.CoinTypeB,
		AToB:        aToB,
		Amount:      swapAmount,
		ByAmountIn:  false,
		AmountLimit: otherBalance,
	})
	if err != nil {
		e.logger.Warn("recovery swap failed", zap.Error(err))
		return false
	}
	return true
}

// executeSwap submits a swap and reports the signed wallet balance deltas it
// produced along with the post-swap balances.
func (e *Engine) executeSwap(ctx context.Context, pool model.Pool, params chain.SwapParams) (deltaA, deltaB, afterA, afterB *big.Int, err error) {
	preA, preB, err := e.bothBalances(ctx, pool)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fetch balances: %w", err)
	}

	_, err = Retry(ctx, e.logger, "swap", e.cfg.MaxRetries, e.cfg.RetryDelay, func(ctx context.Context) (chain.TxResult, error) {
		payload, err := e.chain.BuildSwapPayload(ctx, params)
		if err != nil {
			return chain.TxResult{}, err
		}
		return e.execute(ctx, "swap", payload)
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	afterA, afterB, err = e.bothBalances(ctx, pool)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fetch balances: %w", err)
	}
	deltaA = new(big.Int).Sub(afterA, preA)
	deltaB = new(big.Int).Sub(afterB, preB)
	return deltaA, deltaB, afterA, afterB, nil
}

// execute submits a built payload, or only logs it when dry-run is on. A
// transaction that lands but aborts comes back as an error carrying the
// on-chain failure message.
func (e *Engine) execute(ctx context.Context, name string, payload chain.Payload) (chain.TxResult, error) {
	if e.cfg.DryRun {
		e.logger.Info("dry run, transaction not submitted",
			zap.String("operation", name),
			zap.Int("payload_bytes", len(payload.TxBytes)),
		)
		return chain.TxResult{Status: chain.StatusSuccess, Digest: "dry-run"}, nil
	}

	result, err := e.chain.SignAndExecute(ctx, payload)
	if err != nil {
		return chain.TxResult{}, err
	}
	if result.Status != chain.StatusSuccess {
		return result, fmt.Errorf("%s failed on-chain: %s", name, result.Error)
	}
	e.logger.Info("transaction executed",
		zap.String("operation", name),
		zap.String("digest", result.Digest),
	)
	return result, nil
}

func (e *Engine) poolPositions(ctx context.Context, poolID string) ([]model.Position, error) {
	all, err := e.chain.GetPositionsByOwner(ctx, e.owner)
	if err != nil {
		return nil, err
	}
	var out []model.Position
	for _, p := range all {
		if p.PoolID == poolID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (e *Engine) findPosition(ctx context.Context, poolID, positionID string) (model.Position, error) {
	positions, err := e.poolPositions(ctx, poolID)
	if err != nil {
		return model.Position{}, err
	}
	for _, p := range positions {
		if p.ID == positionID {
			return p, nil
		}
	}
	return model.Position{}, fmt.Errorf("position %s not found in pool %s", positionID, poolID)
}

// findNewPosition locates the position created by a successful open: same
// pool and range, different id from the one just emptied.
func (e *Engine) findNewPosition(ctx context.Context, poolID string, target model.TickRange, oldPositionID string) (string, error) {
	positions, err := e.poolPositions(ctx, poolID)
	if err != nil {
		return "", err
	}
	for _, p := range positions {
		if p.ID != oldPositionID && p.TickLower == target.Lower && p.TickUpper == target.Upper {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no position matching range %s", target)
}

func (e *Engine) bothBalances(ctx context.Context, pool model.Pool) (*big.Int, *big.Int, error) {
	balA, err := e.chain.GetBalance(ctx, e.owner, pool.CoinTypeA)
	if err != nil {
		return nil, nil, err
	}
	balB, err := e.chain.GetBalance(ctx, e.owner, pool.CoinTypeB)
	if err != nil {
		return nil, nil, err
	}
	return balA, balB, nil
}

var expectedAmountRe = regexp.MustCompile(`(?i)expect\s+(\d+)`)

// parseExpectedAmount extracts the required amount from an "expect <N>"
// failure message, or nil when none is present.
func parseExpectedAmount(err error) *big.Int {
	match := expectedAmountRe.FindStringSubmatch(err.Error())
	if match == nil {
		return nil
	}
	required, ok := new(big.Int).SetString(match[1], 10)
	if !ok {
		return nil
	}
	return required
}

// isInsufficientBalance matches the wallet-side and contract-side wordings
// of an underfunded deposit.
func isInsufficientBalance(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient balance") ||
		strings.Contains(msg, "amount is insufficient") ||
		strings.Contains(msg, "expect ")
}

func withinOneSpacing(oldRange, newRange model.TickRange, spacing int) bool {
	return absInt(newRange.Lower-oldRange.Lower) <= spacing && absInt(newRange.Upper-oldRange.Upper) <= spacing
}

func findExactRange(positions []model.Position, target model.TickRange, excludeID string) *model.Position {
	for i := range positions {
		if positions[i].ID == excludeID {
			continue
		}
		if positions[i].TickLower == target.Lower && positions[i].TickUpper == target.Upper {
			return &positions[i]
		}
	}
	return nil
}

func cmpLiquidity(a, b *big.Int) int {
	if a == nil {
		a = bigZero
	}
	if b == nil {
		b = bigZero
	}
	return a.Cmp(b)
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

func flooredDelta(post, pre *big.Int) *big.Int {
	delta := new(big.Int).Sub(post, pre)
	if delta.Sign() < 0 {
		return new(big.Int)
	}
	return delta
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func failure(msg string) model.RebalanceResult {
	return model.RebalanceResult{Success: false, Error: msg}
}
