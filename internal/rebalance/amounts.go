package rebalance

import "math/big"

// Amount arithmetic for deciding how much of each token an add-liquidity
// call may consume. Everything here is pure big.Int math; balances and
// freed amounts come from the caller's chain reads.

var (
	bigZero = big.NewInt(0)
	big100  = big.NewInt(100)
	big110  = big.NewInt(110)
)

// SafeBalance returns the portion of a wallet balance that may be deployed.
// For the native gas-paying coin the gas reserve is withheld, but only when
// the balance actually exceeds the reserve; the result is never negative.
func SafeBalance(balance *big.Int, isNative bool, gasReserve *big.Int) *big.Int {
	if balance == nil {
		return new(big.Int)
	}
	if isNative && gasReserve != nil && balance.Cmp(gasReserve) > 0 {
		return new(big.Int).Sub(balance, gasReserve)
	}
	return new(big.Int).Set(balance)
}

// RebalanceAmounts decides how much of each token to redeploy after a
// removal. Each side takes min(removed, safe balance) when a freed amount is
// known and positive, and 0 otherwise: a missing freed amount never falls
// back to the full wallet balance, so a rebalance only redeploys value it
// just freed. A single-sided shortfall is the swap step's problem, not this
// function's.
func RebalanceAmounts(removedA, removedB, walletA, walletB *big.Int, isNativeA, isNativeB bool, gasReserve *big.Int) (*big.Int, *big.Int) {
	amountA := redeployable(removedA, SafeBalance(walletA, isNativeA, gasReserve))
	amountB := redeployable(removedB, SafeBalance(walletB, isNativeB, gasReserve))
	return amountA, amountB
}

func redeployable(removed, safe *big.Int) *big.Int {
	if removed == nil || removed.Sign() <= 0 {
		return new(big.Int)
	}
	if removed.Cmp(safe) > 0 {
		return safe
	}
	return new(big.Int).Set(removed)
}

// InitialAmounts proposes deposit amounts for a fresh position with no prior
// removal. Wallet funds are the legitimate source here, so the safe balances
// are used directly.
func InitialAmounts(walletA, walletB *big.Int, isNativeA, isNativeB bool, gasReserve *big.Int) (*big.Int, *big.Int) {
	return SafeBalance(walletA, isNativeA, gasReserve), SafeBalance(walletB, isNativeB, gasReserve)
}

// PostSwapAmounts recomputes deposit amounts after a balancing swap: each
// side becomes preSwap + swapDelta, clamped to the post-swap safe balance
// and floored at zero. Tying the result to the observed swap delta keeps
// the redeploy from absorbing unrelated wallet funds.
func PostSwapAmounts(preA, preB, deltaA, deltaB, walletAfterA, walletAfterB *big.Int, isNativeA, isNativeB bool, gasReserve *big.Int) (*big.Int, *big.Int) {
	amountA := clampDelta(preA, deltaA, SafeBalance(walletAfterA, isNativeA, gasReserve))
	amountB := clampDelta(preB, deltaB, SafeBalance(walletAfterB, isNativeB, gasReserve))
	return amountA, amountB
}

func clampDelta(pre, delta, safe *big.Int) *big.Int {
	out := new(big.Int)
	if pre != nil {
		out.Set(pre)
	}
	if delta != nil {
		out.Add(out, delta)
	}
	if out.Sign() < 0 {
		return new(big.Int)
	}
	if out.Cmp(safe) > 0 {
		return safe
	}
	return out
}

// SwapAmountWithBuffer pads a missing amount by 10% to absorb slippage and
// price movement between quoting and execution.
func SwapAmountWithBuffer(missing *big.Int) *big.Int {
	out := new(big.Int).Mul(missing, big110)
	return out.Div(out, big100)
}

// SwapPlan describes a single-sided balance correction: swap half of the
// held token toward the empty side.
type SwapPlan struct {
	AToB   bool
	Amount *big.Int
}

// DetectSwapNeeded returns a balancing swap when exactly one of the two
// proposed amounts is zero and the other is positive. Half of the held
// token is swapped, integer division truncating toward zero; when the half
// would round to nothing (amount <= 1) no swap is proposed.
func DetectSwapNeeded(amountA, amountB *big.Int) *SwapPlan {
	aZero := amountA == nil || amountA.Sign() == 0
	bZero := amountB == nil || amountB.Sign() == 0
	if aZero == bZero {
		return nil
	}

	held := amountA
	aToB := true
	if aZero {
		held = amountB
		aToB = false
	}

	half := new(big.Int).Rsh(held, 1)
	if half.Sign() <= 0 {
		return nil
	}
	return &SwapPlan{AToB: aToB, Amount: half}
}
