package rebalance

import (
	"fmt"

	"rangekeeper/internal/model"
)

// ComputeRange computes a tick range aligned to tickSpacing around
// currentTick. With width <= 0 the result is the tightest possible range:
// the single spacing bin containing currentTick. With width > 0 the range is
// split symmetrically around currentTick and each bound is aligned outward,
// so the resulting width may exceed the requested width by up to one
// tick spacing.
func ComputeRange(currentTick, tickSpacing, width int) (model.TickRange, error) {
	if tickSpacing <= 0 {
		return model.TickRange{}, fmt.Errorf("tick spacing must be positive, got %d", tickSpacing)
	}

	if width <= 0 {
		lower := floorDiv(currentTick, tickSpacing) * tickSpacing
		return model.TickRange{Lower: lower, Upper: lower + tickSpacing}, nil
	}

	ticksBelow := width / 2
	ticksAbove := width - ticksBelow
	lower := floorDiv(currentTick-ticksBelow, tickSpacing) * tickSpacing
	upper := ceilDiv(currentTick+ticksAbove, tickSpacing) * tickSpacing
	return model.TickRange{Lower: lower, Upper: upper}, nil
}

// floorDiv divides a by b rounding toward negative infinity. Plain integer
// division truncates toward zero, which misaligns ranges for negative ticks.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ceilDiv divides a by b rounding toward positive infinity.
func ceilDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
