package rebalance

import (
	"rangekeeper/internal/model"
)

// IsInRange reports whether currentTick lies within [lower, upper]. Ticks
// sitting exactly on either bound count as in range.
func IsInRange(lower, upper, currentTick int) bool {
	return currentTick >= lower && currentTick <= upper
}

// ShouldRebalance decides whether a position needs to be repositioned.
// A position out of range always does. An in-range position does when the
// current tick sits closer to either edge than threshold, expressed as a
// fraction of the range width (e.g. 0.05 = within 5% of an edge).
func ShouldRebalance(pos model.Position, pool model.Pool, threshold float64) bool {
	if !IsInRange(pos.TickLower, pos.TickUpper, pool.CurrentTick) {
		return true
	}

	rangeWidth := pos.TickUpper - pos.TickLower
	pctLower := float64(pool.CurrentTick-pos.TickLower) / float64(rangeWidth)
	pctUpper := float64(pos.TickUpper-pool.CurrentTick) / float64(rangeWidth)
	return pctLower < threshold || pctUpper < threshold
}
