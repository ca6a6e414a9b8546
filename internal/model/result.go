package model

import "fmt"

// TickRange is an inclusive tick interval.
type TickRange struct {
	Lower int
	Upper int
}

func (r TickRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Lower, r.Upper)
}

// Width returns the tick width of the range.
func (r TickRange) Width() int {
	return r.Upper - r.Lower
}

// Contains reports whether the tick lies within the range, edges included.
func (r TickRange) Contains(tick int) bool {
	return tick >= r.Lower && tick <= r.Upper
}

// RebalanceResult is the outcome of one engine invocation. It is returned
// as a value; the top-level entry points never propagate errors directly.
type RebalanceResult struct {
	Success  bool
	Digest   string
	Error    string
	OldRange *TickRange
	NewRange *TickRange
}
