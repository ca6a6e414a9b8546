package rebalance

import "testing"

func TestComputeRangeTightest(t *testing.T) {
	got, err := ComputeRange(1250, 60, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lower != 1200 || got.Upper != 1260 {
		t.Fatalf("range mismatch: got %s, want [1200, 1260]", got)
	}
}

func TestComputeRangeTightestInvariants(t *testing.T) {
	ticks := []int{-100000, -1201, -60, -59, -1, 0, 1, 59, 60, 1250, 99999}
	spacings := []int{1, 2, 10, 60, 200}

	for _, spacing := range spacings {
		for _, tick := range ticks {
			got, err := ComputeRange(tick, spacing, 0)
			if err != nil {
				t.Fatalf("spacing %d tick %d: unexpected error: %v", spacing, tick, err)
			}
			if got.Upper-got.Lower != spacing {
				t.Errorf("spacing %d tick %d: width %d, want %d", spacing, tick, got.Upper-got.Lower, spacing)
			}
			if got.Lower > tick || tick >= got.Upper {
				t.Errorf("spacing %d tick %d: %s does not satisfy lower <= tick < upper", spacing, tick, got)
			}
			if got.Lower%spacing != 0 || got.Upper%spacing != 0 {
				t.Errorf("spacing %d tick %d: %s not aligned", spacing, tick, got)
			}
		}
	}
}

func TestComputeRangePreservedWidth(t *testing.T) {
	got, err := ComputeRange(-100, 60, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lower != -420 || got.Upper != 240 {
		t.Fatalf("range mismatch: got %s, want [-420, 240]", got)
	}
}

func TestComputeRangeWidthPreservation(t *testing.T) {
	ticks := []int{-1234, -60, 0, 17, 1250}
	widths := []int{1, 59, 60, 120, 601}

	for _, tick := range ticks {
		for _, width := range widths {
			got, err := ComputeRange(tick, 60, width)
			if err != nil {
				t.Fatalf("tick %d width %d: unexpected error: %v", tick, width, err)
			}
			if got.Width() < width {
				t.Errorf("tick %d width %d: result width %d below requested", tick, width, got.Width())
			}
			if !got.Contains(tick) {
				t.Errorf("tick %d width %d: %s does not contain tick", tick, width, got)
			}
			if got.Lower%60 != 0 || got.Upper%60 != 0 {
				t.Errorf("tick %d width %d: %s not aligned", tick, width, got)
			}
		}
	}

	// When the requested width is itself a multiple of the spacing, outward
	// alignment of the two bounds can add at most one spacing in total.
	for _, tick := range ticks {
		for _, width := range []int{60, 120, 600, 1200} {
			got, err := ComputeRange(tick, 60, width)
			if err != nil {
				t.Fatalf("tick %d width %d: unexpected error: %v", tick, width, err)
			}
			if got.Width()-width > 60 {
				t.Errorf("tick %d width %d: result width %d exceeds requested by more than one spacing", tick, width, got.Width())
			}
		}
	}
}

func TestComputeRangeInvalidSpacing(t *testing.T) {
	if _, err := ComputeRange(100, 0, 0); err == nil {
		t.Fatalf("expected error for zero tick spacing")
	}
	if _, err := ComputeRange(100, -10, 0); err == nil {
		t.Fatalf("expected error for negative tick spacing")
	}
}

func TestFloorCeilDiv(t *testing.T) {
	cases := []struct {
		a, b, floor, ceil int
	}{
		{7, 2, 3, 4},
		{-7, 2, -4, -3},
		{6, 3, 2, 2},
		{-6, 3, -2, -2},
		{0, 5, 0, 0},
		{-1, 60, -1, 0},
	}
	for _, tc := range cases {
		if got := floorDiv(tc.a, tc.b); got != tc.floor {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.floor)
		}
		if got := ceilDiv(tc.a, tc.b); got != tc.ceil {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.ceil)
		}
	}
}
