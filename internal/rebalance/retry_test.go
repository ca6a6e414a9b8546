package rebalance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"read tcp 10.0.0.1:443: ECONNRESET", true},
		{"request failed: ETIMEDOUT", true},
		{"dial tcp: connection refused", true},
		{"fetch failed", true},
		{"lookup fullnode.mainnet.sui.io: no such host", true},
		{"Object 0xabc is not available for consumption, current version 42", true},
		{"gas object is pending a transaction 12 seconds old", true},
		{"pending transactions above threshold", true},
		{"Insufficient balance for coin 0x2::sui::SUI", false},
		{"Invalid tick range: lower 100 must be below upper 50", false},
		{"MoveAbort in pool: 7", false},
	}
	for _, tc := range cases {
		if got := IsRetryable(errors.New(tc.msg)); got != tc.want {
			t.Errorf("IsRetryable(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
	if IsRetryable(nil) {
		t.Errorf("IsRetryable(nil) = true, want false")
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := Retry(context.Background(), nil, "op", 3, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("connection reset by peer")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetryNonRetryableFailsImmediately(t *testing.T) {
	fatal := errors.New("Insufficient balance")
	attempts := 0
	_, err := Retry(context.Background(), nil, "op", 5, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		return 0, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("error = %v, want the original error", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry consumed)", attempts)
	}
}

func TestRetryExhaustionPreservesErrorIdentity(t *testing.T) {
	last := errors.New("ETIMEDOUT on attempt 4")
	attempts := 0
	_, err := Retry(context.Background(), nil, "op", 3, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		if attempts < 4 {
			return 0, errors.New("ETIMEDOUT")
		}
		return 0, last
	})
	if err != last {
		t.Fatalf("error = %v, want the last attempt's error unchanged", err)
	}
	if attempts != 4 {
		t.Fatalf("attempts = %d, want 4", attempts)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, nil, "op", 5, time.Hour, func(context.Context) (int, error) {
		return 0, errors.New("ETIMEDOUT")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
