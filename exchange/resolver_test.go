package exchange

import (
	"context"
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {

	t.Run("empty candidates", func(t *testing.T) {
		calls := 0
		_, _, err := resolve(context.Background(), nil, func(ctx context.Context, symbol string) (int, error) {
			calls++
			return 0, nil
		})
		if !errors.Is(err, ErrNoSymbol) {
			t.Fatalf("Expecting ErrNoSymbol, got %v", err)
		}
		if calls != 0 {
			t.Fatalf("No attempt should be made, got %d", calls)
		}
	})

	t.Run("falls through in order", func(t *testing.T) {
		var called []string
		data, used, err := resolve(context.Background(), []string{"A", "B", "C"}, func(ctx context.Context, symbol string) (string, error) {
			called = append(called, symbol)
			if symbol != "C" {
				return "", errors.New("unknown pair")
			}
			return "price of " + symbol, nil
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(called) != 3 || called[0] != "A" || called[1] != "B" || called[2] != "C" {
			t.Fatalf("Candidates tried out of order or too often: %v", called)
		}
		if used != "C" || data != "price of C" {
			t.Fatalf("Got symbol %q data %q", used, data)
		}
	})

	t.Run("stops at first success", func(t *testing.T) {
		calls := 0
		_, used, err := resolve(context.Background(), []string{"A", "B"}, func(ctx context.Context, symbol string) (int, error) {
			calls++
			return 1, nil
		})
		if err != nil || used != "A" || calls != 1 {
			t.Fatalf("Expecting a single call on A, got %d calls, symbol %q, err %v", calls, used, err)
		}
	})

	t.Run("all candidates failed", func(t *testing.T) {
		_, _, err := resolve(context.Background(), []string{"A", "B"}, func(ctx context.Context, symbol string) (int, error) {
			return 0, errors.New("boom " + symbol)
		})
		var failed *AllCandidatesFailedError
		if !errors.As(err, &failed) {
			t.Fatalf("Expecting AllCandidatesFailedError, got %v", err)
		}
		if len(failed.Tried) != 2 || len(failed.Errs) != 2 {
			t.Fatalf("Attempted candidates not recorded: %+v", failed)
		}
	})

	t.Run("cancelled context stops the fallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, _, err := resolve(ctx, []string{"A", "B", "C"}, func(ctx context.Context, symbol string) (int, error) {
			calls++
			cancel()
			return 0, ctx.Err()
		})
		if err == nil || calls != 1 {
			t.Fatalf("Expecting one call then failure, got %d calls, err %v", calls, err)
		}
	})
}
