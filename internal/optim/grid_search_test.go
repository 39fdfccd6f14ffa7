package optim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestGridSearch_Quadratic(t *testing.T) {
	g := NewGridSearch([]float64{-1, 0, 1, 2}, []float64{0, 0.5, 1})
	best, val, err := g.Search(context.Background(), func(p []float64) (float64, error) {
		return (p[0]-1)*(p[0]-1) + (p[1]-0.5)*(p[1]-0.5), nil
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if best[0] != 1 || best[1] != 0.5 || val != 0 {
		t.Errorf("best = %v (%v), want [1 0.5] (0)", best, val)
	}
	if g.Points() != 12 {
		t.Errorf("Points() = %d, want 12", g.Points())
	}
}

func TestGridSearch_SkipsInfeasible(t *testing.T) {
	g := NewGridSearch([]float64{1, 2, 3})
	best, _, err := g.Search(context.Background(), func(p []float64) (float64, error) {
		switch p[0] {
		case 1:
			return 0, errors.New("bad point")
		case 2:
			return math.NaN(), nil
		}
		return 5, nil
	})
	if err != nil || best[0] != 3 {
		t.Errorf("best = %v, err = %v; want [3]", best, err)
	}

	_, _, err = g.Search(context.Background(), func([]float64) (float64, error) { return math.Inf(1), nil })
	if !errors.Is(err, ErrNoFeasiblePoint) {
		t.Errorf("expected ErrNoFeasiblePoint, got %v", err)
	}

	if _, _, err := NewGridSearch().Search(context.Background(), nil); !errors.Is(err, ErrNoFeasiblePoint) {
		t.Errorf("empty grid: expected ErrNoFeasiblePoint, got %v", err)
	}
}

func TestGridSearch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, _, err := NewGridSearch([]float64{1, 2}, []float64{1, 2}).Search(ctx, func([]float64) (float64, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("objective ran %d times after cancel", calls)
	}
}

func TestLogSpace(t *testing.T) {
	got := LogSpace(1e-3, 1, 4)
	want := []float64{1e-3, 1e-2, 1e-1, 1}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12*want[i] {
			t.Errorf("LogSpace[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if LogSpace(0, 1, 3) != nil || LogSpace(1, 2, 0) != nil {
		t.Error("expected nil for invalid bounds")
	}
	if got := LogSpace(2, 5, 1); len(got) != 1 || got[0] != 2 {
		t.Errorf("single point = %v", got)
	}
}
