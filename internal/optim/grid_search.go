package optim

import (
	"context"
	"errors"
	"math"
)

var ErrNoFeasiblePoint = errors.New("optim: no grid point produced a finite objective")

// Objective scores one parameter vector; lower is better. Points that return
// an error or a non-finite value are skipped.
type Objective func(params []float64) (float64, error)

// GridSearch evaluates an objective on the cartesian product of per-parameter
// value lists.
type GridSearch struct {
	ranges [][]float64
}

func NewGridSearch(ranges ...[]float64) *GridSearch {
	return &GridSearch{ranges: ranges}
}

// Points is the number of objective evaluations a full search makes.
func (g *GridSearch) Points() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

func (g *GridSearch) Search(ctx context.Context, obj Objective) ([]float64, float64, error) {
	best := math.Inf(1)
	var bestParams []float64

	if len(g.ranges) > 0 {
		current := make([]float64, len(g.ranges))
		if err := g.searchRecursive(ctx, 0, current, obj, &best, &bestParams); err != nil {
			return nil, 0, err
		}
	}
	if bestParams == nil {
		return nil, 0, ErrNoFeasiblePoint
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	obj Objective,
	best *float64,
	bestParams *[]float64,
) error {
	if depth == len(g.ranges) {
		val, err := obj(current)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = append((*bestParams)[:0], current...)
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, obj, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// LogSpace returns n values spaced evenly in log10 between lo and hi.
func LogSpace(lo, hi float64, n int) []float64 {
	if n <= 0 || !(lo > 0) || !(hi > 0) {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	a, b := math.Log10(lo), math.Log10(hi)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Pow(10, a+(b-a)*float64(i)/float64(n-1))
	}
	out[n-1] = hi
	return out
}
