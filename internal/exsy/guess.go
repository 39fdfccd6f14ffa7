package exsy

import (
	"math"
	"sort"
)

// DefaultGuess is used when the data gives no usable starting point.
var DefaultGuess = RateParameters{K12: 1, K21: 1}

// InitialGuess derives a deterministic starting point from the data.
//
// The ratio at the longest mixing time stands in for the plateau R = k12/k21.
// The half-rise time t½ (linear interpolation, with the implicit point
// (0, 0)) gives the rate sum, since Ratio/R = 1/2 at exp(−s·t½) = 1/(2+R).
func InitialGuess(times, ratios []float64) RateParameters {
	n := len(times)
	if n == 0 || n != len(ratios) {
		return DefaultGuess
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })

	plateau := ratios[idx[n-1]]
	if !(plateau > 0) || math.IsInf(plateau, 0) {
		return DefaultGuess
	}

	sum := 0.0
	if tHalf, ok := halfRise(times, ratios, idx, plateau/2); ok {
		sum = math.Log(2+plateau) / tHalf
	} else {
		mean := 0.0
		for _, t := range times {
			mean += t
		}
		mean /= float64(n)
		if mean > 0 {
			sum = 1 / mean
		}
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return DefaultGuess
	}

	k21 := sum / (1 + plateau)
	return RateParameters{K12: sum - k21, K21: k21}
}

func halfRise(times, ratios []float64, idx []int, target float64) (float64, bool) {
	prevT, prevR := 0.0, 0.0
	for _, i := range idx {
		t, r := times[i], ratios[i]
		if r >= target && prevR < target && t > prevT {
			tHalf := prevT + (t-prevT)*(target-prevR)/(r-prevR)
			return tHalf, tHalf > 0
		}
		prevT, prevR = t, r
	}
	return 0, false
}
