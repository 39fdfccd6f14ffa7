package exsy

import "math"

// Ratio evaluates the closed-form two-site exchange solution for the
// cross-to-diagonal intensity ratio I12/I11 at mixing time tm.
//
// Rates are in the reciprocal of tm's unit. No validation is done: the
// optimizer is free to probe zero or negative rates, and a vanishing
// denominator yields NaN or Inf.
func Ratio(tm, k12, k21 float64) float64 {
	e := math.Exp(-(k12 + k21) * tm)
	return ((1 - e) * k12) / (k21 + k12*e)
}

// RatioSeries applies Ratio element-wise over times.
func RatioSeries(times []float64, k12, k21 float64) []float64 {
	out := make([]float64, len(times))
	for i, tm := range times {
		out[i] = Ratio(tm, k12, k21)
	}
	return out
}

// Gradient returns the partial derivatives of Ratio with respect to k12 and k21.
func Gradient(tm, k12, k21 float64) (d12, d21 float64) {
	e := math.Exp(-(k12 + k21) * tm)
	te := tm * e

	num := k12 * (1 - e)
	den := k21 + k12*e
	den2 := den * den

	dNum12 := (1 - e) + k12*te
	dNum21 := k12 * te
	dDen12 := e - k12*te
	dDen21 := 1 - k12*te

	d12 = (dNum12*den - num*dDen12) / den2
	d21 = (dNum21*den - num*dDen21) / den2
	return d12, d21
}

// Plateau is the tm → ∞ limit of Ratio.
func Plateau(k12, k21 float64) float64 {
	return k12 / k21
}
