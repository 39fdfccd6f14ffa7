package exsy

import (
	"fmt"
	"math"
)

// UnitFactor converts fitted rates from ms⁻¹ to the reported s⁻¹.
const UnitFactor = 1000.0

// RateParameters is the forward/reverse exchange rate pair.
type RateParameters struct {
	K12 float64 `json:"k12" yaml:"k12"`
	K21 float64 `json:"k21" yaml:"k21"`
}

func (r RateParameters) Scale(factor float64) RateParameters {
	return RateParameters{K12: r.K12 * factor, K21: r.K21 * factor}
}

func (r RateParameters) IsValid() bool {
	for _, v := range [...]float64{r.K12, r.K21} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (r RateParameters) String() string {
	return fmt.Sprintf("(%g, %g)", r.K12, r.K21)
}

// FitResult holds one fit. Rates and StdErr are in s⁻¹; Raw and RawStdErr
// keep the ms⁻¹ values the model was fitted in.
type FitResult struct {
	Rates     RateParameters `json:"rates"`
	StdErr    RateParameters `json:"stderr"`
	Raw       RateParameters `json:"raw"`
	RawStdErr RateParameters `json:"raw_stderr"`

	Kex      float64 `json:"kex"`
	KexError float64 `json:"kex_error"`

	// Covariance of (k12, k21) in ms⁻² as returned by the solver.
	Covariance [2][2]float64 `json:"covariance"`

	RSS        float64 `json:"rss"`
	Points     int     `json:"points"`
	Iterations int     `json:"iterations"`
	Status     string  `json:"status"`
}

// Curve evaluates the fitted model over times in the fit's time unit.
func (r *FitResult) Curve(times []float64) []float64 {
	return RatioSeries(times, r.Raw.K12, r.Raw.K21)
}

// Residuals returns observed minus fitted ratio per point.
func (r *FitResult) Residuals(times, ratios []float64) []float64 {
	out := make([]float64, len(times))
	for i := range times {
		out[i] = ratios[i] - Ratio(times[i], r.Raw.K12, r.Raw.K21)
	}
	return out
}
