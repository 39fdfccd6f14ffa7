package synth

import (
	"context"
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/exsyfit/internal/exsy"
)

// TrialSummary aggregates repeated noisy fits of one scenario. Rates are in s⁻¹.
type TrialSummary struct {
	Scenario Scenario
	Trials   int
	Failures int
	Mean     exsy.RateParameters
	StdDev   exsy.RateParameters
	// Coverage is the fraction of successful fits whose k12 and k21 both lie
	// within Sigmas standard errors of the true rates.
	Coverage float64
	Sigmas   float64
	Results  []*exsy.FitResult
}

// Ensemble runs independent fits of noisy realisations of a scenario.
type Ensemble struct {
	est       *exsy.Estimator
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(est *exsy.Estimator, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{est: est, numRuns: numRuns, seedStart: seedStart, workers: runtime.NumCPU()}
}

// Run fits trial i on the data generated with seed seedStart+i. Failed fits
// are counted, not returned; only cancellation aborts the ensemble.
func (e *Ensemble) Run(ctx context.Context, s Scenario, sigmas float64) (*TrialSummary, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	results := make([]*exsy.FitResult, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			ds := Generate(s, e.seedStart+int64(idx))
			res, err := e.est.Fit(gctx, ds.Times, ds.Ratios)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if err == nil {
				results[idx] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summarize(s, results, sigmas), nil
}

func summarize(s Scenario, results []*exsy.FitResult, sigmas float64) *TrialSummary {
	sum := &TrialSummary{Scenario: s, Trials: len(results), Sigmas: sigmas}

	truth := s.Rates()
	var k12s, k21s []float64
	covered := 0
	for _, r := range results {
		if r == nil {
			sum.Failures++
			continue
		}
		sum.Results = append(sum.Results, r)
		k12s = append(k12s, r.Rates.K12)
		k21s = append(k21s, r.Rates.K21)

		if math.Abs(r.Raw.K12-truth.K12) <= sigmas*r.RawStdErr.K12 &&
			math.Abs(r.Raw.K21-truth.K21) <= sigmas*r.RawStdErr.K21 {
			covered++
		}
	}

	if n := len(sum.Results); n > 0 {
		sum.Mean.K12, sum.StdDev.K12 = meanStd(k12s)
		sum.Mean.K21, sum.StdDev.K21 = meanStd(k21s)
		sum.Coverage = float64(covered) / float64(n)
	}
	return sum
}

func meanStd(v []float64) (mean, std float64) {
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	if len(v) < 2 {
		return mean, 0
	}
	for _, x := range v {
		std += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(std / float64(len(v)-1))
}
