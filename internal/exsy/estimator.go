package exsy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/exsyfit/internal/lsq"
	"github.com/san-kum/exsyfit/internal/optim"
)

type Option func(*Estimator)

// WithInitialGuess fixes the solver start, in the fit's rate unit (ms⁻¹).
func WithInitialGuess(k12, k21 float64) Option {
	return func(e *Estimator) {
		e.guess = &RateParameters{K12: k12, K21: k21}
	}
}

func WithSettings(s lsq.Settings) Option {
	return func(e *Estimator) {
		e.settings = s
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Estimator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithGridSearch replaces the half-rise guess with the best point of a
// steps x steps log-spaced grid over [lo, hi] ms⁻¹ for both rates. An explicit
// initial guess still wins.
func WithGridSearch(lo, hi float64, steps int) Option {
	return func(e *Estimator) {
		if axis := optim.LogSpace(lo, hi, steps); len(axis) > 0 {
			e.grid = optim.NewGridSearch(axis, axis)
		}
	}
}

// WithReport redirects the printed summary. A nil writer silences it.
func WithReport(w io.Writer) Option {
	return func(e *Estimator) {
		if w == nil {
			w = io.Discard
		}
		e.report = w
	}
}

// Estimator fits RateParameters to intensity-ratio data. It holds only
// configuration and may be shared between goroutines.
type Estimator struct {
	guess    *RateParameters
	grid     *optim.GridSearch
	settings lsq.Settings
	log      *zap.Logger
	report   io.Writer
}

func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		settings: lsq.DefaultSettings(),
		log:      zap.NewNop(),
		report:   os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Guess returns the starting point Fit would use for the data.
func (e *Estimator) Guess(times, ratios []float64) RateParameters {
	if e.guess != nil {
		return *e.guess
	}
	return InitialGuess(times, ratios)
}

// Fit runs the least-squares fit of Ratio against (times, ratios), converts
// the rates to s⁻¹, derives Kex with its propagated error and writes the
// summary report.
func (e *Estimator) Fit(ctx context.Context, times, ratios []float64) (*FitResult, error) {
	if len(times) != len(ratios) || len(times) < MinPoints {
		return nil, &ShapeError{Times: len(times), Ratios: len(ratios)}
	}

	guess := e.Guess(times, ratios)
	if e.grid != nil && e.guess == nil {
		best, err := e.gridGuess(ctx, times, ratios)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case err != nil:
			e.log.Debug("grid search found no start, keeping half-rise guess", zap.Error(err))
		default:
			guess = best
		}
	}
	e.log.Debug("fitting exchange rates",
		zap.Int("points", len(times)),
		zap.Float64("k12_guess", guess.K12),
		zap.Float64("k21_guess", guess.K21),
	)

	prob := &exchangeProblem{times: times, ratios: ratios}
	solver := lsq.NewSolver(e.settings, e.log.Named("lsq"))

	sol, err := solver.Solve(ctx, prob, []float64{guess.K12, guess.K21})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		fe := &FitError{Guess: guess, Wrapped: err}
		if sol != nil {
			fe.Iterations = sol.Iterations
		}
		e.log.Warn("fit failed", zap.Error(fe))
		return nil, fe
	}

	raw := RateParameters{K12: sol.Params[0], K21: sol.Params[1]}
	rawErr := RateParameters{K12: sol.StdErr[0], K21: sol.StdErr[1]}
	if !raw.IsValid() || !rawErr.IsValid() {
		return nil, &FitError{Iterations: sol.Iterations, Guess: guess, Wrapped: lsq.ErrNonFinite}
	}

	kex, kexErr, err := ExchangeRatio(raw, rawErr)
	if err != nil {
		return nil, err
	}

	res := &FitResult{
		Rates:      raw.Scale(UnitFactor),
		StdErr:     rawErr.Scale(UnitFactor),
		Raw:        raw,
		RawStdErr:  rawErr,
		Kex:        kex,
		KexError:   kexErr,
		RSS:        sol.RSS(),
		Points:     len(times),
		Iterations: sol.Iterations,
		Status:     sol.Status.String(),
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			res.Covariance[i][j] = sol.Covariance.At(i, j)
		}
	}

	e.log.Info("fit converged",
		zap.Float64("k12", res.Rates.K12),
		zap.Float64("k21", res.Rates.K21),
		zap.Float64("kex", res.Kex),
		zap.Int("iterations", res.Iterations),
		zap.String("status", res.Status),
	)

	if err := Report(e.report, res); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	return res, nil
}

func (e *Estimator) gridGuess(ctx context.Context, times, ratios []float64) (RateParameters, error) {
	best, rss, err := e.grid.Search(ctx, func(p []float64) (float64, error) {
		sum := 0.0
		for i, t := range times {
			d := Ratio(t, p[0], p[1]) - ratios[i]
			sum += d * d
		}
		return sum, nil
	})
	if err != nil {
		return RateParameters{}, err
	}
	e.log.Debug("grid search start",
		zap.Int("points", e.grid.Points()),
		zap.Float64("rss", rss),
	)
	return RateParameters{K12: best[0], K21: best[1]}, nil
}

// ExchangeRatio computes Kex = k12/k21 and its first-order error
// Kex·sqrt((σ12/k12)² + (σ21/k21)²). The cross covariance is ignored.
func ExchangeRatio(rates, stdErr RateParameters) (kex, kexErr float64, err error) {
	if rates.K12 == 0 || rates.K21 == 0 {
		return 0, 0, fmt.Errorf("%w: k12=%g k21=%g", ErrDegenerateParameter, rates.K12, rates.K21)
	}

	kex = rates.K12 / rates.K21
	rel12 := stdErr.K12 / rates.K12
	rel21 := stdErr.K21 / rates.K21
	kexErr = kex * math.Sqrt(rel12*rel12+rel21*rel21)

	if math.IsNaN(kex) || math.IsInf(kex, 0) || math.IsNaN(kexErr) || math.IsInf(kexErr, 0) {
		return 0, 0, fmt.Errorf("%w: kex=%g error=%g", ErrDegenerateParameter, kex, kexErr)
	}
	return kex, kexErr, nil
}

// exchangeProblem adapts the model to lsq with residual Ratio(t) − observed.
type exchangeProblem struct {
	times, ratios []float64
}

func (p *exchangeProblem) Len() int { return len(p.times) }

func (p *exchangeProblem) Residuals(params, dst []float64) {
	for i, t := range p.times {
		dst[i] = Ratio(t, params[0], params[1]) - p.ratios[i]
	}
}

func (p *exchangeProblem) Jacobian(params []float64, dst *mat.Dense) {
	for i, t := range p.times {
		d12, d21 := Gradient(t, params[0], params[1])
		dst.Set(i, 0, d12)
		dst.Set(i, 1, d21)
	}
}
