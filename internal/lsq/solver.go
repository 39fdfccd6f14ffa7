package lsq

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Status records which criterion stopped the iteration.
type Status int

const (
	NotConverged Status = iota
	FTolReached
	XTolReached
	GTolReached
	ZeroResidual
)

func (s Status) String() string {
	switch s {
	case FTolReached:
		return "ftol"
	case XTolReached:
		return "xtol"
	case GTolReached:
		return "gtol"
	case ZeroResidual:
		return "zero residual"
	default:
		return "not converged"
	}
}

const (
	DefaultMaxIterations  = 2000
	DefaultFTol           = 1e-12
	DefaultXTol           = 1e-12
	DefaultGTol           = 1e-15
	DefaultInitialDamping = 1e-3

	// maxCondition bounds cond(JᵀJ) for a usable covariance.
	maxCondition = 1e14
)

type Settings struct {
	MaxIterations  int
	FTol           float64
	XTol           float64
	GTol           float64
	InitialDamping float64
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations:  DefaultMaxIterations,
		FTol:           DefaultFTol,
		XTol:           DefaultXTol,
		GTol:           DefaultGTol,
		InitialDamping: DefaultInitialDamping,
	}
}

// Result describes the final iterate. On failure the solver may still return
// a Result for the last accepted point.
type Result struct {
	Params      []float64
	Cost        float64
	Iterations  int
	Evaluations int
	Status      Status
	Covariance  *mat.SymDense
	StdErr      []float64
}

// RSS is the residual sum of squares at Params.
func (r *Result) RSS() float64 { return 2 * r.Cost }

type Solver struct {
	settings Settings
	log      *zap.Logger
}

func NewSolver(settings Settings, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultSettings()
	if settings.MaxIterations <= 0 {
		settings.MaxIterations = def.MaxIterations
	}
	if settings.InitialDamping <= 0 {
		settings.InitialDamping = def.InitialDamping
	}
	return &Solver{settings: settings, log: log}
}

func (s *Solver) Settings() Settings { return s.settings }

// Solve minimises ½‖r(p)‖² starting from p0 and estimates the covariance of
// the optimum. p0 is not modified.
func (s *Solver) Solve(ctx context.Context, prob Problem, p0 []float64) (*Result, error) {
	m, n := prob.Len(), len(p0)
	if n == 0 || m < n {
		return nil, fmt.Errorf("%w: %d residuals for %d parameters", ErrDimension, m, n)
	}

	p := make([]float64, n)
	copy(p, p0)
	r := make([]float64, m)
	prob.Residuals(p, r)
	if !allFinite(r) {
		return nil, ErrNonFinite
	}

	res := &Result{Evaluations: 1}
	cost := halfSumSquares(r)

	jac := mat.NewDense(m, n, nil)
	res.Evaluations += jacobian(prob, p, r, jac)

	trial := make([]float64, n)
	rTrial := make([]float64, m)
	diag := make([]float64, n)
	jtj := mat.NewSymDense(n, nil)
	a := mat.NewSymDense(n, nil)
	rv := mat.NewVecDense(m, r)
	var grad, delta mat.VecDense
	var chol mat.Cholesky

	lambda, nu := -1.0, 2.0

	for iter := 1; iter <= s.settings.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			s.fill(res, p, cost, iter-1)
			return res, ctx.Err()
		default:
		}
		res.Iterations = iter

		jtj.SymOuterK(1, jac.T())
		// grad holds −Jᵀr, the descent direction
		grad.MulVec(jac.T(), rv)
		grad.ScaleVec(-1, &grad)

		if maxAbs(&grad) <= s.settings.GTol {
			res.Status = GTolReached
			break
		}

		maxDiag := 0.0
		for j := 0; j < n; j++ {
			diag[j] = math.Max(jtj.At(j, j), 1e-300)
			maxDiag = math.Max(maxDiag, jtj.At(j, j))
		}
		if maxDiag == 0 {
			s.fill(res, p, cost, iter)
			return res, ErrSingularJacobian
		}
		if lambda < 0 {
			lambda = s.settings.InitialDamping * maxDiag
		}

		a.CopySym(jtj)
		for j := 0; j < n; j++ {
			a.SetSym(j, j, a.At(j, j)+lambda*diag[j])
		}
		if ok := chol.Factorize(a); !ok {
			lambda, nu = lambda*nu, nu*2
			continue
		}
		if err := chol.SolveVecTo(&delta, &grad); err != nil {
			lambda, nu = lambda*nu, nu*2
			continue
		}

		if mat.Norm(&delta, 2) <= s.settings.XTol*(norm(p)+s.settings.XTol) {
			res.Status = XTolReached
			break
		}

		for j := 0; j < n; j++ {
			trial[j] = p[j] + delta.AtVec(j)
		}
		prob.Residuals(trial, rTrial)
		res.Evaluations++
		newCost := halfSumSquares(rTrial)

		predicted := 0.0
		for j := 0; j < n; j++ {
			dj := delta.AtVec(j)
			predicted += dj * (lambda*diag[j]*dj + grad.AtVec(j))
		}
		predicted *= 0.5

		rho := -1.0
		if allFinite(rTrial) && predicted > 0 {
			rho = (cost - newCost) / predicted
		}

		s.log.Debug("lm iteration",
			zap.Int("iter", iter),
			zap.Float64s("params", trial),
			zap.Float64("cost", newCost),
			zap.Float64("lambda", lambda),
			zap.Float64("rho", rho),
		)

		if rho <= 0 {
			lambda, nu = lambda*nu, nu*2
			continue
		}

		actual := cost - newCost
		prevCost := cost
		copy(p, trial)
		copy(r, rTrial)
		cost = newCost
		res.Evaluations += jacobian(prob, p, r, jac)

		lambda *= math.Max(1.0/3.0, 1-math.Pow(2*rho-1, 3))
		nu = 2

		if cost == 0 {
			res.Status = ZeroResidual
			break
		}
		if actual <= s.settings.FTol*prevCost && predicted <= s.settings.FTol*prevCost {
			res.Status = FTolReached
			break
		}
	}

	s.fill(res, p, cost, res.Iterations)
	if res.Status == NotConverged {
		return res, fmt.Errorf("%w (%d iterations)", ErrNoConvergence, res.Iterations)
	}

	if err := s.covariance(res, jac, m); err != nil {
		return res, err
	}

	s.log.Debug("lm converged",
		zap.Stringer("status", res.Status),
		zap.Int("iterations", res.Iterations),
		zap.Int("evaluations", res.Evaluations),
		zap.Float64s("params", res.Params),
		zap.Float64s("stderr", res.StdErr),
	)
	return res, nil
}

func (s *Solver) fill(res *Result, p []float64, cost float64, iter int) {
	res.Params = append(res.Params[:0], p...)
	res.Cost = cost
	res.Iterations = iter
}

func (s *Solver) covariance(res *Result, jac *mat.Dense, m int) error {
	n := len(res.Params)
	if m <= n {
		return ErrUndeterminedCovariance
	}

	jtj := mat.NewSymDense(n, nil)
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok {
		return ErrSingularJacobian
	}
	if c := chol.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > maxCondition {
		return fmt.Errorf("%w (cond=%.3g)", ErrSingularJacobian, c)
	}

	cov := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(cov); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularJacobian, err)
	}
	s2 := res.RSS() / float64(m-n)
	cov.ScaleSym(s2, cov)

	res.Covariance = cov
	res.StdErr = make([]float64, n)
	for j := 0; j < n; j++ {
		res.StdErr[j] = math.Sqrt(cov.At(j, j))
	}
	return nil
}

func halfSumSquares(r []float64) float64 {
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return 0.5 * sum
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func maxAbs(v *mat.VecDense) float64 {
	best := 0.0
	for i := 0; i < v.Len(); i++ {
		best = math.Max(best, math.Abs(v.AtVec(i)))
	}
	return best
}
