package lsq

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// line is y = p0 + p1*x with an analytic Jacobian.
type line struct {
	x, y []float64
}

func (l *line) Len() int { return len(l.x) }

func (l *line) Residuals(p, dst []float64) {
	for i := range l.x {
		dst[i] = p[0] + p[1]*l.x[i] - l.y[i]
	}
}

func (l *line) Jacobian(p []float64, dst *mat.Dense) {
	for i := range l.x {
		dst.Set(i, 0, 1)
		dst.Set(i, 1, l.x[i])
	}
}

// decay is y = p0*exp(-p1*x), left without a Jacobian on purpose.
type decay struct {
	x, y []float64
}

func (d *decay) Len() int { return len(d.x) }

func (d *decay) Residuals(p, dst []float64) {
	for i := range d.x {
		dst[i] = p[0]*math.Exp(-p[1]*d.x[i]) - d.y[i]
	}
}

// flat ignores its second parameter.
type flat struct {
	x, y []float64
}

func (f *flat) Len() int { return len(f.x) }

func (f *flat) Residuals(p, dst []float64) {
	for i := range f.x {
		dst[i] = p[0]*f.x[i] - f.y[i]
	}
}

func TestSolve_LinearCovariance(t *testing.T) {
	prob := &line{
		x: []float64{0, 1, 2, 3, 4, 5},
		y: []float64{1.1, 2.9, 5.2, 6.8, 9.1, 11.0},
	}

	res, err := NewSolver(DefaultSettings(), nil).Solve(context.Background(), prob, []float64{0, 0})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	n := float64(len(prob.x))
	var sx, sy, sxx, sxy float64
	for i := range prob.x {
		sx += prob.x[i]
		sy += prob.y[i]
		sxx += prob.x[i] * prob.x[i]
		sxy += prob.x[i] * prob.y[i]
	}
	xbar := sx / n
	Sxx := sxx - n*xbar*xbar
	slope := (sxy - n*xbar*sy/n) / Sxx
	intercept := sy/n - slope*xbar

	if math.Abs(res.Params[0]-intercept) > 1e-6 {
		t.Errorf("intercept = %v, want %v", res.Params[0], intercept)
	}
	if math.Abs(res.Params[1]-slope) > 1e-6 {
		t.Errorf("slope = %v, want %v", res.Params[1], slope)
	}

	s2 := res.RSS() / (n - 2)
	wantSlopeErr := math.Sqrt(s2 / Sxx)
	wantInterceptErr := math.Sqrt(s2 * (1/n + xbar*xbar/Sxx))

	if math.Abs(res.StdErr[1]-wantSlopeErr) > 1e-7 {
		t.Errorf("slope stderr = %v, want %v", res.StdErr[1], wantSlopeErr)
	}
	if math.Abs(res.StdErr[0]-wantInterceptErr) > 1e-7 {
		t.Errorf("intercept stderr = %v, want %v", res.StdErr[0], wantInterceptErr)
	}
	if res.Status == NotConverged {
		t.Error("expected a convergence status")
	}
}

func TestSolve_NumericJacobian(t *testing.T) {
	x := []float64{0, 0.5, 1, 1.5, 2, 3, 4}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2.5 * math.Exp(-1.3*x[i])
	}
	prob := &decay{x: x, y: y}

	res, err := NewSolver(DefaultSettings(), nil).Solve(context.Background(), prob, []float64{1, 1})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if math.Abs(res.Params[0]-2.5) > 1e-6 {
		t.Errorf("amplitude = %v, want 2.5", res.Params[0])
	}
	if math.Abs(res.Params[1]-1.3) > 1e-6 {
		t.Errorf("rate = %v, want 1.3", res.Params[1])
	}
	for j, e := range res.StdErr {
		if e > 1e-6 {
			t.Errorf("stderr[%d] = %v, want ~0 for exact data", j, e)
		}
	}
}

func TestSolve_DoesNotModifyGuess(t *testing.T) {
	prob := &line{x: []float64{0, 1, 2}, y: []float64{1, 2, 3}}
	p0 := []float64{0.5, 0.5}

	if _, err := NewSolver(DefaultSettings(), nil).Solve(context.Background(), prob, p0); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if p0[0] != 0.5 || p0[1] != 0.5 {
		t.Errorf("initial guess modified: %v", p0)
	}
}

func TestSolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		prob Problem
		p0   []float64
		want error
	}{
		{
			name: "no parameters",
			prob: &line{x: []float64{1, 2}, y: []float64{1, 2}},
			p0:   nil,
			want: ErrDimension,
		},
		{
			name: "fewer residuals than parameters",
			prob: &line{x: []float64{1}, y: []float64{1}},
			p0:   []float64{0, 0},
			want: ErrDimension,
		},
		{
			name: "non-finite start",
			prob: &line{x: []float64{1, 2, 3}, y: []float64{1, math.NaN(), 3}},
			p0:   []float64{0, 0},
			want: ErrNonFinite,
		},
		{
			name: "exactly determined",
			prob: &line{x: []float64{1, 2}, y: []float64{3, 5}},
			p0:   []float64{0, 0},
			want: ErrUndeterminedCovariance,
		},
		{
			name: "unidentifiable parameter",
			prob: &flat{x: []float64{1, 2, 3, 4}, y: []float64{2.1, 3.9, 6.2, 7.8}},
			p0:   []float64{1, 1},
			want: ErrSingularJacobian,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSolver(DefaultSettings(), nil).Solve(context.Background(), tt.prob, tt.p0)
			if !errors.Is(err, tt.want) {
				t.Errorf("Solve() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSolve_IterationCap(t *testing.T) {
	x := []float64{0, 0.5, 1, 1.5, 2, 3, 4}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2.5 * math.Exp(-1.3*x[i])
	}

	settings := DefaultSettings()
	settings.MaxIterations = 1
	res, err := NewSolver(settings, nil).Solve(context.Background(), &decay{x: x, y: y}, []float64{10, 0.01})
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
	if res == nil || res.Iterations != 1 {
		t.Errorf("expected last iterate after 1 iteration, got %+v", res)
	}
}

func TestSolve_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prob := &line{x: []float64{0, 1, 2}, y: []float64{1, 2, 3}}
	_, err := NewSolver(DefaultSettings(), nil).Solve(ctx, prob, []float64{0, 0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestForwardDifference(t *testing.T) {
	prob := &line{x: []float64{0, 1, 2, 3}, y: []float64{0, 0, 0, 0}}
	p := []float64{0.3, -1.2}
	r := make([]float64, prob.Len())
	prob.Residuals(p, r)

	numeric := mat.NewDense(prob.Len(), 2, nil)
	evals := ForwardDifference(prob, p, r, numeric)
	if evals != 2 {
		t.Errorf("expected 2 evaluations, got %d", evals)
	}

	analytic := mat.NewDense(prob.Len(), 2, nil)
	prob.Jacobian(p, analytic)

	if !mat.EqualApprox(numeric, analytic, 1e-6) {
		t.Errorf("numeric jacobian\n%v\ndiffers from analytic\n%v", mat.Formatted(numeric), mat.Formatted(analytic))
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{NotConverged, "not converged"},
		{FTolReached, "ftol"},
		{XTolReached, "xtol"},
		{GTolReached, "gtol"},
		{ZeroResidual, "zero residual"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func BenchmarkSolve_Decay(b *testing.B) {
	x := []float64{0, 0.5, 1, 1.5, 2, 3, 4}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2.5*math.Exp(-1.3*x[i]) + 0.01*math.Sin(float64(i))
	}
	prob := &decay{x: x, y: y}
	solver := NewSolver(DefaultSettings(), nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := solver.Solve(ctx, prob, []float64{1, 1}); err != nil {
			b.Fatal(err)
		}
	}
}
