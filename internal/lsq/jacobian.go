package lsq

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem is a residual vector r(p) of fixed length.
type Problem interface {
	Len() int
	Residuals(p, dst []float64)
}

// Jacobianer is implemented by problems with an analytic Jacobian
// dst[i][j] = ∂r_i/∂p_j.
type Jacobianer interface {
	Jacobian(p []float64, dst *mat.Dense)
}

var sqrtEps = math.Sqrt(2.220446049250313e-16)

// ForwardDifference fills dst with a forward-difference Jacobian of prob at
// p, given r = prob.Residuals(p). It returns the number of residual evaluations.
func ForwardDifference(prob Problem, p, r []float64, dst *mat.Dense) int {
	m, n := len(r), len(p)
	shifted := make([]float64, n)
	copy(shifted, p)
	rh := make([]float64, m)

	for j := 0; j < n; j++ {
		h := sqrtEps * math.Abs(p[j])
		if h == 0 {
			h = sqrtEps
		}
		shifted[j] = p[j] + h
		// h as actually representable
		h = shifted[j] - p[j]
		prob.Residuals(shifted, rh)
		for i := 0; i < m; i++ {
			dst.Set(i, j, (rh[i]-r[i])/h)
		}
		shifted[j] = p[j]
	}
	return n
}

func jacobian(prob Problem, p, r []float64, dst *mat.Dense) int {
	if jp, ok := prob.(Jacobianer); ok {
		jp.Jacobian(p, dst)
		return 0
	}
	return ForwardDifference(prob, p, r, dst)
}
