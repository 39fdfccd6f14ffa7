package lsq

import "errors"

var (
	// ErrNoConvergence indicates the iteration cap was hit before any tolerance.
	ErrNoConvergence = errors.New("lsq: iteration limit reached without convergence")

	// ErrSingularJacobian indicates JᵀJ is singular or too ill-conditioned to invert.
	ErrSingularJacobian = errors.New("lsq: singular jacobian, covariance cannot be estimated")

	// ErrUndeterminedCovariance indicates no residual degrees of freedom (m <= n).
	ErrUndeterminedCovariance = errors.New("lsq: covariance undetermined, need more residuals than parameters")

	// ErrNonFinite indicates the residuals at the starting point are NaN or Inf.
	ErrNonFinite = errors.New("lsq: non-finite residuals at initial guess")

	// ErrDimension indicates an empty parameter vector or fewer residuals than parameters.
	ErrDimension = errors.New("lsq: dimension mismatch")
)
