// Package lsq solves small nonlinear least-squares problems with the
// Levenberg–Marquardt method and estimates the parameter covariance at the
// optimum.
//
// A [Problem] supplies residuals r(p) = f(p) − y; the solver minimises
// ½·‖r‖². Problems that also implement [Jacobianer] provide an analytic
// Jacobian, otherwise a forward-difference one is built.
//
// # Example
//
//	solver := lsq.NewSolver(lsq.DefaultSettings(), logger)
//	res, err := solver.Solve(ctx, prob, []float64{1, 1})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Params, res.StdErr)
//
// # Covariance
//
// The covariance is inv(JᵀJ)·s² with s² = ‖r‖²/(m−n), matching the usual
// unweighted curve-fitting convention. It needs more residuals than
// parameters and a well-conditioned JᵀJ.
package lsq
