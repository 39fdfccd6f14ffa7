// Package exsy extracts two-site chemical exchange rates from EXSY
// intensity-ratio build-up curves.
//
// The package provides:
//
//   - [Ratio]: closed-form I12/I11 versus mixing time for rates (k12, k21)
//   - [Estimator]: Levenberg–Marquardt fit of the rates with standard errors
//   - [ExchangeRatio]: Kex = k12/k21 with first-order propagated error
//
// Mixing times are taken in milliseconds, so the fit runs in ms⁻¹. Reported
// rates are multiplied by [UnitFactor] to give s⁻¹.
//
// # Example
//
//	est := exsy.NewEstimator(exsy.WithLogger(logger))
//	res, err := est.Fit(ctx, times, ratios)
//	if errors.Is(err, exsy.ErrFitDidNotConverge) {
//	    // no optimum or no covariance
//	}
//	fmt.Println(res.Kex, res.KexError)
package exsy
