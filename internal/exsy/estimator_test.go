package exsy_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/exsyfit/internal/exsy"
	"github.com/san-kum/exsyfit/internal/lsq"
	"github.com/san-kum/exsyfit/internal/synth"
)

var _ = Describe("Estimator", func() {
	var (
		ctx    context.Context
		report *bytes.Buffer
		est    *exsy.Estimator
		times  []float64
	)

	const k12, k21 = 0.005, 0.01

	BeforeEach(func() {
		ctx = context.Background()
		report = &bytes.Buffer{}
		est = exsy.NewEstimator(exsy.WithReport(report))
		times = []float64{10, 50, 100, 200, 500, 1000}
	})

	Describe("noise-free data", func() {
		var res *exsy.FitResult

		BeforeEach(func() {
			var err error
			res, err = est.Fit(ctx, times, exsy.RatioSeries(times, k12, k21))
			Expect(err).NotTo(HaveOccurred())
		})

		It("recovers the generating rates in s⁻¹", func() {
			Expect(res.Rates.K12).To(BeNumerically("~", k12*exsy.UnitFactor, 1e-3*k12*exsy.UnitFactor))
			Expect(res.Rates.K21).To(BeNumerically("~", k21*exsy.UnitFactor, 1e-3*k21*exsy.UnitFactor))
		})

		It("keeps the raw ms⁻¹ pair alongside the converted one", func() {
			Expect(res.Rates.K12).To(Equal(res.Raw.K12 * exsy.UnitFactor))
			Expect(res.Rates.K21).To(Equal(res.Raw.K21 * exsy.UnitFactor))
			Expect(res.StdErr.K12).To(Equal(res.RawStdErr.K12 * exsy.UnitFactor))
			Expect(res.StdErr.K21).To(Equal(res.RawStdErr.K21 * exsy.UnitFactor))
		})

		It("reports near-zero standard errors", func() {
			Expect(res.StdErr.K12).To(BeNumerically("<", 1e-6))
			Expect(res.StdErr.K21).To(BeNumerically("<", 1e-6))
			Expect(res.KexError).To(BeNumerically("<", 1e-6))
		})

		It("derives Kex from the unconverted rates", func() {
			Expect(res.Kex).To(Equal(res.Raw.K12 / res.Raw.K21))
			Expect(res.Kex).To(BeNumerically("~", 0.5, 1e-6))
		})

		It("writes the three-line report", func() {
			lines := strings.Split(strings.TrimSpace(report.String()), "\n")
			Expect(lines).To(Equal([]string{
				"k_12 = 5.000 ± 0.000 s⁻¹",
				"k_21 = 10.000 ± 0.000 s⁻¹",
				"K_ex = 0.500 ± 0.000",
			}))
		})

		It("fills fit diagnostics", func() {
			Expect(res.Points).To(Equal(len(times)))
			Expect(res.Iterations).To(BeNumerically(">", 0))
			Expect(res.Status).NotTo(Equal(lsq.NotConverged.String()))
			Expect(res.Curve([]float64{0})).To(Equal([]float64{0}))
		})
	})

	Describe("noisy data", func() {
		It("stays within a few standard errors across seeded trials", func() {
			scenario := synth.Scenario{K12: k12, K21: k21, Noise: 0.01, Times: synth.StandardTimes}

			const trials = 20
			inside := 0
			for seed := int64(1); seed <= trials; seed++ {
				ds := synth.Generate(scenario, seed)
				res, err := est.Fit(ctx, ds.Times, ds.Ratios)
				Expect(err).NotTo(HaveOccurred(), "seed %d", seed)

				d12 := math.Abs(res.Raw.K12 - k12)
				d21 := math.Abs(res.Raw.K21 - k21)
				Expect(d12).To(BeNumerically("<=", 10*res.RawStdErr.K12), "seed %d", seed)
				Expect(d21).To(BeNumerically("<=", 10*res.RawStdErr.K21), "seed %d", seed)
				if d12 <= 3*res.RawStdErr.K12 && d21 <= 3*res.RawStdErr.K21 {
					inside++
				}
			}
			Expect(inside).To(BeNumerically(">=", trials*8/10))
		})

		It("propagates Kex error from the reported standard errors", func() {
			ds := synth.Generate(synth.Scenario{K12: k12, K21: k21, Noise: 0.01, Times: synth.StandardTimes}, 7)
			res, err := est.Fit(ctx, ds.Times, ds.Ratios)
			Expect(err).NotTo(HaveOccurred())

			want := res.Kex * math.Sqrt(
				math.Pow(res.StdErr.K12/res.Rates.K12, 2)+math.Pow(res.StdErr.K21/res.Rates.K21, 2))
			Expect(res.KexError).To(BeNumerically("~", want, 1e-12*want))
			Expect(res.KexError).To(BeNumerically(">", 0))
		})
	})

	Describe("input validation", func() {
		It("rejects mismatched lengths before solving", func() {
			_, err := est.Fit(ctx, []float64{10, 50, 100}, []float64{0.1, 0.2})
			Expect(err).To(MatchError(exsy.ErrShapeMismatch))

			var se *exsy.ShapeError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Times).To(Equal(3))
			Expect(se.Ratios).To(Equal(2))
			Expect(report.Len()).To(BeZero())
		})

		It("rejects a single point", func() {
			_, err := est.Fit(ctx, []float64{10}, []float64{0.1})
			Expect(err).To(MatchError(exsy.ErrShapeMismatch))
		})
	})

	Describe("solver failures", func() {
		It("fails without a covariance when points equal parameters", func() {
			two := []float64{50, 500}
			_, err := est.Fit(ctx, two, exsy.RatioSeries(two, k12, k21))
			Expect(err).To(MatchError(exsy.ErrFitDidNotConverge))
			Expect(errors.Is(err, lsq.ErrUndeterminedCovariance)).To(BeTrue())
		})

		It("fails when the iteration cap is hit", func() {
			settings := lsq.DefaultSettings()
			settings.MaxIterations = 1
			capped := exsy.NewEstimator(
				exsy.WithReport(nil),
				exsy.WithSettings(settings),
				exsy.WithInitialGuess(1, 1),
			)

			_, err := capped.Fit(ctx, times, exsy.RatioSeries(times, k12, k21))
			Expect(err).To(MatchError(exsy.ErrFitDidNotConverge))

			var fe *exsy.FitError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Guess).To(Equal(exsy.RateParameters{K12: 1, K21: 1}))
		})

		It("returns context cancellation unwrapped", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := est.Fit(canceled, times, exsy.RatioSeries(times, k12, k21))
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("initial guess", func() {
		It("uses an explicit guess when given", func() {
			guessed := exsy.NewEstimator(exsy.WithInitialGuess(0.004, 0.012), exsy.WithReport(nil))
			Expect(guessed.Guess(times, nil)).To(Equal(exsy.RateParameters{K12: 0.004, K21: 0.012}))

			res, err := guessed.Fit(ctx, times, exsy.RatioSeries(times, k12, k21))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Raw.K12).To(BeNumerically("~", k12, 1e-3*k12))
		})

		It("can start from a coarse grid search", func() {
			gridded := exsy.NewEstimator(exsy.WithGridSearch(1e-4, 1e-1, 13), exsy.WithReport(nil))
			res, err := gridded.Fit(ctx, times, exsy.RatioSeries(times, k12, k21))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Raw.K12).To(BeNumerically("~", k12, 1e-3*k12))
			Expect(res.Raw.K21).To(BeNumerically("~", k21, 1e-3*k21))
		})

		It("stops a grid search on cancellation", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			gridded := exsy.NewEstimator(exsy.WithGridSearch(1e-4, 1e-1, 13), exsy.WithReport(nil))
			_, err := gridded.Fit(canceled, times, exsy.RatioSeries(times, k12, k21))
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("ExchangeRatio", func() {
	It("applies independent relative-error propagation", func() {
		kex, kexErr, err := exsy.ExchangeRatio(
			exsy.RateParameters{K12: 2, K21: 4},
			exsy.RateParameters{K12: 0.2, K21: 0.2},
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(kex).To(Equal(0.5))
		Expect(kexErr).To(BeNumerically("~", 0.5*math.Sqrt(0.01+0.0025), 1e-15))
	})

	DescribeTable("rejects zero rates",
		func(rates exsy.RateParameters) {
			_, _, err := exsy.ExchangeRatio(rates, exsy.RateParameters{K12: 0.1, K21: 0.1})
			Expect(err).To(MatchError(exsy.ErrDegenerateParameter))
		},
		Entry("zero k21", exsy.RateParameters{K12: 5, K21: 0}),
		Entry("zero k12", exsy.RateParameters{K12: 0, K21: 5}),
		Entry("both zero", exsy.RateParameters{}),
	)

	It("rejects non-finite results", func() {
		_, _, err := exsy.ExchangeRatio(
			exsy.RateParameters{K12: math.MaxFloat64, K21: math.SmallestNonzeroFloat64},
			exsy.RateParameters{K12: 1, K21: 1},
		)
		Expect(err).To(MatchError(exsy.ErrDegenerateParameter))
	})
})
