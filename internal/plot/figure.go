package plot

import (
	"math"

	"github.com/san-kum/exsyfit/internal/dataset"
	"github.com/san-kum/exsyfit/internal/exsy"
)

const (
	DefaultSamples = 500
	DefaultExtend  = 1.1
)

// Figure is measured points with error bars overlaid on a model curve.
type Figure struct {
	Times  []float64
	Ratios []float64
	Errors []float64

	CurveX []float64
	CurveY []float64

	Caption string
}

// Linspace returns n evenly spaced values over [a, b].
func Linspace(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	out[n-1] = b
	return out
}

// Grid spans 0 to extend·max(times) with n samples.
func Grid(times []float64, n int, extend float64) []float64 {
	hi := 0.0
	for _, t := range times {
		hi = math.Max(hi, t)
	}
	return Linspace(0, hi*extend, n)
}

// NewFigure evaluates the fitted curve (in the raw ms⁻¹ rates) on a dense
// grid next to the measured data.
func NewFigure(ds *dataset.Dataset, res *exsy.FitResult, samples int, extend float64) *Figure {
	if samples < 2 {
		samples = DefaultSamples
	}
	if extend <= 0 {
		extend = DefaultExtend
	}
	grid := Grid(ds.Times, samples, extend)

	errs := ds.Errors
	if len(errs) != len(ds.Times) {
		errs = make([]float64, len(ds.Times))
	}

	return &Figure{
		Times:   ds.Times,
		Ratios:  ds.Ratios,
		Errors:  errs,
		CurveX:  grid,
		CurveY:  res.Curve(grid),
		Caption: res.String(),
	}
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (f *Figure) bounds() bounds {
	b := bounds{minX: 0, maxX: 0, minY: 0, maxY: 0}
	for _, x := range f.CurveX {
		b.maxX = math.Max(b.maxX, x)
	}
	for _, x := range f.Times {
		b.maxX = math.Max(b.maxX, x)
	}
	for _, y := range f.CurveY {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			b.minY = math.Min(b.minY, y)
			b.maxY = math.Max(b.maxY, y)
		}
	}
	for i, y := range f.Ratios {
		b.minY = math.Min(b.minY, y-f.Errors[i])
		b.maxY = math.Max(b.maxY, y+f.Errors[i])
	}

	if b.maxX == b.minX {
		b.maxX = b.minX + 1
	}
	if b.maxY == b.minY {
		b.maxY = b.minY + 1
	}
	b.maxY += (b.maxY - b.minY) * 0.05
	return b
}
