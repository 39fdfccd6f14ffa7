package plot

import (
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/exsyfit/internal/exsy"
)

// Residuals charts observed minus fitted ratio in mixing-time order.
func Residuals(times, ratios []float64, res *exsy.FitResult, width, height int) string {
	if len(times) == 0 {
		return ""
	}
	raw := res.Residuals(times, ratios)
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })
	resid := make([]float64, len(idx))
	for i, j := range idx {
		resid[i] = raw[j]
	}

	// asciigraph needs at least two samples to draw a line
	if len(resid) == 1 {
		resid = append(resid, resid[0])
	}

	return asciigraph.Plot(resid,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(4),
		asciigraph.Caption("residuals (I12/I11 observed - fitted)"),
	)
}

// Curve charts the fitted curve alone, for terminals without braille fonts.
func Curve(f *Figure, width, height int) string {
	if len(f.CurveY) == 0 {
		return ""
	}
	return asciigraph.Plot(f.CurveY,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption("fitted I12/I11 vs mixing time"),
	)
}
