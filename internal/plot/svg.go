package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const (
	marginLeft   = 70.0
	marginRight  = 20.0
	marginTop    = 20.0
	marginBottom = 55.0
	numTicks     = 5
)

// SVG renders the figure: error bars with caps, circular markers and the
// dashed model curve.
func SVG(f *Figure, theme Theme, width, height int) string {
	w, h := float64(width), float64(height)
	plotW := w - marginLeft - marginRight
	plotH := h - marginTop - marginBottom
	b := f.bounds()

	px := func(x float64) float64 { return marginLeft + (x-b.minX)/(b.maxX-b.minX)*plotW }
	py := func(y float64) float64 { return marginTop + plotH - (y-b.minY)/(b.maxY-b.minY)*plotH }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="%s" font-size="12">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, theme.FontFamily, theme.Background))

	// Axes
	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="1" fill="none">
<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, theme.Axis, marginLeft, marginTop, plotW, plotH))
	for _, v := range Linspace(b.minX, b.maxX, numTicks) {
		x := px(v)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x, marginTop+plotH, x, marginTop+plotH+5))
	}
	for _, v := range Linspace(b.minY, b.maxY, numTicks) {
		y := py(v)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, marginLeft-5, y, marginLeft, y))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, theme.Text))
	for _, v := range Linspace(b.minX, b.maxX, numTicks) {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>
`, px(v), marginTop+plotH+18, tickLabel(v)))
	}
	for _, v := range Linspace(b.minY, b.maxY, numTicks) {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="middle">%s</text>
`, marginLeft-8, py(v), tickLabel(v)))
	}
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">t(m): Mixing Time (ms)</text>
`, marginLeft+plotW/2, h-12))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle" transform="rotate(-90 %.1f %.1f)">I<tspan baseline-shift="sub" font-size="9">12</tspan>/I<tspan baseline-shift="sub" font-size="9">11</tspan></text>
`, 18.0, marginTop+plotH/2, 18.0, marginTop+plotH/2))
	sb.WriteString("</g>\n")

	// Model curve
	if len(f.CurveX) > 1 {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="%.1f" stroke-dasharray="6,4" d="`,
			theme.Curve, theme.LineWidth))
		pen := false
		for i, x := range f.CurveX {
			y := f.CurveY[i]
			if math.IsNaN(y) || math.IsInf(y, 0) {
				pen = false
				continue
			}
			if !pen {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", px(x), py(y)))
				pen = true
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(x), py(y)))
			}
		}
		sb.WriteString(`"/>
`)
	}

	// Error bars
	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="2">
`, theme.ErrorBar))
	for i, t := range f.Times {
		e := f.Errors[i]
		if e <= 0 {
			continue
		}
		x := px(t)
		lo, hi := py(f.Ratios[i]-e), py(f.Ratios[i]+e)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x, lo, x, hi,
			x-theme.CapSize, lo, x+theme.CapSize, lo,
			x-theme.CapSize, hi, x+theme.CapSize, hi))
	}
	sb.WriteString("</g>\n")

	// Measured points
	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, theme.Points))
	for i, t := range f.Times {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, px(t), py(f.Ratios[i]), theme.MarkerSize))
	}
	sb.WriteString("</g>\n")

	sb.WriteString("</svg>\n")
	return sb.String()
}

func WriteSVG(w io.Writer, f *Figure, theme Theme, width, height int) error {
	_, err := io.WriteString(w, SVG(f, theme, width, height))
	return err
}

// SaveSVG writes <prefix>_fit.svg and returns the path.
func SaveSVG(prefix string, f *Figure, theme Theme, width, height int) (string, error) {
	path := prefix + "_fit.svg"
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteSVG(file, f, theme, width, height); err != nil {
		return "", err
	}
	return path, file.Close()
}

func tickLabel(v float64) string {
	if math.Abs(v) < 1e-12 {
		return "0"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
