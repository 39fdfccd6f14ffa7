package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/exsyfit/internal/exsy"
	"github.com/san-kum/exsyfit/internal/synth"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	KeyName = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00aaaa")).
		Bold(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555566"))

	Good = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	Warn = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
)

func metric(label, value string) string {
	return MetricLabel.Render(fmt.Sprintf("%-6s", label)) + " " + MetricValue.Render(value)
}

// RenderReport is the styled counterpart of exsy.Report.
func RenderReport(res *exsy.FitResult) string {
	lines := []string{
		Title.Render("exchange rates"),
		"",
		metric("k_12", fmt.Sprintf("%.3f ± %.3f s⁻¹", res.Rates.K12, res.StdErr.K12)),
		metric("k_21", fmt.Sprintf("%.3f ± %.3f s⁻¹", res.Rates.K21, res.StdErr.K21)),
		metric("K_ex", fmt.Sprintf("%.3f ± %.3f", res.Kex, res.KexError)),
		"",
		Subtle.Render(fmt.Sprintf("%d points  %d iterations  rss %.3g  (%s)", res.Points, res.Iterations, res.RSS, res.Status)),
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// RenderTrials summarises a Monte Carlo ensemble.
func RenderTrials(sum *synth.TrialSummary) string {
	truth := sum.Scenario.Rates().Scale(exsy.UnitFactor)
	coverage := fmt.Sprintf("%.1f%% within %.0fσ", 100*sum.Coverage, sum.Sigmas)
	style := Good
	if sum.Failures > 0 {
		style = Warn
	}

	lines := []string{
		Title.Render("trials: " + sum.Scenario.Name),
		"",
		metric("k_12", fmt.Sprintf("%.3f ± %.3f s⁻¹ (true %.3f)", sum.Mean.K12, sum.StdDev.K12, truth.K12)),
		metric("k_21", fmt.Sprintf("%.3f ± %.3f s⁻¹ (true %.3f)", sum.Mean.K21, sum.StdDev.K21, truth.K21)),
		metric("cover", coverage),
		"",
		style.Render(fmt.Sprintf("%d trials, %d failed", sum.Trials, sum.Failures)),
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func keys(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(KeyName.Render(pairs[i]) + KeyHint.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}
