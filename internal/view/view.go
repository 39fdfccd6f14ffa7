package view

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/exsyfit/internal/dataset"
	"github.com/san-kum/exsyfit/internal/exsy"
	"github.com/san-kum/exsyfit/internal/plot"
)

const (
	modeOverlay = iota
	modeResiduals
	modeCurve
	numModes
)

var modeNames = [numModes]string{"overlay", "residuals", "curve"}

// Model is the interactive viewer for one fit.
type Model struct {
	name   string
	ds     *dataset.Dataset
	res    *exsy.FitResult
	fig    *plot.Figure
	theme  plot.Theme
	mode   int
	width  int
	height int
}

func New(name string, ds *dataset.Dataset, res *exsy.FitResult, theme plot.Theme) Model {
	return Model{
		name:   name,
		ds:     ds,
		res:    res,
		fig:    plot.NewFigure(ds, res, plot.DefaultSamples, plot.DefaultExtend),
		theme:  theme,
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.mode = (m.mode + 1) % numModes
		case "shift+tab", "left", "h":
			m.mode = (m.mode + numModes - 1) % numModes
		case "1":
			m.mode = modeOverlay
		case "2":
			m.mode = modeResiduals
		case "3":
			m.mode = modeCurve
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("\n  " + Title.Render("EXSYFIT") + "  " + Subtle.Render(m.name) + "\n\n")
	b.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(RenderReport(m.res)) + "\n\n")

	tabs := make([]string, numModes)
	for i, name := range modeNames {
		if i == m.mode {
			tabs[i] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Curve)).Render("▸ " + name)
		} else {
			tabs[i] = Subtle.Render("  " + name)
		}
	}
	b.WriteString("  " + strings.Join(tabs, "  ") + "\n\n")
	b.WriteString(m.chart() + "\n")
	b.WriteString("  " + keys("tab", "next view", "1-3", "jump", "q", "quit") + "\n")
	return b.String()
}

func (m Model) chart() string {
	cols := max(m.width-12, 20)
	rows := max(m.height-20, 6)

	switch m.mode {
	case modeResiduals:
		return plot.Residuals(m.ds.Times, m.ds.Ratios, m.res, cols, rows)
	case modeCurve:
		return plot.Curve(m.fig, cols, rows)
	default:
		canvas := plot.Terminal(m.fig, cols, rows)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Points)).MarginLeft(2)
		return style.Render(strings.TrimRight(canvas.String(), "\n"))
	}
}

// Run blocks until the user quits the viewer.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
