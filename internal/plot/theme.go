package plot

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme is the plot style file: colors as hex strings plus marker sizes.
type Theme struct {
	Name       string  `yaml:"name"`
	Background string  `yaml:"background"`
	Axis       string  `yaml:"axis"`
	Text       string  `yaml:"text"`
	Points     string  `yaml:"points"`
	Curve      string  `yaml:"curve"`
	ErrorBar   string  `yaml:"error_bar"`
	MarkerSize float64 `yaml:"marker_size"`
	LineWidth  float64 `yaml:"line_width"`
	CapSize    float64 `yaml:"cap_size"`
	FontFamily string  `yaml:"font_family"`
}

var (
	ThemePaper = Theme{
		Name:       "paper",
		Background: "#ffffff",
		Axis:       "#000000",
		Text:       "#000000",
		Points:     "#1f77b4",
		Curve:      "#1f77b4",
		ErrorBar:   "#1f77b4",
		MarkerSize: 4,
		LineWidth:  1.5,
		CapSize:    3,
		FontFamily: "sans-serif",
	}

	ThemeDark = Theme{
		Name:       "dark",
		Background: "#0a0a0a",
		Axis:       "#888899",
		Text:       "#ffffff",
		Points:     "#00ffff",
		Curve:      "#ff00ff",
		ErrorBar:   "#00cccc",
		MarkerSize: 4,
		LineWidth:  1.5,
		CapSize:    3,
		FontFamily: "monospace",
	}
)

var Themes = map[string]Theme{
	"paper": ThemePaper,
	"dark":  ThemeDark,
}

// LoadTheme reads a YAML style file over the paper defaults. A missing file
// is not an error: ok is false and the default theme is returned.
func LoadTheme(path string) (theme Theme, ok bool, err error) {
	theme = ThemePaper
	if path == "" {
		return theme, false, nil
	}
	if named, found := Themes[path]; found {
		return named, true, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return theme, false, nil
	}
	if err != nil {
		return theme, false, err
	}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return ThemePaper, false, err
	}
	return theme, true, nil
}
