package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/exsyfit/internal/lsq"
)

const (
	DefaultOutput     = "exsy"
	DefaultLogLevel   = "warn"
	DefaultSamples    = 500
	DefaultExtend     = 1.1
	DefaultPlotWidth  = 640
	DefaultPlotHeight = 480
	DefaultTrials     = 100
	DefaultSigmas     = 3.0
	DefaultGridMin    = 1e-5
	DefaultGridMax    = 1.0
)

var ErrInitialGuess = errors.New("config: initial_guess needs exactly two values (k12, k21) in ms⁻¹")

type Config struct {
	Output   string         `yaml:"output"`
	Style    string         `yaml:"style"`
	LogLevel string         `yaml:"log_level"`
	Fit      FitConfig      `yaml:"fit"`
	Plot     PlotConfig     `yaml:"plot"`
	Simulate SimulateConfig `yaml:"simulate"`
}

type FitConfig struct {
	InitialGuess  []float64  `yaml:"initial_guess,omitempty"`
	MaxIterations int        `yaml:"max_iterations"`
	FTol          float64    `yaml:"ftol"`
	XTol          float64    `yaml:"xtol"`
	GTol          float64    `yaml:"gtol"`
	Grid          GridConfig `yaml:"grid"`
}

// GridConfig enables a coarse log-spaced start search when Steps > 0.
type GridConfig struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

type PlotConfig struct {
	Samples int     `yaml:"samples"`
	Extend  float64 `yaml:"extend"`
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
}

type SimulateConfig struct {
	Seed   int64   `yaml:"seed"`
	Trials int     `yaml:"trials"`
	Sigmas float64 `yaml:"sigmas"`
}

func DefaultConfig() *Config {
	s := lsq.DefaultSettings()
	return &Config{
		Output:   DefaultOutput,
		LogLevel: DefaultLogLevel,
		Fit: FitConfig{
			MaxIterations: s.MaxIterations,
			FTol:          s.FTol,
			XTol:          s.XTol,
			GTol:          s.GTol,
			Grid:          GridConfig{Min: DefaultGridMin, Max: DefaultGridMax},
		},
		Plot: PlotConfig{
			Samples: DefaultSamples,
			Extend:  DefaultExtend,
			Width:   DefaultPlotWidth,
			Height:  DefaultPlotHeight,
		},
		Simulate: SimulateConfig{
			Seed:   1,
			Trials: DefaultTrials,
			Sigmas: DefaultSigmas,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if n := len(c.Fit.InitialGuess); n != 0 && n != 2 {
		return ErrInitialGuess
	}
	if g := c.Fit.Grid; g.Steps > 0 && !(g.Min > 0 && g.Max > g.Min) {
		return fmt.Errorf("config: fit.grid needs 0 < min < max, got [%g, %g]", g.Min, g.Max)
	}
	if c.Plot.Samples < 2 {
		return fmt.Errorf("config: plot.samples must be at least 2, got %d", c.Plot.Samples)
	}
	if c.Plot.Extend <= 0 {
		return fmt.Errorf("config: plot.extend must be positive, got %g", c.Plot.Extend)
	}
	return nil
}

// Settings maps the fit section onto solver settings.
func (c *Config) Settings() lsq.Settings {
	s := lsq.DefaultSettings()
	if c.Fit.MaxIterations > 0 {
		s.MaxIterations = c.Fit.MaxIterations
	}
	if c.Fit.FTol > 0 {
		s.FTol = c.Fit.FTol
	}
	if c.Fit.XTol > 0 {
		s.XTol = c.Fit.XTol
	}
	if c.Fit.GTol > 0 {
		s.GTol = c.Fit.GTol
	}
	return s
}

// Guess returns the configured initial guess, if any.
func (c *Config) Guess() (k12, k21 float64, ok bool) {
	if len(c.Fit.InitialGuess) != 2 {
		return 0, 0, false
	}
	return c.Fit.InitialGuess[0], c.Fit.InitialGuess[1], true
}
