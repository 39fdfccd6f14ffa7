package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/exsyfit/internal/config"
	"github.com/san-kum/exsyfit/internal/dataset"
	"github.com/san-kum/exsyfit/internal/exsy"
	"github.com/san-kum/exsyfit/internal/logging"
	"github.com/san-kum/exsyfit/internal/plot"
	"github.com/san-kum/exsyfit/internal/synth"
	"github.com/san-kum/exsyfit/internal/view"
)

const (
	termCols = 72
	termRows = 18
)

// loadConfig merges the config file and the flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = outputPrefix
	}
	if flags.Changed("style") {
		cfg.Style = stylePath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("guess") {
		k12, k21, err := parseGuess(guessFlag)
		if err != nil {
			return nil, err
		}
		cfg.Fit.InitialGuess = []float64{k12, k21}
	}
	if flags.Changed("grid") {
		cfg.Fit.Grid.Steps = gridSteps
	}
	if flags.Changed("seed") {
		cfg.Simulate.Seed = seed
	}
	if flags.Changed("n") {
		cfg.Simulate.Trials = numTrials
	}
	if flags.Changed("sigmas") {
		cfg.Simulate.Sigmas = sigmas
	}
	return cfg, nil
}

func parseGuess(s string) (k12, k21 float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--guess wants k12,k21, got %q", s)
	}
	k12, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--guess k12: %w", err)
	}
	k21, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--guess k21: %w", err)
	}
	return k12, k21, nil
}

// stripExt drops the last extension of p, leaving dotfiles alone.
func stripExt(p string) string {
	ext := filepath.Ext(p)
	if ext == "" || ext == filepath.Base(p) {
		return p
	}
	return strings.TrimSuffix(p, ext)
}

func newEstimator(cfg *config.Config, log *zap.Logger, report io.Writer) *exsy.Estimator {
	opts := []exsy.Option{
		exsy.WithSettings(cfg.Settings()),
		exsy.WithLogger(log),
		exsy.WithReport(report),
	}
	if g := cfg.Fit.Grid; g.Steps > 0 {
		opts = append(opts, exsy.WithGridSearch(g.Min, g.Max, g.Steps))
	}
	if k12, k21, ok := cfg.Guess(); ok {
		opts = append(opts, exsy.WithInitialGuess(k12, k21))
	}
	return exsy.NewEstimator(opts...)
}

func loadInput(path string) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file '%s' not found", path)
	}
	return dataset.Load(path)
}

func loadTheme(cfg *config.Config, log *zap.Logger) plot.Theme {
	theme, ok, err := plot.LoadTheme(cfg.Style)
	if err != nil {
		log.Warn("ignoring style", zap.String("style", cfg.Style), zap.Error(err))
	} else if !ok && cfg.Style != "" {
		log.Debug("style not found, using defaults", zap.String("style", cfg.Style))
	}
	return theme
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, devLog)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer log.Sync()

	ds, err := loadInput(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	msgs := out
	var report io.Writer = out
	if jsonOut || pretty {
		report = nil
	}
	if jsonOut {
		msgs = cmd.ErrOrStderr()
	}

	res, err := newEstimator(cfg, log, report).Fit(cmd.Context(), ds.Times, ds.Ratios)
	if err != nil {
		return err
	}

	switch {
	case jsonOut:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case pretty:
		fmt.Fprintln(out, view.RenderReport(res))
	}

	fig := plot.NewFigure(ds, res, cfg.Plot.Samples, cfg.Plot.Extend)
	if terminal {
		fmt.Fprint(msgs, plot.Terminal(fig, termCols, termRows).String())
		fmt.Fprintln(msgs, plot.Residuals(ds.Times, ds.Ratios, res, termCols, termRows/2))
	}
	if noPlot {
		return nil
	}

	path, err := plot.SaveSVG(stripExt(cfg.Output), fig, loadTheme(cfg, log), cfg.Plot.Width, cfg.Plot.Height)
	if err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	fmt.Fprintf(msgs, "Saved plot to: %s\n", path)
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, devLog)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer log.Sync()

	ds, err := loadInput(args[0])
	if err != nil {
		return err
	}
	res, err := newEstimator(cfg, log, nil).Fit(cmd.Context(), ds.Times, ds.Ratios)
	if err != nil {
		return err
	}
	return view.Run(view.New(filepath.Base(args[0]), ds, res, loadTheme(cfg, log)))
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s, ok := synth.GetPreset(args[0])
	if !ok {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], synth.ListPresets())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("noise") {
		s.Noise = noise
	}
	if err := s.Validate(); err != nil {
		return err
	}

	path := s.Name + ".txt"
	if cmd.Flags().Changed("output") {
		path = outputPrefix
	}
	ds := synth.Generate(s, cfg.Simulate.Seed)
	if err := dataset.Save(path, ds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points to %s (k12=%g, k21=%g ms⁻¹, seed %d)\n",
		ds.Len(), path, s.K12, s.K21, cfg.Simulate.Seed)
	return nil
}

func runTrials(cmd *cobra.Command, args []string) error {
	s, ok := synth.GetPreset(args[0])
	if !ok {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], synth.ListPresets())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, devLog)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer log.Sync()

	ens := synth.NewEnsemble(newEstimator(cfg, log, nil), cfg.Simulate.Trials, cfg.Simulate.Seed)
	sum, err := ens.Run(cmd.Context(), s, cfg.Simulate.Sigmas)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.RenderTrials(sum))
	return nil
}
