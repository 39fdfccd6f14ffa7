package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/exsyfit/internal/config"
	"github.com/san-kum/exsyfit/internal/synth"
)

var (
	configFile string
	logLevel   string
	devLog     bool

	// fit
	outputPrefix string
	stylePath    string
	guessFlag    string
	gridSteps    int
	jsonOut      bool
	noPlot       bool
	terminal     bool
	pretty       bool

	// simulate / trials
	seed      int64
	noise     float64
	numTrials int
	sigmas    float64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "exsyfit [input]",
		Short:        "fit two-site exchange rates to EXSY intensity ratios",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runFit(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev", false, "human-readable development logs")
	addFitFlags(rootCmd)

	fitCmd := &cobra.Command{
		Use:   "fit [input]",
		Short: "fit k12 and k21 to a mixing-time / ratio file",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	addFitFlags(fitCmd)

	viewCmd := &cobra.Command{
		Use:   "view [input]",
		Short: "fit a file and browse the result interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runView,
	}
	viewCmd.Flags().StringVar(&stylePath, "style", "", "theme name or yaml style file")
	viewCmd.Flags().StringVar(&guessFlag, "guess", "", "initial guess k12,k21 in ms⁻¹")

	simulateCmd := &cobra.Command{
		Use:   "simulate [preset]",
		Short: "write a synthetic data file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	simulateCmd.Flags().Float64Var(&noise, "noise", 0, "override the preset's noise level")
	simulateCmd.Flags().StringVarP(&outputPrefix, "output", "o", "", "output file (default <preset>.txt)")

	trialsCmd := &cobra.Command{
		Use:   "trials [preset]",
		Short: "Monte Carlo check of fitted rates and their errors",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrials,
	}
	trialsCmd.Flags().IntVar(&numTrials, "n", config.DefaultTrials, "number of trials")
	trialsCmd.Flags().Int64Var(&seed, "seed", 1, "seed of the first trial")
	trialsCmd.Flags().Float64Var(&sigmas, "sigmas", config.DefaultSigmas, "coverage interval in standard errors")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list synthetic data presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tK12 (ms⁻¹)\tK21 (ms⁻¹)\tNOISE\tPOINTS")
			for _, name := range synth.ListPresets() {
				s, _ := synth.GetPreset(name)
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%d\n", name, s.K12, s.K21, s.Noise, len(s.Times))
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "exsyfit.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(fitCmd, viewCmd, simulateCmd, trialsCmd, presetsCmd, initCmd)
	return rootCmd
}

func addFitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPrefix, "output", "o", config.DefaultOutput, "prefix for the output plot")
	cmd.Flags().StringVar(&stylePath, "style", "", "theme name or yaml style file")
	cmd.Flags().StringVar(&guessFlag, "guess", "", "initial guess k12,k21 in ms⁻¹")
	cmd.Flags().IntVar(&gridSteps, "grid", 0, "start from the best point of an NxN log grid")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as json")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip writing the plot file")
	cmd.Flags().BoolVar(&terminal, "terminal", false, "draw the fit in the terminal")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "styled report")
}
