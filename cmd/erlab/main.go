package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkbridge/erlab/internal/config"
	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/logging"
	"github.com/pkbridge/erlab/internal/output"
	"github.com/pkbridge/erlab/internal/output/file"
	"github.com/pkbridge/erlab/internal/output/multi"
	"github.com/pkbridge/erlab/internal/output/stdout"
	"github.com/pkbridge/erlab/internal/source"

	_ "github.com/pkbridge/erlab/internal/source/csvfile"
	_ "github.com/pkbridge/erlab/internal/source/simstudy"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "erlab",
	Short: "Bayesian exposure-response analysis",
	Long: `erlab fits Bayesian exposure-response models (logistic, Emax, linear) to
study data, simulates predictive curves at new exposures, evaluates covariate
effects, compares candidate models with PSIS-LOO, and renders a tutorial book.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logging.Init(cfg.Output.Path == "", logging.ParseLevel(cfg.LogLevel))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "study configuration file (TOML)")
	rootCmd.AddCommand(simulateCmd, fitCmd, listCmd, predictCmd, effectsCmd, compareCmd, bookCmd)
}

// newOutput builds the configured table destination. With an output path set,
// tables go to the file and still echo to stdout.
func newOutput() (output.Output, error) {
	format := output.ParseFormat(cfg.Output.Format)
	if cfg.Output.Path == "" {
		return stdout.New(format), nil
	}
	f, err := file.New(cfg.Output.Path, format)
	if err != nil {
		return nil, err
	}
	return multi.New(f, stdout.New(format)), nil
}

// loadData produces the study dataset from the configured source.
func loadData(ctx context.Context) (*dataset.Table, error) {
	ctor, err := source.Get(cfg.Dataset.Source)
	if err != nil {
		return nil, err
	}
	return ctor().Load(ctx, source.Config{
		Name:     cfg.Dataset.Source,
		Path:     cfg.Dataset.Path,
		IDColumn: cfg.Dataset.IDColumn,
		Subjects: cfg.Dataset.Subjects,
		Seed:     cfg.Dataset.Seed,
		Params:   cfg.Dataset.Params,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
