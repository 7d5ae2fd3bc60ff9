package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/fitstore"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
	"github.com/pkbridge/erlab/internal/report"
)

// parseCovs converts repeated name=value flags into a covariate map.
func parseCovs(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid covariate %q: expected name=value", p)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid covariate %q: %w", p, err)
		}
		out[name] = v
	}
	return out, nil
}

// loadFit restores a persisted fit and rebinds its model to the configured
// dataset.
func loadFit(cmd *cobra.Command, id string) (*model.Model, *predict.Simulator, *dataset.Table, error) {
	meta, draws, err := fitstore.Load(cfg.FitDir, id)
	if err != nil {
		return nil, nil, nil, err
	}
	tab, err := loadData(cmd.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := model.Build(meta.Spec, tab)
	if err != nil {
		return nil, nil, nil, err
	}
	sim, err := predict.New(m, draws)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, sim, tab, nil
}

// observedGrid spans the observed range of a column with n points.
func observedGrid(tab *dataset.Table, column string, n int) ([]float64, error) {
	x, err := tab.Column(column)
	if err != nil {
		return nil, err
	}
	return predict.Grid(floats.Min(x), floats.Max(x), n)
}

var predictCmd = &cobra.Command{
	Use:   "predict <fit-id>",
	Short: "Simulate the fitted exposure-response curve at new exposures",
	Long: `Summarize expected responses over an exposure grid for a persisted fit:
posterior median and central credible interval at each grid point. The grid
defaults to the observed exposure range of the configured dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, sim, tab, err := loadFit(cmd, args[0])
		if err != nil {
			return err
		}

		covPairs, _ := cmd.Flags().GetStringArray("cov")
		covs, err := parseCovs(covPairs)
		if err != nil {
			return err
		}

		min, _ := cmd.Flags().GetFloat64("min")
		max, _ := cmd.Flags().GetFloat64("max")
		points, _ := cmd.Flags().GetInt("points")
		var xs []float64
		if max > min {
			xs, err = predict.Grid(min, max, points)
		} else {
			xs, err = observedGrid(tab, m.Spec().Exposure, points)
		}
		if err != nil {
			return err
		}

		linear, _ := cmd.Flags().GetBool("linear")
		var pts []predict.Point
		if linear {
			pts, err = sim.LinearCurve(xs, covs, cfg.Output.Interval)
		} else {
			pts, err = sim.Curve(xs, covs, cfg.Output.Interval)
		}
		if err != nil {
			return err
		}

		at, _ := cmd.Flags().GetFloat64("at")
		out, err := newOutput()
		if err != nil {
			return err
		}
		defer out.Close()

		scale := "expected response"
		if linear {
			scale = "linear predictor"
		}
		title := fmt.Sprintf("Predicted %s (%s)", scale, args[0])
		if err := out.Write(cmd.Context(), report.CurveTable(title, pts, cfg.Output.Interval)); err != nil {
			return err
		}

		if at > 0 {
			seed, _ := cmd.Flags().GetUint64("seed")
			draws, err := sim.Predictive(at, covs, seed)
			if err != nil {
				return err
			}
			iv, err := posterior.QuantileInterval(draws, cfg.Output.Interval)
			if err != nil {
				return err
			}
			tab := report.CurveTable(
				fmt.Sprintf("Posterior predictive at exposure %g", at),
				[]predict.Point{{Exposure: at, Median: iv.Median, Lower: iv.Lower, Upper: iv.Upper}},
				cfg.Output.Interval)
			if err := out.Write(cmd.Context(), tab); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().Float64("min", 0, "grid lower bound (with --max)")
	predictCmd.Flags().Float64("max", 0, "grid upper bound; unset = observed range")
	predictCmd.Flags().Int("points", 50, "number of grid points")
	predictCmd.Flags().Bool("linear", false, "linear-predictor scale instead of expected response")
	predictCmd.Flags().Float64("at", 0, "also summarize the posterior predictive at this exposure")
	predictCmd.Flags().Uint64("seed", 1, "seed for posterior predictive noise")
	predictCmd.Flags().StringArray("cov", nil, "covariate value as name=value (repeatable)")
}
