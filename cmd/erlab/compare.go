package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkbridge/erlab/internal/loo"
	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Fit the candidate models and rank them with PSIS-LOO",
	Long: `Fit every model in the [[models]] list of the study configuration against
the same dataset and rank them by expected log pointwise predictive density.
Observations with unreliable importance weights (Pareto k > 0.7) are counted
per model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Models) < 2 {
			return fmt.Errorf("compare: need at least 2 entries under [[models]], got %d", len(cfg.Models))
		}
		tab, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		results := make([]*loo.Result, 0, len(cfg.Models))
		for i, spec := range cfg.Models {
			name := spec.Name
			if name == "" {
				name = fmt.Sprintf("%s-%d", spec.Family, i+1)
			}
			m, err := model.Build(spec, tab)
			if err != nil {
				return fmt.Errorf("compare: %s: %w", name, err)
			}
			res, err := mcmc.Sample(cmd.Context(), m, cfg.Sampler)
			if err != nil {
				return fmt.Errorf("compare: %s: %w", name, err)
			}
			r, err := loo.Compute(name, res.Draws, m.PointLogLik, m.N())
			if err != nil {
				return fmt.Errorf("compare: %s: %w", name, err)
			}
			results = append(results, r)
		}

		comps, err := loo.Compare(results)
		if err != nil {
			return err
		}
		out, err := newOutput()
		if err != nil {
			return err
		}
		defer out.Close()
		return out.Write(cmd.Context(), report.CompareTable("LOO-CV comparison", comps))
	},
}
