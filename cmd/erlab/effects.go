package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/pkbridge/erlab/internal/covariate"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/report"
)

var effectsCmd = &cobra.Command{
	Use:   "effects <fit-id>",
	Short: "Evaluate covariate effects for a persisted fit",
	Long: `Contrast each covariate level against its reference at a fixed exposure:
odds ratios for logistic fits, response differences otherwise. Binary
covariates are evaluated at their two levels, continuous ones at the
quartiles.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, sim, tab, err := loadFit(cmd, args[0])
		if err != nil {
			return err
		}
		spec := m.Spec()
		if len(spec.Covariates) == 0 {
			return fmt.Errorf("effects: fit %s has no covariates", args[0])
		}

		cspec, err := covariate.Default(spec.Covariates, tab)
		if err != nil {
			return err
		}

		exposure, _ := cmd.Flags().GetFloat64("exposure")
		if exposure == 0 {
			x, err := tab.Column(spec.Exposure)
			if err != nil {
				return err
			}
			s := make([]float64, len(x))
			copy(s, x)
			sort.Float64s(s)
			exposure = stat.Quantile(0.5, stat.Empirical, s, nil)
		}

		effs, err := covariate.Effects(sim, cspec, spec.Family, exposure, cfg.Output.Interval)
		if err != nil {
			return err
		}

		if forest, _ := cmd.Flags().GetString("forest"); forest != "" {
			xlabel := "Difference in response"
			if spec.Family == model.Logistic {
				xlabel = "Odds ratio"
			}
			if err := report.ForestFigure(forest, "Covariate effects", xlabel, effs); err != nil {
				return err
			}
		}

		out, err := newOutput()
		if err != nil {
			return err
		}
		defer out.Close()
		title := fmt.Sprintf("Covariate effects at exposure %g (%s)", exposure, args[0])
		return out.Write(cmd.Context(), report.EffectsTable(title, effs, cfg.Output.Interval))
	},
}

func init() {
	effectsCmd.Flags().Float64("exposure", 0, "exposure to evaluate at; unset = observed median")
	effectsCmd.Flags().String("forest", "", "also save a forest plot to this path")
}
