package covariate

import (
	"fmt"
	"math"

	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
)

// Effect is the summarized contrast of one specification row against its
// covariate's reference row: an odds ratio for logistic models, a response
// difference for Emax models. Reference rows carry the null effect.
type Effect struct {
	Covariate string  `json:"covariate"`
	Label     string  `json:"label"`
	Reference bool    `json:"reference"`
	Ratio     bool    `json:"ratio"` // odds ratio (true) or difference (false)
	Estimate  float64 `json:"estimate"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// Effects evaluates every row of the specification at the given exposure,
// contrasting against the covariate's reference with all other covariates
// held at reference. Draw pairing preserves posterior correlation.
func Effects(sim *predict.Simulator, spec *Spec, fam model.Family, exposure, prob float64) ([]Effect, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ratio := fam == model.Logistic

	// Baseline covariate values: every covariate at its reference.
	base := map[string]float64{}
	for _, c := range spec.Covariates() {
		ref, err := spec.reference(c)
		if err != nil {
			return nil, err
		}
		base[c] = ref.Value
	}

	var out []Effect
	for _, row := range spec.Rows() {
		eff := Effect{Covariate: row.Covariate, Label: row.Label, Reference: row.Reference, Ratio: ratio}
		if row.Reference {
			if ratio {
				eff.Estimate, eff.Lower, eff.Upper = 1, 1, 1
			}
			out = append(out, eff)
			continue
		}

		covs := map[string]float64{}
		for k, v := range base {
			covs[k] = v
		}
		covs[row.Covariate] = row.Value

		var at, ref []float64
		var err error
		if ratio {
			at, err = sim.Linear(exposure, covs)
			if err == nil {
				ref, err = sim.Linear(exposure, base)
			}
		} else {
			at, err = sim.Expected(exposure, covs)
			if err == nil {
				ref, err = sim.Expected(exposure, base)
			}
		}
		if err != nil {
			return nil, err
		}

		contrast := make([]float64, len(at))
		for i := range at {
			if ratio {
				// Difference in log-odds exponentiates to an odds ratio.
				contrast[i] = math.Exp(at[i] - ref[i])
			} else {
				contrast[i] = at[i] - ref[i]
			}
		}
		iv, err := posterior.QuantileInterval(contrast, prob)
		if err != nil {
			return nil, fmt.Errorf("covariate: %s: %w", row.Label, err)
		}
		eff.Estimate, eff.Lower, eff.Upper = iv.Median, iv.Lower, iv.Upper
		out = append(out, eff)
	}
	return out, nil
}
