package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Family selects the exposure-response model form.
type Family string

const (
	// Logistic is a Bernoulli-logit model, linear in exposure and covariates.
	Logistic Family = "logistic"
	// Emax is a Normal-likelihood saturating curve: E0 + Emax*C^h/(EC50^h + C^h),
	// with covariates entering additively on E0.
	Emax Family = "emax"
	// Linear is a Normal-likelihood model linear in exposure and covariates,
	// the usual straw-man candidate against Emax in model comparison.
	Linear Family = "linear"
)

// Prior is a univariate prior on one (possibly log-transformed) parameter.
// Only the normal family is supported; positive parameters carry normal
// priors on their log scale, so no Jacobian terms are needed.
type Prior struct {
	Dist  string  `toml:"dist"`
	Mu    float64 `toml:"mu"`
	Sigma float64 `toml:"sigma"`
}

// LogProb evaluates the prior log-density at x.
func (p Prior) LogProb(x float64) float64 {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}.LogProb(x)
}

func (p Prior) validate(param string) error {
	if p.Dist != "" && p.Dist != "normal" {
		return fmt.Errorf("model: prior for %s: unsupported dist %q", param, p.Dist)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("model: prior for %s: sigma must be positive, got %g", param, p.Sigma)
	}
	return nil
}

// Spec describes a model to fit: family, response and exposure columns,
// optional covariate columns, and prior overrides keyed by parameter name.
// Unset priors get data-dependent defaults at Build time.
type Spec struct {
	Name         string           `toml:"name"`
	Family       Family           `toml:"family"`
	Response     string           `toml:"response"`
	Exposure     string           `toml:"exposure"`
	Covariates   []string         `toml:"covariates"`
	EstimateHill bool             `toml:"estimate_hill"`
	Priors       map[string]Prior `toml:"priors"`
}

// Validate checks the spec before binding to data.
func (s Spec) Validate() error {
	switch s.Family {
	case Logistic, Emax, Linear:
	default:
		return fmt.Errorf("model: unknown family %q", s.Family)
	}
	if s.Response == "" {
		return fmt.Errorf("model: response column not set")
	}
	if s.Exposure == "" {
		return fmt.Errorf("model: exposure column not set")
	}
	if s.Response == s.Exposure {
		return fmt.Errorf("model: response and exposure are both %q", s.Response)
	}
	for p, pr := range s.Priors {
		if err := pr.validate(p); err != nil {
			return err
		}
	}
	if s.EstimateHill && s.Family != Emax {
		return fmt.Errorf("model: estimate_hill requires the emax family")
	}
	return nil
}
