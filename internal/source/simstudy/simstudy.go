// Package simstudy provides simulated exposure-response studies with known
// true parameters: the "sim-logistic" binary-endpoint study and the
// "sim-emax" continuous-endpoint study. Both are deterministic for a fixed
// seed, which makes them usable in the tutorial book and in tests.
package simstudy

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/source"
)

func init() {
	source.Register("sim-logistic", func() source.Source { return &Logistic{} })
	source.Register("sim-emax", func() source.Source { return &Emax{} })
}

const defaultSubjects = 200

// param returns the override for name, or the default.
func param(cfg source.Config, name string, def float64) float64 {
	if v, ok := cfg.Params[name]; ok {
		return v
	}
	return def
}

func subjects(cfg source.Config) int {
	if cfg.Subjects > 0 {
		return cfg.Subjects
	}
	return defaultSubjects
}

// Logistic simulates a binary-endpoint study: AUC exposure, age/weight/sex
// covariates, and a Bernoulli response on the logit-linear scale. Weight has
// no true effect, so covariate selection has something to discard.
type Logistic struct{}

// True parameter defaults for the logistic study.
const (
	logitIntercept = -3.0
	logitSlopeAUC  = 0.045
	logitSlopeAge  = 0.02 // per year from age 55
	logitSlopeSex  = 0.6
)

func (l *Logistic) Load(ctx context.Context, cfg source.Config) (*dataset.Table, error) {
	n := subjects(cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))
	src := rand.NewSource(cfg.Seed + 1)

	b0 := param(cfg, "intercept", logitIntercept)
	bAUC := param(cfg, "b_auc", logitSlopeAUC)
	bAge := param(cfg, "b_age", logitSlopeAge)
	bSex := param(cfg, "b_sex", logitSlopeSex)

	aucDist := distuv.LogNormal{Mu: math.Log(50), Sigma: 0.5, Src: src}
	ids := make([]string, n)
	auc := make([]float64, n)
	age := make([]float64, n)
	weight := make([]float64, n)
	sex := make([]float64, n)
	resp := make([]float64, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		ids[i] = "S" + strconv.Itoa(i+1)
		auc[i] = aucDist.Rand()
		age[i] = 55 + 12*rng.NormFloat64()
		weight[i] = 78 + 14*rng.NormFloat64()
		if rng.Float64() < 0.5 {
			sex[i] = 1
		}
		eta := b0 + bAUC*auc[i] + bAge*(age[i]-55) + bSex*sex[i]
		p := 1 / (1 + math.Exp(-eta))
		if rng.Float64() < p {
			resp[i] = 1
		}
	}
	tab, err := dataset.New(ids, []string{"auc", "age", "weight", "sex", "response"}, map[string][]float64{
		"auc": auc, "age": age, "weight": weight, "sex": sex, "response": resp,
	})
	if err != nil {
		return nil, fmt.Errorf("sim-logistic: %w", err)
	}
	return tab, nil
}

func (l *Logistic) Describe() string {
	return "simulated binary-endpoint study (logit-linear in AUC, age and sex effects)"
}

// Emax simulates a continuous-endpoint study: concentration exposure and a
// Normal response on a saturating Emax curve.
type Emax struct{}

// True parameter defaults for the Emax study.
const (
	emaxE0    = 2.0
	emaxEmax  = 8.0
	emaxEC50  = 12.0
	emaxSigma = 0.8
)

func (e *Emax) Load(ctx context.Context, cfg source.Config) (*dataset.Table, error) {
	n := subjects(cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))
	src := rand.NewSource(cfg.Seed + 1)

	e0 := param(cfg, "e0", emaxE0)
	emax := param(cfg, "emax", emaxEmax)
	ec50 := param(cfg, "ec50", emaxEC50)
	sigma := param(cfg, "sigma", emaxSigma)
	if ec50 <= 0 || sigma <= 0 {
		return nil, fmt.Errorf("sim-emax: ec50 and sigma must be positive")
	}

	concDist := distuv.LogNormal{Mu: math.Log(10), Sigma: 1, Src: src}
	ids := make([]string, n)
	conc := make([]float64, n)
	effect := make([]float64, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		ids[i] = "S" + strconv.Itoa(i+1)
		conc[i] = concDist.Rand()
		mu := e0 + emax*conc[i]/(ec50+conc[i])
		effect[i] = mu + sigma*rng.NormFloat64()
	}
	tab, err := dataset.New(ids, []string{"conc", "effect"}, map[string][]float64{
		"conc": conc, "effect": effect,
	})
	if err != nil {
		return nil, fmt.Errorf("sim-emax: %w", err)
	}
	return tab, nil
}

func (e *Emax) Describe() string {
	return "simulated continuous-endpoint study (Emax curve in concentration)"
}
