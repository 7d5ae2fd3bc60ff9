package erlab

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pkbridge/erlab/internal/covariate"
	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/loo"
	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
)

// Dataset is an immutable study table: one row per subject, float columns
// for response, exposure, and covariates.
type Dataset struct {
	tab *dataset.Table
}

// ReadCSV loads a dataset from a CSV file. idColumn names the subject
// identifier column ("" for none); all other columns must parse as floats.
func ReadCSV(path, idColumn string) (*Dataset, error) {
	tab, err := dataset.ReadCSVFile(path, idColumn)
	if err != nil {
		return nil, err
	}
	return &Dataset{tab: tab}, nil
}

// NewDataset builds a dataset from columns of equal length. Subject IDs are
// generated as 1..n.
func NewDataset(columns map[string][]float64) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("erlab: no columns")
	}
	n := -1
	names := make([]string, 0, len(columns))
	for name, v := range columns {
		if n < 0 {
			n = len(v)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	tab, err := dataset.New(ids, names, columns)
	if err != nil {
		return nil, err
	}
	return &Dataset{tab: tab}, nil
}

// N returns the number of subjects.
func (d *Dataset) N() int { return d.tab.N() }

// Columns returns the column names.
func (d *Dataset) Columns() []string { return d.tab.Columns() }

// ParamSummary is the posterior summary of one parameter.
type ParamSummary struct {
	Param  string
	Mean   float64
	SD     float64
	Median float64
	Lower  float64
	Upper  float64
	Rhat   float64
	ESS    float64
}

// CurvePoint is a summarized prediction at one exposure.
type CurvePoint struct {
	Exposure float64
	Median   float64
	Lower    float64
	Upper    float64
}

// CovariateEffect contrasts one covariate level against its reference.
type CovariateEffect struct {
	Covariate string
	Label     string
	Reference bool
	OddsRatio bool // odds ratio when true, response difference otherwise
	Estimate  float64
	Lower     float64
	Upper     float64
}

// Fit is a fitted exposure-response model. Immutable and safe for
// concurrent reads.
type Fit struct {
	m    *model.Model
	d    *posterior.Draws
	sim  *predict.Simulator
	tab  *dataset.Table
	sums []posterior.Summary
	prob float64
}

// FitLogistic fits a Bernoulli-logit model linear in exposure. The response
// column must be 0/1.
func FitLogistic(ctx context.Context, data *Dataset, response, exposure string, opts ...Option) (*Fit, error) {
	return fit(ctx, data, model.Logistic, response, exposure, opts)
}

// FitEmax fits a saturating Emax curve with a Normal likelihood. The Hill
// coefficient is fixed at 1 unless WithHill is given.
func FitEmax(ctx context.Context, data *Dataset, response, exposure string, opts ...Option) (*Fit, error) {
	return fit(ctx, data, model.Emax, response, exposure, opts)
}

// FitLinear fits a Normal-likelihood model linear in exposure, the usual
// comparison candidate against Emax.
func FitLinear(ctx context.Context, data *Dataset, response, exposure string, opts ...Option) (*Fit, error) {
	return fit(ctx, data, model.Linear, response, exposure, opts)
}

func fit(ctx context.Context, data *Dataset, fam model.Family, response, exposure string, opts []Option) (*Fit, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	spec := model.Spec{
		Name:         string(fam),
		Family:       fam,
		Response:     response,
		Exposure:     exposure,
		Covariates:   o.covariates,
		EstimateHill: o.hill && fam == model.Emax,
		Priors:       o.priors,
	}
	m, err := model.Build(spec, data.tab)
	if err != nil {
		return nil, fmt.Errorf("erlab: %w", err)
	}
	res, err := mcmc.Sample(ctx, m, o.sampler)
	if err != nil {
		return nil, fmt.Errorf("erlab: %w", err)
	}
	sums, err := posterior.Summarize(res.Draws, o.interval)
	if err != nil {
		return nil, fmt.Errorf("erlab: %w", err)
	}
	sim, err := predict.New(m, res.Draws)
	if err != nil {
		return nil, fmt.Errorf("erlab: %w", err)
	}
	return &Fit{m: m, d: res.Draws, sim: sim, tab: data.tab, sums: sums, prob: o.interval}, nil
}

// Params returns parameter names in sampling order.
func (f *Fit) Params() []string { return f.m.ParamNames() }

// Summary returns per-parameter posterior summaries with convergence
// diagnostics.
func (f *Fit) Summary() []ParamSummary {
	out := make([]ParamSummary, len(f.sums))
	for i, s := range f.sums {
		out[i] = ParamSummary{
			Param: s.Param, Mean: s.Mean, SD: s.SD, Median: s.Median,
			Lower: s.Lower, Upper: s.Upper, Rhat: s.Rhat, ESS: s.ESS,
		}
	}
	return out
}

// MaxRhat returns the worst split-Rhat across parameters. Values above ~1.05
// mean the chains have not mixed.
func (f *Fit) MaxRhat() float64 { return posterior.MaxRhat(f.sums) }

// Draws returns the pooled posterior draws of one parameter.
func (f *Fit) Draws(param string) ([]float64, error) {
	return f.d.Param(param)
}

// Curve summarizes expected responses over an exposure grid. Missing
// covariates default to 0.
func (f *Fit) Curve(exposures []float64, covs map[string]float64) ([]CurvePoint, error) {
	pts, err := f.sim.Curve(exposures, covs, f.prob)
	if err != nil {
		return nil, err
	}
	out := make([]CurvePoint, len(pts))
	for i, p := range pts {
		out[i] = CurvePoint{Exposure: p.Exposure, Median: p.Median, Lower: p.Lower, Upper: p.Upper}
	}
	return out, nil
}

// Predictive summarizes the posterior predictive response at one exposure,
// including observation noise. Deterministic for a fixed seed.
func (f *Fit) Predictive(exposure float64, covs map[string]float64, seed uint64) (CurvePoint, error) {
	draws, err := f.sim.Predictive(exposure, covs, seed)
	if err != nil {
		return CurvePoint{}, err
	}
	iv, err := posterior.QuantileInterval(draws, f.prob)
	if err != nil {
		return CurvePoint{}, err
	}
	return CurvePoint{Exposure: exposure, Median: iv.Median, Lower: iv.Lower, Upper: iv.Upper}, nil
}

// Effects contrasts each covariate level against its reference at the median
// observed exposure: odds ratios for logistic fits, response differences
// otherwise. Binary covariates are evaluated at their two levels, continuous
// ones at the quartiles.
func (f *Fit) Effects() ([]CovariateEffect, error) {
	spec := f.m.Spec()
	if len(spec.Covariates) == 0 {
		return nil, fmt.Errorf("erlab: fit has no covariates")
	}
	cspec, err := covariate.Default(spec.Covariates, f.tab)
	if err != nil {
		return nil, err
	}
	x, err := f.tab.Column(spec.Exposure)
	if err != nil {
		return nil, err
	}
	sort.Float64s(x)
	med := stat.Quantile(0.5, stat.Empirical, x, nil)

	effs, err := covariate.Effects(f.sim, cspec, spec.Family, med, f.prob)
	if err != nil {
		return nil, err
	}
	out := make([]CovariateEffect, len(effs))
	for i, e := range effs {
		out[i] = CovariateEffect{
			Covariate: e.Covariate, Label: e.Label, Reference: e.Reference,
			OddsRatio: e.Ratio, Estimate: e.Estimate, Lower: e.Lower, Upper: e.Upper,
		}
	}
	return out, nil
}

// LOO is a PSIS-LOO estimate for one fit.
type LOO struct {
	ELPD float64 // expected log pointwise predictive density
	SE   float64
	PLoo float64 // effective parameter count
	BadK int     // observations with Pareto k > 0.7
}

// LOO estimates out-of-sample predictive density by Pareto-smoothed
// importance sampling.
func (f *Fit) LOO() (LOO, error) {
	r, err := loo.Compute(f.m.Spec().Name, f.d, f.m.PointLogLik, f.m.N())
	if err != nil {
		return LOO{}, err
	}
	return LOO{ELPD: r.ELPD, SE: r.SE, PLoo: r.PLoo, BadK: r.BadK()}, nil
}

// ModelRank is one row of a model comparison, best model first with Diff 0.
type ModelRank struct {
	Name   string
	ELPD   float64
	SE     float64
	Diff   float64 // elpd - best elpd
	SEDiff float64
	BadK   int
}

// Compare ranks fits of the same dataset by PSIS-LOO. Names follow the model
// family, disambiguated by position.
func Compare(fits ...*Fit) ([]ModelRank, error) {
	if len(fits) < 2 {
		return nil, fmt.Errorf("erlab: need at least 2 fits to compare, got %d", len(fits))
	}
	results := make([]*loo.Result, len(fits))
	seen := map[string]int{}
	for i, f := range fits {
		name := f.m.Spec().Name
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s-%d", name, seen[name])
		}
		r, err := loo.Compute(name, f.d, f.m.PointLogLik, f.m.N())
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	comps, err := loo.Compare(results)
	if err != nil {
		return nil, err
	}
	out := make([]ModelRank, len(comps))
	for i, c := range comps {
		out[i] = ModelRank{Name: c.Name, ELPD: c.ELPD, SE: c.SE, Diff: c.Diff, SEDiff: c.SEDiff, BadK: c.BadK}
	}
	return out, nil
}
