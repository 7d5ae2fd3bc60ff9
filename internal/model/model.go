package model

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/pkbridge/erlab/internal/dataset"
)

const logSqrt2Pi = 0.9189385332046727 // log(sqrt(2*pi))

// Model is a Spec bound to a dataset: it evaluates the log-posterior over an
// unconstrained parameter vector and the mean response at new exposures.
// Immutable after Build.
type Model struct {
	spec   Spec
	names  []string
	priors []Prior

	y    []float64
	x    []float64
	covs [][]float64 // one slice per covariate, aligned with spec.Covariates

	// parameter indices into the theta vector
	iE0, iEmax, iLogEC50, iLogHill, iLogSigma int
	iCov0                                     int // first covariate coefficient
}

// Build binds a validated Spec to a Table, resolving default priors from the
// data. The table is read once; the Model keeps its own copies.
func Build(spec Spec, tab *dataset.Table) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	y, err := tab.Column(spec.Response)
	if err != nil {
		return nil, err
	}
	x, err := tab.Column(spec.Exposure)
	if err != nil {
		return nil, err
	}
	covs := make([][]float64, len(spec.Covariates))
	for i, c := range spec.Covariates {
		covs[i], err = tab.Column(c)
		if err != nil {
			return nil, err
		}
	}
	if spec.Family == Logistic {
		for _, yi := range y {
			if yi != 0 && yi != 1 {
				return nil, fmt.Errorf("model: logistic response %q has non-binary value %g", spec.Response, yi)
			}
		}
	}
	sdY := stat.StdDev(y, nil)
	if sdY == 0 || math.IsNaN(sdY) {
		return nil, fmt.Errorf("model: response %q has zero variance", spec.Response)
	}

	m := &Model{spec: spec, y: y, x: x, covs: covs,
		iE0: -1, iEmax: -1, iLogEC50: -1, iLogHill: -1, iLogSigma: -1, iCov0: -1}

	switch spec.Family {
	case Logistic:
		m.names = []string{"b_intercept", "b_" + spec.Exposure}
		m.priors = []Prior{m.prior("b_intercept", 0, 5), m.prior("b_"+spec.Exposure, 0, 5)}
		m.iCov0 = len(m.names)
		for _, c := range spec.Covariates {
			m.names = append(m.names, "b_"+c)
			m.priors = append(m.priors, m.prior("b_"+c, 0, 5))
		}
	case Linear:
		sdX := stat.StdDev(x, nil)
		if sdX == 0 || math.IsNaN(sdX) {
			return nil, fmt.Errorf("model: exposure %q has zero variance", spec.Exposure)
		}
		m.names = []string{"b_intercept", "b_" + spec.Exposure}
		m.priors = []Prior{
			m.prior("b_intercept", stat.Mean(y, nil), 2.5*sdY),
			m.prior("b_"+spec.Exposure, 0, 2.5*sdY/sdX),
		}
		m.iCov0 = len(m.names)
		for _, c := range spec.Covariates {
			m.names = append(m.names, "b_"+c)
			m.priors = append(m.priors, m.prior("b_"+c, 0, 2.5*sdY))
		}
		m.iLogSigma = len(m.names)
		m.names = append(m.names, "log_sigma")
		m.priors = append(m.priors, m.prior("log_sigma", math.Log(sdY), 1))
	case Emax:
		meanY := stat.Mean(y, nil)
		logMedX, err := positiveLogMedian(x)
		if err != nil {
			return nil, fmt.Errorf("model: exposure %q: %w", spec.Exposure, err)
		}
		m.iE0, m.iEmax, m.iLogEC50 = 0, 1, 2
		m.names = []string{"e0", "emax", "log_ec50"}
		m.priors = []Prior{
			m.prior("e0", meanY, 2.5*sdY),
			m.prior("emax", 0, 5*sdY),
			m.prior("log_ec50", logMedX, 1.5),
		}
		if spec.EstimateHill {
			m.iLogHill = len(m.names)
			m.names = append(m.names, "log_hill")
			m.priors = append(m.priors, m.prior("log_hill", 0, 0.5))
		}
		m.iCov0 = len(m.names)
		for _, c := range spec.Covariates {
			m.names = append(m.names, "b_"+c)
			m.priors = append(m.priors, m.prior("b_"+c, 0, 2.5*sdY))
		}
		m.iLogSigma = len(m.names)
		m.names = append(m.names, "log_sigma")
		m.priors = append(m.priors, m.prior("log_sigma", math.Log(sdY), 1))
	}
	return m, nil
}

// prior returns the user override for name, or a normal default.
func (m *Model) prior(name string, mu, sigma float64) Prior {
	if p, ok := m.spec.Priors[name]; ok {
		return p
	}
	return Prior{Dist: "normal", Mu: mu, Sigma: sigma}
}

// Spec returns the bound spec.
func (m *Model) Spec() Spec { return m.spec }

// ParamNames returns parameter names in theta order.
func (m *Model) ParamNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// N returns the number of observations.
func (m *Model) N() int { return len(m.y) }

// Init draws a starting point near the prior means, jittered per chain.
func (m *Model) Init(rng *rand.Rand) []float64 {
	theta := make([]float64, len(m.names))
	for i, p := range m.priors {
		theta[i] = p.Mu + 0.2*math.Min(p.Sigma, 1)*rng.NormFloat64()
	}
	return theta
}

// LogPosterior evaluates log prior + log likelihood at theta. Returns -Inf
// for invalid parameter values so the sampler rejects the proposal.
func (m *Model) LogPosterior(theta []float64) float64 {
	lp := 0.0
	for i, p := range m.priors {
		lp += p.LogProb(theta[i])
	}
	for i := range m.y {
		lp += m.logLik(theta, i)
	}
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

// PointLogLik returns the per-observation log-likelihood at theta, as
// consumed by leave-one-out cross-validation.
func (m *Model) PointLogLik(theta []float64) []float64 {
	out := make([]float64, len(m.y))
	for i := range m.y {
		out[i] = m.logLik(theta, i)
	}
	return out
}

func (m *Model) logLik(theta []float64, i int) float64 {
	switch m.spec.Family {
	case Logistic:
		eta := m.linearAt(theta, i)
		// Bernoulli-logit: y*eta - log(1+exp(eta))
		return m.y[i]*eta - softplus(eta)
	default:
		mu := m.linearAt(theta, i)
		sigma := math.Exp(theta[m.iLogSigma])
		z := (m.y[i] - mu) / sigma
		return -logSqrt2Pi - theta[m.iLogSigma] - 0.5*z*z
	}
}

// linearAt is Linear for observation i, without building a covariate slice.
func (m *Model) linearAt(theta []float64, i int) float64 {
	switch m.spec.Family {
	case Logistic, Linear:
		eta := theta[0] + theta[1]*m.x[i]
		for j := range m.covs {
			eta += theta[m.iCov0+j] * m.covs[j][i]
		}
		return eta
	default:
		ec50 := math.Exp(theta[m.iLogEC50])
		h := 1.0
		if m.iLogHill >= 0 {
			h = math.Exp(theta[m.iLogHill])
		}
		mu := theta[m.iE0]
		for j := range m.covs {
			mu += theta[m.iCov0+j] * m.covs[j][i]
		}
		if m.x[i] > 0 {
			ch := math.Pow(m.x[i], h)
			mu += theta[m.iEmax] * ch / (math.Pow(ec50, h) + ch)
		}
		return mu
	}
}

// Linear evaluates the linear predictor (logit scale for Logistic, response
// scale for Emax) at one exposure and covariate vector. covs must align with
// Spec().Covariates; missing covariates are an error at the caller.
func (m *Model) Linear(theta []float64, exposure float64, covs []float64) float64 {
	switch m.spec.Family {
	case Logistic, Linear:
		eta := theta[0] + theta[1]*exposure
		for j, c := range covs {
			eta += theta[m.iCov0+j] * c
		}
		return eta
	default:
		ec50 := math.Exp(theta[m.iLogEC50])
		h := 1.0
		if m.iLogHill >= 0 {
			h = math.Exp(theta[m.iLogHill])
		}
		mu := theta[m.iE0]
		for j, c := range covs {
			mu += theta[m.iCov0+j] * c
		}
		if exposure > 0 {
			ch := math.Pow(exposure, h)
			mu += theta[m.iEmax] * ch / (math.Pow(ec50, h) + ch)
		}
		return mu
	}
}

// Mean evaluates the expected response at one exposure and covariate vector:
// inverse-logit of the linear predictor for Logistic, identity for Emax.
func (m *Model) Mean(theta []float64, exposure float64, covs []float64) float64 {
	v := m.Linear(theta, exposure, covs)
	if m.spec.Family == Logistic {
		return invLogit(v)
	}
	return v
}

// Sigma returns the residual standard deviation at theta, or 0 for families
// without one.
func (m *Model) Sigma(theta []float64) float64 {
	if m.iLogSigma < 0 {
		return 0
	}
	return math.Exp(theta[m.iLogSigma])
}

// softplus computes log(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func invLogit(x float64) float64 {
	if x > 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// positiveLogMedian returns log(median of the positive values of x).
func positiveLogMedian(x []float64) (float64, error) {
	var pos []float64
	for _, v := range x {
		if v > 0 {
			pos = append(pos, v)
		}
	}
	if len(pos) == 0 {
		return 0, fmt.Errorf("no positive values")
	}
	sort.Float64s(pos)
	return math.Log(stat.Quantile(0.5, stat.Empirical, pos, nil)), nil
}
