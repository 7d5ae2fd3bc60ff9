package erlab

import (
	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
)

type options struct {
	sampler    mcmc.Config
	interval   float64
	covariates []string
	hill       bool
	priors     map[string]model.Prior
}

// Option configures a model fit.
type Option func(*options)

// WithChains sets the number of parallel chains. Default: 4.
func WithChains(n int) Option {
	return func(o *options) {
		o.sampler.Chains = n
	}
}

// WithWarmup sets the adaptation iterations discarded per chain.
// Default: 1000.
func WithWarmup(n int) Option {
	return func(o *options) {
		o.sampler.Warmup = n
	}
}

// WithSamples sets the post-warmup draws kept per chain. Default: 1000.
func WithSamples(n int) Option {
	return func(o *options) {
		o.sampler.Samples = n
	}
}

// WithSeed sets the sampling seed. A fixed seed reproduces the draws
// exactly. Default: 1.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.sampler.Seed = seed
	}
}

// WithInterval sets the central credible interval mass used by summaries.
// Default: 0.9.
func WithInterval(prob float64) Option {
	return func(o *options) {
		o.interval = prob
	}
}

// WithCovariates adds covariate columns to the model. They enter linearly on
// the logit scale for logistic fits and additively on the baseline for Emax
// and linear fits.
func WithCovariates(names ...string) Option {
	return func(o *options) {
		o.covariates = append(o.covariates, names...)
	}
}

// WithHill estimates the Hill coefficient of an Emax fit instead of fixing
// it at 1. Ignored by other families.
func WithHill() Option {
	return func(o *options) {
		o.hill = true
	}
}

// WithPrior overrides the normal prior on one parameter. Parameters sampled
// on the log scale (log_ec50, log_hill, log_sigma) take the prior on that
// scale.
func WithPrior(param string, mu, sigma float64) Option {
	return func(o *options) {
		if o.priors == nil {
			o.priors = map[string]model.Prior{}
		}
		o.priors[param] = model.Prior{Dist: "normal", Mu: mu, Sigma: sigma}
	}
}

func defaultOptions() options {
	return options{
		sampler:  mcmc.DefaultConfig(),
		interval: 0.9,
	}
}
