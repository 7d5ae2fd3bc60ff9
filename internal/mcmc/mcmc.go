package mcmc

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/pkbridge/erlab/internal/posterior"
)

// Target is a model the sampler can draw from: an unconstrained parameter
// vector with a log-posterior density.
type Target interface {
	ParamNames() []string
	Init(rng *rand.Rand) []float64
	LogPosterior(theta []float64) float64
}

// Config controls sampling. Chains run in parallel, each deterministically
// seeded from Seed, so a fixed Config reproduces the same draws.
type Config struct {
	Chains       int     `toml:"chains"`
	Warmup       int     `toml:"warmup"`
	Samples      int     `toml:"samples"` // post-warmup draws per chain
	Thin         int     `toml:"thin"`
	Seed         uint64  `toml:"seed"`
	TargetAccept float64 `toml:"target_accept"`
}

// DefaultConfig returns the sampling defaults: 4 chains, 1000 warmup,
// 1000 draws per chain.
func DefaultConfig() Config {
	return Config{
		Chains:       4,
		Warmup:       1000,
		Samples:      1000,
		Thin:         1,
		Seed:         1,
		TargetAccept: 0.44, // component-wise Metropolis optimum
	}
}

func (c Config) validate() error {
	if c.Chains < 1 {
		return fmt.Errorf("mcmc: chains must be >= 1, got %d", c.Chains)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("mcmc: warmup must be >= 0, got %d", c.Warmup)
	}
	if c.Samples < 1 {
		return fmt.Errorf("mcmc: samples must be >= 1, got %d", c.Samples)
	}
	if c.Thin < 1 {
		return fmt.Errorf("mcmc: thin must be >= 1, got %d", c.Thin)
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		return fmt.Errorf("mcmc: target_accept %g outside (0,1)", c.TargetAccept)
	}
	return nil
}

// Result bundles the draws with sampler bookkeeping.
type Result struct {
	Draws   *posterior.Draws
	Accept  []float64 // post-warmup acceptance rate per chain
	Elapsed time.Duration
}

// Sample runs adaptive component-wise random-walk Metropolis. Proposal
// scales adapt toward TargetAccept during warmup and freeze afterwards.
// Cancelling ctx aborts all chains.
func Sample(ctx context.Context, t Target, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	names := t.ParamNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("mcmc: target has no parameters")
	}
	start := time.Now()

	chains := make([][][]float64, cfg.Chains)
	accept := make([]float64, cfg.Chains)
	errs := make([]error, cfg.Chains)

	var wg sync.WaitGroup
	for c := 0; c < cfg.Chains; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			chains[c], accept[c], errs[c] = runChain(ctx, t, cfg, c, len(names))
		}(c)
	}
	wg.Wait()

	for c, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("mcmc: chain %d: %w", c, err)
		}
	}
	draws, err := posterior.NewDraws(names, chains)
	if err != nil {
		return nil, err
	}
	res := &Result{Draws: draws, Accept: accept, Elapsed: time.Since(start)}
	slog.Debug("sampling finished",
		"chains", cfg.Chains, "draws", draws.Total(), "elapsed", res.Elapsed)
	return res, nil
}

const (
	initAttempts = 20
	adaptBatch   = 50
)

func runChain(ctx context.Context, t Target, cfg Config, chain, dim int) ([][]float64, float64, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + uint64(chain)*1000003))

	theta, lp, err := initPoint(t, rng)
	if err != nil {
		return nil, 0, err
	}

	scales := make([]float64, dim)
	for j := range scales {
		scales[j] = 0.5
	}
	batchAcc := make([]int, dim)
	batchNum := 0

	iters := cfg.Warmup + cfg.Samples*cfg.Thin
	out := make([][]float64, 0, cfg.Samples)
	var accepted, proposed int

	for i := 0; i < iters; i++ {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		warm := i < cfg.Warmup
		for j := 0; j < dim; j++ {
			old := theta[j]
			theta[j] = old + scales[j]*rng.NormFloat64()
			lpNew := t.LogPosterior(theta)
			if math.Log(rng.Float64()) < lpNew-lp {
				lp = lpNew
				if warm {
					batchAcc[j]++
				} else {
					accepted++
				}
			} else {
				theta[j] = old
			}
			if !warm {
				proposed++
			}
		}

		if warm && (i+1)%adaptBatch == 0 {
			batchNum++
			delta := math.Min(0.1, 1/math.Sqrt(float64(batchNum)))
			for j := range scales {
				rate := float64(batchAcc[j]) / adaptBatch
				if rate > cfg.TargetAccept {
					scales[j] *= math.Exp(delta)
				} else {
					scales[j] *= math.Exp(-delta)
				}
				batchAcc[j] = 0
			}
		}

		if !warm {
			k := i - cfg.Warmup
			if k%cfg.Thin == cfg.Thin-1 {
				row := make([]float64, dim)
				copy(row, theta)
				out = append(out, row)
			}
		}
	}
	rate := 0.0
	if proposed > 0 {
		rate = float64(accepted) / float64(proposed)
	}
	return out, rate, nil
}

// initPoint retries Init until the log-posterior is finite.
func initPoint(t Target, rng *rand.Rand) ([]float64, float64, error) {
	for a := 0; a < initAttempts; a++ {
		theta := t.Init(rng)
		lp := t.LogPosterior(theta)
		if !math.IsInf(lp, -1) && !math.IsNaN(lp) {
			return theta, lp, nil
		}
	}
	return nil, 0, fmt.Errorf("no finite log-posterior after %d init attempts", initAttempts)
}
