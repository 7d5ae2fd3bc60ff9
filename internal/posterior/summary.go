package posterior

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Interval is a central credible interval with its median.
type Interval struct {
	Lower  float64
	Median float64
	Upper  float64
}

// QuantileInterval computes the central interval of mass prob over x.
// x is not modified.
func QuantileInterval(x []float64, prob float64) (Interval, error) {
	if len(x) == 0 {
		return Interval{}, fmt.Errorf("posterior: empty sample")
	}
	if prob <= 0 || prob >= 1 {
		return Interval{}, fmt.Errorf("posterior: interval probability %g outside (0,1)", prob)
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	tail := (1 - prob) / 2
	return Interval{
		Lower:  stat.Quantile(tail, stat.Empirical, s, nil),
		Median: stat.Quantile(0.5, stat.Empirical, s, nil),
		Upper:  stat.Quantile(1-tail, stat.Empirical, s, nil),
	}, nil
}

// Summary describes the marginal posterior of one parameter.
type Summary struct {
	Param  string  `json:"param"`
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Median float64 `json:"median"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Rhat   float64 `json:"rhat"`
	ESS    float64 `json:"ess"`
}

// Summarize computes per-parameter marginal summaries with central intervals
// of mass prob, plus split-Rhat and effective sample size.
func Summarize(d *Draws, prob float64) ([]Summary, error) {
	out := make([]Summary, 0, len(d.params))
	for _, p := range d.params {
		pooled, err := d.Param(p)
		if err != nil {
			return nil, err
		}
		iv, err := QuantileInterval(pooled, prob)
		if err != nil {
			return nil, err
		}
		chains, err := d.ParamChains(p)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			Param:  p,
			Mean:   stat.Mean(pooled, nil),
			SD:     stat.StdDev(pooled, nil),
			Median: iv.Median,
			Lower:  iv.Lower,
			Upper:  iv.Upper,
			Rhat:   SplitRhat(chains),
			ESS:    ESS(chains),
		})
	}
	return out, nil
}

// MaxRhat returns the largest Rhat across summaries, for a one-line
// convergence check.
func MaxRhat(sums []Summary) float64 {
	max := 0.0
	for _, s := range sums {
		if s.Rhat > max {
			max = s.Rhat
		}
	}
	return max
}
