package loo

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pkbridge/erlab/internal/posterior"
)

// KhatThreshold is the Pareto shape above which an observation's importance
// weights are considered unreliable.
const KhatThreshold = 0.7

// Result is PSIS-LOO for one fitted model.
type Result struct {
	Name      string    `json:"name"`
	ELPD      float64   `json:"elpd"`      // expected log pointwise predictive density
	SE        float64   `json:"se"`        // standard error of ELPD
	PLoo      float64   `json:"p_loo"`     // effective parameter count
	Pointwise []float64 `json:"pointwise"` // per-observation elpd
	ParetoK   []float64 `json:"pareto_k"`  // per-observation khat
}

// BadK counts observations with khat above the reliability threshold.
func (r *Result) BadK() int {
	n := 0
	for _, k := range r.ParetoK {
		if k > KhatThreshold {
			n++
		}
	}
	return n
}

// Compute runs PSIS-LOO over the draws. pointLogLik must return the
// per-observation log-likelihood (length n) for one parameter vector.
// Observations with khat above the threshold are logged, never fatal.
func Compute(name string, d *posterior.Draws, pointLogLik func(theta []float64) []float64, n int) (*Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("loo: no observations")
	}
	s := d.Total()
	if s < 2 {
		return nil, fmt.Errorf("loo: need at least 2 draws, got %d", s)
	}

	// Log-likelihood matrix, draw-major.
	ll := make([][]float64, 0, s)
	var sizeErr error
	d.Each(func(theta []float64) {
		row := pointLogLik(theta)
		if len(row) != n {
			sizeErr = fmt.Errorf("loo: pointwise log-likelihood has length %d, want %d", len(row), n)
			return
		}
		kept := make([]float64, n)
		copy(kept, row)
		ll = append(ll, kept)
	})
	if sizeErr != nil {
		return nil, sizeErr
	}

	res := &Result{
		Name:      name,
		Pointwise: make([]float64, n),
		ParetoK:   make([]float64, n),
	}
	logS := math.Log(float64(s))
	lpd := 0.0
	col := make([]float64, s)
	lw := make([]float64, s)
	num := make([]float64, s)
	for i := 0; i < n; i++ {
		for j := 0; j < s; j++ {
			col[j] = ll[j][i]
			lw[j] = -ll[j][i]
		}
		lws, khat := psisSmooth(lw)
		for j := 0; j < s; j++ {
			num[j] = lws[j] + col[j]
		}
		res.Pointwise[i] = floats.LogSumExp(num) - floats.LogSumExp(lws)
		res.ParetoK[i] = khat
		lpd += floats.LogSumExp(col) - logS
	}
	res.ELPD = floats.Sum(res.Pointwise)
	res.SE = math.Sqrt(float64(n) * stat.Variance(res.Pointwise, nil))
	res.PLoo = lpd - res.ELPD

	if bad := res.BadK(); bad > 0 {
		slog.Warn("unreliable PSIS weights",
			"model", name, "observations", bad, "threshold", KhatThreshold)
	}
	return res, nil
}

// Comparison ranks one model against the best of a set.
type Comparison struct {
	Name   string  `json:"name"`
	ELPD   float64 `json:"elpd"`
	SE     float64 `json:"se"`
	Diff   float64 `json:"elpd_diff"` // elpd - best elpd, 0 for the best model
	SEDiff float64 `json:"se_diff"`   // paired standard error of the difference
	BadK   int     `json:"bad_k"`
}

// Compare ranks models by ELPD, best first, with pairwise differences
// against the best computed on paired pointwise values.
func Compare(results []*Result) ([]Comparison, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("loo: nothing to compare")
	}
	n := len(results[0].Pointwise)
	for _, r := range results[1:] {
		if len(r.Pointwise) != n {
			return nil, fmt.Errorf("loo: %s has %d observations, %s has %d",
				r.Name, len(r.Pointwise), results[0].Name, n)
		}
	}
	sorted := make([]*Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].ELPD > sorted[b].ELPD })

	best := sorted[0]
	out := make([]Comparison, len(sorted))
	diff := make([]float64, n)
	for i, r := range sorted {
		c := Comparison{Name: r.Name, ELPD: r.ELPD, SE: r.SE, BadK: r.BadK()}
		if i > 0 {
			for j := 0; j < n; j++ {
				diff[j] = r.Pointwise[j] - best.Pointwise[j]
			}
			c.Diff = floats.Sum(diff)
			c.SEDiff = math.Sqrt(float64(n) * stat.Variance(diff, nil))
		}
		out[i] = c
	}
	return out, nil
}
