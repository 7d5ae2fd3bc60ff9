package posterior

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SplitRhat computes the split potential scale reduction factor. Each chain
// is halved, between- and within-half variances are compared. Values near 1
// indicate the chains mixed; > 1.01 is suspect.
func SplitRhat(chains [][]float64) float64 {
	var halves [][]float64
	for _, ch := range chains {
		if len(ch) < 4 {
			return math.NaN()
		}
		mid := len(ch) / 2
		halves = append(halves, ch[:mid], ch[mid:mid*2])
	}
	n := float64(len(halves[0]))

	means := make([]float64, len(halves))
	vars := make([]float64, len(halves))
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		vars[i] = stat.Variance(h, nil)
	}
	w := stat.Mean(vars, nil)
	b := n * stat.Variance(means, nil)
	if w == 0 {
		return math.NaN()
	}
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// ESS estimates the effective sample size of pooled chains using Geyer's
// initial positive sequence on the mean autocorrelation across chains.
func ESS(chains [][]float64) float64 {
	if len(chains) == 0 || len(chains[0]) < 4 {
		return math.NaN()
	}
	n := len(chains[0])
	total := float64(n * len(chains))

	// Mean autocorrelation at each lag across chains.
	maxLag := n - 1
	if maxLag > 250 {
		maxLag = 250
	}
	rho := make([]float64, maxLag+1)
	valid := false
	for _, ch := range chains {
		ac := autocorr(ch, maxLag)
		if ac == nil {
			continue
		}
		valid = true
		for k := range rho {
			rho[k] += ac[k] / float64(len(chains))
		}
	}
	if !valid {
		return math.NaN()
	}

	// Sum consecutive lag pairs while their sum stays positive.
	sum := 1.0
	for k := 1; k+1 <= maxLag; k += 2 {
		pair := rho[k] + rho[k+1]
		if pair <= 0 {
			break
		}
		sum += 2 * pair
	}
	ess := total / sum
	if ess > total {
		ess = total
	}
	return ess
}

// autocorr returns the sample autocorrelation of x at lags 0..maxLag, or nil
// for constant series.
func autocorr(x []float64, maxLag int) []float64 {
	n := len(x)
	mean := stat.Mean(x, nil)
	var c0 float64
	for _, v := range x {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return nil
	}
	out := make([]float64, maxLag+1)
	out[0] = 1
	for k := 1; k <= maxLag && k < n; k++ {
		var ck float64
		for i := 0; i+k < n; i++ {
			ck += (x[i] - mean) * (x[i+k] - mean)
		}
		out[k] = ck / c0
	}
	return out
}
