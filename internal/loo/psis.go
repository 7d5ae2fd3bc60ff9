package loo

import (
	"math"
	"sort"
)

// khat regularization strength, after Vehtari et al.
const khatPrior = 10.0

// psisSmooth applies Pareto-smoothed importance sampling to raw log weights.
// It returns smoothed log weights (shifted by the max; only relative weights
// matter) and the fitted Pareto shape khat. Tails too short to fit are left
// unsmoothed with khat = +Inf.
func psisSmooth(lw []float64) ([]float64, float64) {
	s := len(lw)
	out := make([]float64, s)
	maxlw := lw[0]
	for _, v := range lw {
		if v > maxlw {
			maxlw = v
		}
	}
	w := make([]float64, s)
	for i, v := range lw {
		out[i] = v - maxlw
		w[i] = math.Exp(out[i])
	}

	m := int(math.Min(0.2*float64(s), 3*math.Sqrt(float64(s))))
	if m < 5 || s-m < 5 {
		return out, math.Inf(1)
	}

	order := make([]int, s)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return w[order[a]] < w[order[b]] })

	cut := w[order[s-m-1]]
	exceed := make([]float64, m)
	allZero := true
	for z := 0; z < m; z++ {
		exceed[z] = w[order[s-m+z]] - cut
		if exceed[z] > 0 {
			allZero = false
		}
	}
	if allZero {
		return out, math.Inf(1)
	}

	k, theta := fitGPD(exceed)
	if theta == 0 || math.IsNaN(k) {
		return out, math.Inf(1)
	}

	// Replace the tail with GPD order statistics, capped at the largest raw
	// weight.
	wmax := w[order[s-1]]
	for z := 0; z < m; z++ {
		p := (float64(z) + 0.5) / float64(m)
		q := cut + (1-math.Pow(1-p, k))/theta
		if q > wmax {
			q = wmax
		}
		out[order[s-m+z]] = math.Log(q)
	}

	khat := -k
	n := float64(m)
	khat = (n*khat + 0.5*khatPrior) / (n + khatPrior)
	return out, khat
}

// fitGPD fits a generalized Pareto distribution to positive exceedances
// using the Zhang–Stephens (2009) profile-posterior estimator. Returned in
// the (k, theta) parameterization with CDF 1-(1-theta*y)^(1/k); the usual
// shape is xi = -k.
func fitGPD(y []float64) (k, theta float64) {
	sorted := make([]float64, len(y))
	copy(sorted, y)
	sort.Float64s(sorted)
	n := len(sorted)
	ymax := sorted[n-1]
	if ymax <= 0 {
		return math.NaN(), 0
	}
	q1 := sorted[(n+2)/4]
	if q1 <= 0 {
		q1 = ymax / 2
	}

	m := 30 + int(math.Sqrt(float64(n)))
	ths := make([]float64, m)
	ls := make([]float64, m)
	for j := 1; j <= m; j++ {
		th := 1/ymax + (1-math.Sqrt(float64(m)/(float64(j)-0.5)))/(3*q1)
		kj := negMeanLog1p(th, sorted)
		ths[j-1] = th
		if kj == 0 || th/kj <= 0 {
			ls[j-1] = math.Inf(-1)
			continue
		}
		ls[j-1] = float64(n) * (math.Log(th/kj) + kj - 1)
	}

	// Normalized profile-posterior weights.
	var thetaHat, wsum float64
	for j := range ths {
		var denom float64
		for l := range ths {
			denom += math.Exp(ls[l] - ls[j])
		}
		if math.IsInf(denom, 1) || denom == 0 {
			continue
		}
		wj := 1 / denom
		thetaHat += wj * ths[j]
		wsum += wj
	}
	if wsum == 0 || thetaHat == 0 {
		return math.NaN(), 0
	}
	return negMeanLog1p(thetaHat, sorted), thetaHat
}

// negMeanLog1p computes -mean(log(1 - theta*y)).
func negMeanLog1p(theta float64, y []float64) float64 {
	var sum float64
	for _, v := range y {
		sum += math.Log1p(-theta * v)
	}
	return -sum / float64(len(y))
}
