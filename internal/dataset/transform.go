package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Standardize returns (x - mean) / sd for the named column, for use as a
// scaled exposure or covariate. Zero-variance columns are an error.
func (t *Table) Standardize(name string) ([]float64, error) {
	v, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	mean := stat.Mean(v, nil)
	sd := stat.StdDev(v, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil, fmt.Errorf("dataset: column %q has zero variance", name)
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - mean) / sd
	}
	return out, nil
}

// Log returns the natural log of the named column. Non-positive values are
// an error; exposure metrics are strictly positive.
func (t *Table) Log(name string) ([]float64, error) {
	v, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i, x := range v {
		if x <= 0 {
			return nil, fmt.Errorf("dataset: log of non-positive value %g in column %q", x, name)
		}
		out[i] = math.Log(x)
	}
	return out, nil
}

// Bin is one quantile bin of an exposure column, with the observed mean
// response inside the bin. Used to overlay observed proportions on fitted
// exposure-response curves.
type Bin struct {
	Lower        float64
	Upper        float64
	MidExposure  float64 // mean exposure within the bin
	MeanResponse float64
	N            int
}

// QuantileBins splits the exposure column into k equal-count bins and
// returns the observed mean response per bin.
func (t *Table) QuantileBins(exposure, response string, k int) ([]Bin, error) {
	if k < 2 {
		return nil, fmt.Errorf("dataset: need at least 2 bins, got %d", k)
	}
	x, err := t.Column(exposure)
	if err != nil {
		return nil, err
	}
	y, err := t.Column(response)
	if err != nil {
		return nil, err
	}
	if len(x) < k {
		return nil, fmt.Errorf("dataset: %d rows for %d bins", len(x), k)
	}

	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	edges := make([]float64, k+1)
	edges[0] = sorted[0]
	edges[k] = sorted[len(sorted)-1]
	for i := 1; i < k; i++ {
		edges[i] = stat.Quantile(float64(i)/float64(k), stat.Empirical, sorted, nil)
	}

	bins := make([]Bin, k)
	counts := make([]int, k)
	sumX := make([]float64, k)
	sumY := make([]float64, k)
	for i, xi := range x {
		b := k - 1
		for j := 1; j < k; j++ {
			if xi <= edges[j] {
				b = j - 1
				break
			}
		}
		counts[b]++
		sumX[b] += xi
		sumY[b] += y[i]
	}
	for b := 0; b < k; b++ {
		bins[b] = Bin{Lower: edges[b], Upper: edges[b+1], N: counts[b]}
		if counts[b] > 0 {
			bins[b].MidExposure = sumX[b] / float64(counts[b])
			bins[b].MeanResponse = sumY[b] / float64(counts[b])
		}
	}
	return bins, nil
}
