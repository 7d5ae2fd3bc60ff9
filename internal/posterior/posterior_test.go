package posterior

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

// normalChains draws iid N(mu, sigma) chains for diagnostic tests.
func normalChains(chains, iters int, mu, sigma float64, seed uint64) [][][]float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][][]float64, chains)
	for c := range out {
		out[c] = make([][]float64, iters)
		for i := range out[c] {
			out[c][i] = []float64{mu + sigma*rng.NormFloat64()}
		}
	}
	return out
}

func TestNewDrawsValidation(t *testing.T) {
	if _, err := NewDraws(nil, nil); err == nil {
		t.Fatal("expected error for no parameters")
	}
	if _, err := NewDraws([]string{"a"}, nil); err == nil {
		t.Fatal("expected error for no draws")
	}
	ragged := [][][]float64{{{1}, {2}}, {{1}}}
	if _, err := NewDraws([]string{"a"}, ragged); err == nil {
		t.Fatal("expected error for ragged chains")
	}
	badRow := [][][]float64{{{1, 2}}}
	if _, err := NewDraws([]string{"a"}, badRow); err == nil {
		t.Fatal("expected error for row/parameter mismatch")
	}
}

func TestParamPooling(t *testing.T) {
	d, err := NewDraws([]string{"a", "b"}, [][][]float64{
		{{1, 10}, {2, 20}},
		{{3, 30}, {4, 40}},
	})
	if err != nil {
		t.Fatalf("NewDraws: %v", err)
	}
	if d.Total() != 4 {
		t.Fatalf("Total = %d, want 4", d.Total())
	}
	b, err := d.Param("b")
	if err != nil {
		t.Fatalf("Param: %v", err)
	}
	want := []float64{10, 20, 30, 40}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("b = %v, want %v", b, want)
		}
	}
	if _, err := d.Param("c"); err == nil {
		t.Fatal("expected error for unknown parameter")
	}
}

func TestQuantileInterval(t *testing.T) {
	x := make([]float64, 1001)
	for i := range x {
		x[i] = float64(i) // 0..1000
	}
	iv, err := QuantileInterval(x, 0.9)
	if err != nil {
		t.Fatalf("QuantileInterval: %v", err)
	}
	if math.Abs(iv.Median-500) > 1 {
		t.Fatalf("median = %g, want ~500", iv.Median)
	}
	if math.Abs(iv.Lower-50) > 2 || math.Abs(iv.Upper-950) > 2 {
		t.Fatalf("interval = [%g, %g], want ~[50, 950]", iv.Lower, iv.Upper)
	}
	if iv.Lower >= iv.Upper {
		t.Fatal("lower >= upper")
	}
	if _, err := QuantileInterval(x, 1.5); err == nil {
		t.Fatal("expected error for prob outside (0,1)")
	}
	if _, err := QuantileInterval(nil, 0.9); err == nil {
		t.Fatal("expected error for empty sample")
	}
}

func TestSummarizeWellMixed(t *testing.T) {
	d, err := NewDraws([]string{"mu"}, normalChains(4, 1000, 2, 1, 7))
	if err != nil {
		t.Fatalf("NewDraws: %v", err)
	}
	sums, err := Summarize(d, 0.9)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	s := sums[0]
	if math.Abs(s.Mean-2) > 0.1 {
		t.Fatalf("mean = %g, want ~2", s.Mean)
	}
	if math.Abs(s.SD-1) > 0.1 {
		t.Fatalf("sd = %g, want ~1", s.SD)
	}
	// iid chains: Rhat ~ 1, ESS near the pooled draw count.
	if s.Rhat > 1.02 {
		t.Fatalf("Rhat = %g for iid chains", s.Rhat)
	}
	if s.ESS < 2000 {
		t.Fatalf("ESS = %g for 4000 iid draws", s.ESS)
	}
}

func TestSplitRhatDetectsDisagreement(t *testing.T) {
	a := normalChains(1, 500, 0, 1, 3)[0]
	b := normalChains(1, 500, 10, 1, 4)[0]
	chains := [][]float64{flatten(a), flatten(b)}
	r := SplitRhat(chains)
	if !(r > 1.5) {
		t.Fatalf("Rhat = %g for chains 10 sd apart, want large", r)
	}
}

func TestESSAutocorrelated(t *testing.T) {
	// AR(1) with strong correlation has far fewer effective draws.
	rng := rand.New(rand.NewSource(5))
	n := 2000
	x := make([]float64, n)
	for i := 1; i < n; i++ {
		x[i] = 0.95*x[i-1] + rng.NormFloat64()
	}
	ess := ESS([][]float64{x})
	if !(ess < float64(n)/4) {
		t.Fatalf("ESS = %g for AR(0.95) series of %d, want much smaller", ess, n)
	}
}

func TestEachDoesNotRetain(t *testing.T) {
	d, err := NewDraws([]string{"a"}, [][][]float64{{{1}, {2}, {3}}})
	if err != nil {
		t.Fatalf("NewDraws: %v", err)
	}
	var sum float64
	d.Each(func(theta []float64) { sum += theta[0] })
	if sum != 6 {
		t.Fatalf("sum = %g, want 6", sum)
	}
}

func flatten(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[0]
	}
	return out
}
