package simstudy

import (
	"context"
	"testing"

	"github.com/pkbridge/erlab/internal/source"
)

func TestRegistered(t *testing.T) {
	for _, name := range []string{"sim-logistic", "sim-emax"} {
		if _, err := source.Get(name); err != nil {
			t.Fatalf("%s not registered: %v", name, err)
		}
	}
}

func TestLogisticDeterministic(t *testing.T) {
	cfg := source.Config{Subjects: 50, Seed: 7}
	var l Logistic
	a, err := l.Load(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := l.Load(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.N() != 50 {
		t.Fatalf("N = %d, want 50", a.N())
	}
	av, _ := a.Column("auc")
	bv, _ := b.Column("auc")
	for i := range av {
		if av[i] != bv[i] {
			t.Fatal("same seed produced different exposures")
		}
	}
}

func TestLogisticBinaryResponse(t *testing.T) {
	var l Logistic
	tab, err := l.Load(context.Background(), source.Config{Subjects: 200, Seed: 3})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	resp, err := tab.Column("response")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	var ones int
	for _, r := range resp {
		if r != 0 && r != 1 {
			t.Fatalf("non-binary response %g", r)
		}
		if r == 1 {
			ones++
		}
	}
	// Both outcomes should occur in a 200-subject study.
	if ones == 0 || ones == len(resp) {
		t.Fatalf("degenerate response: %d of %d responders", ones, len(resp))
	}
}

func TestEmaxPositiveExposure(t *testing.T) {
	var e Emax
	tab, err := e.Load(context.Background(), source.Config{Subjects: 100, Seed: 5})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	conc, _ := tab.Column("conc")
	for _, c := range conc {
		if c <= 0 {
			t.Fatalf("non-positive concentration %g", c)
		}
	}
}

func TestEmaxParamOverride(t *testing.T) {
	var e Emax
	if _, err := e.Load(context.Background(), source.Config{
		Subjects: 10, Seed: 1, Params: map[string]float64{"sigma": -1},
	}); err == nil {
		t.Fatal("expected error for negative sigma")
	}
	tab, err := e.Load(context.Background(), source.Config{
		Subjects: 40, Seed: 1, Params: map[string]float64{"emax": 0, "sigma": 0.0001},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// With emax = 0 and near-zero noise, the response is flat at e0.
	eff, _ := tab.Column("effect")
	for _, v := range eff {
		if v < 1.9 || v > 2.1 {
			t.Fatalf("effect %g far from e0 = 2 with flat curve", v)
		}
	}
}

func TestDefaultSubjects(t *testing.T) {
	var l Logistic
	tab, err := l.Load(context.Background(), source.Config{Seed: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tab.N() != defaultSubjects {
		t.Fatalf("N = %d, want %d", tab.N(), defaultSubjects)
	}
}
