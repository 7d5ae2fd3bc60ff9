package fitstore

import (
	"testing"
	"time"

	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
)

func sampleDraws(t *testing.T) *posterior.Draws {
	t.Helper()
	d, err := posterior.NewDraws([]string{"b_intercept", "b_auc"}, [][][]float64{
		{{-2, 0.5}, {-2.1, 0.6}},
		{{-1.9, 0.4}, {-2, 0.5}},
	})
	if err != nil {
		t.Fatalf("NewDraws: %v", err)
	}
	return d
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	meta := Meta{
		Name:    "logistic-base",
		Dataset: "study.csv",
		Rows:    120,
		Spec:    model.Spec{Family: model.Logistic, Response: "response", Exposure: "auc"},
		Sampler: mcmc.DefaultConfig(),
	}
	saved, err := Save(dir, meta, sampleDraws(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("no fit ID minted")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("no creation time set")
	}
	if len(saved.Params) != 2 {
		t.Fatalf("params = %v, want 2 names", saved.Params)
	}

	got, d, err := Load(dir, saved.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "logistic-base" || got.Rows != 120 {
		t.Fatalf("meta round trip: %+v", got)
	}
	if got.Spec.Family != model.Logistic {
		t.Fatalf("spec family = %q", got.Spec.Family)
	}
	if d.NumChains() != 2 || d.PerChain() != 2 {
		t.Fatalf("draws shape %dx%d, want 2x2", d.NumChains(), d.PerChain())
	}
	theta, err := d.At(1, 0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if theta[0] != -1.9 || theta[1] != 0.4 {
		t.Fatalf("draw = %v, want [-1.9 0.4]", theta)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, _, err := Load(t.TempDir(), "nope"); err == nil {
		t.Fatal("expected error for missing fit")
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	old := Meta{Name: "old", CreatedAt: time.Now().Add(-time.Hour)}
	recent := Meta{Name: "recent", CreatedAt: time.Now()}
	if _, err := Save(dir, old, sampleDraws(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Save(dir, recent, sampleDraws(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	metas, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d fits, want 2", len(metas))
	}
	if metas[0].Name != "recent" {
		t.Fatalf("first fit = %s, want recent", metas[0].Name)
	}
}

func TestListEmptyDir(t *testing.T) {
	metas, err := List(t.TempDir() + "/missing")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if metas != nil {
		t.Fatalf("got %v, want nil", metas)
	}
}
