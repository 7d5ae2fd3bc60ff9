package book

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkbridge/erlab/internal/config"
	"github.com/pkbridge/erlab/internal/mcmc"

	_ "github.com/pkbridge/erlab/internal/source/simstudy"
)

func TestBookRun(t *testing.T) {
	if testing.Short() {
		t.Skip("full book run is slow")
	}
	cfg := config.Default()
	cfg.Report.Dir = t.TempDir()
	cfg.Report.Title = "Test book"
	cfg.Dataset.Subjects = 80
	cfg.Dataset.Seed = 5
	cfg.Sampler = mcmc.Config{Chains: 2, Warmup: 300, Samples: 300, Thin: 1, Seed: 3, TargetAccept: 0.44}

	if err := New(cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := []string{
		"index.html", "binary.html", "continuous.html", "covariates.html",
		"comparison.html", "style.css",
		filepath.Join("figures", "binary-curve.svg"),
		filepath.Join("figures", "emax-curve.svg"),
		filepath.Join("figures", "forest.svg"),
	}
	for _, f := range files {
		if info, err := os.Stat(filepath.Join(cfg.Report.Dir, f)); err != nil || info.Size() == 0 {
			t.Errorf("missing or empty %s: %v", f, err)
		}
	}

	idx, err := os.ReadFile(filepath.Join(cfg.Report.Dir, "index.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	for _, want := range []string{"Test book", "Model comparison", "Covariate effects"} {
		if !strings.Contains(string(idx), want) {
			t.Errorf("index missing %q", want)
		}
	}

	comp, err := os.ReadFile(filepath.Join(cfg.Report.Dir, "comparison.html"))
	if err != nil {
		t.Fatalf("read comparison: %v", err)
	}
	for _, want := range []string{"emax", "linear", "elpd"} {
		if !strings.Contains(string(comp), want) {
			t.Errorf("comparison missing %q", want)
		}
	}
}

func TestBookRunCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Report.Dir = t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(cfg).Run(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
