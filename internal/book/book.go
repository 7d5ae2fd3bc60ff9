// Package book runs the built-in tutorial chapters end to end: simulate a
// study, fit exposure-response models, and render the results as a static
// HTML site.
package book

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/pkbridge/erlab/internal/config"
	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/output"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
	"github.com/pkbridge/erlab/internal/report"
	"github.com/pkbridge/erlab/internal/source"
)

// Book sequences the tutorial chapters.
type Book struct {
	cfg    config.Config
	detail output.Detail
	prob   float64
	figDir string
}

// New creates a Book from the study configuration. The sampler, interval
// width, and detail level all come from cfg; chapters choose their own data
// sources.
func New(cfg config.Config) *Book {
	return &Book{
		cfg:    cfg,
		detail: output.ParseDetail(cfg.Output.Detail),
		prob:   cfg.Output.Interval,
	}
}

type chapter struct {
	slug string
	run  func(ctx context.Context) (report.Page, error)
}

// Run executes every chapter and renders the site into the configured
// report directory. Figures land under figures/ inside it.
func (b *Book) Run(ctx context.Context) error {
	dir := b.cfg.Report.Dir
	b.figDir = filepath.Join(dir, "figures")
	if err := os.MkdirAll(b.figDir, 0o755); err != nil {
		return fmt.Errorf("book: %w", err)
	}

	chapters := []chapter{
		{"binary", b.binaryChapter},
		{"continuous", b.continuousChapter},
		{"covariates", b.covariateChapter},
		{"comparison", b.comparisonChapter},
	}

	pages := make([]report.Page, 0, len(chapters))
	for _, ch := range chapters {
		page, err := ch.run(ctx)
		if err != nil {
			return fmt.Errorf("book: chapter %s: %w", ch.slug, err)
		}
		page.Slug = ch.slug
		pages = append(pages, page)
		slog.Info("chapter built", "slug", ch.slug, "sections", len(page.Sections))
	}

	if err := report.RenderBook(dir, b.cfg.Report.Title, pages); err != nil {
		return fmt.Errorf("book: %w", err)
	}
	slog.Info("book rendered", "dir", dir, "chapters", len(pages))
	return nil
}

// load simulates a study from a registered source. Each chapter offsets the
// configured seed so chapters stay independent but reproducible.
func (b *Book) load(ctx context.Context, name string, seedOffset uint64) (*dataset.Table, error) {
	ctor, err := source.Get(name)
	if err != nil {
		return nil, err
	}
	tab, err := ctor().Load(ctx, source.Config{
		Name:     name,
		Subjects: b.cfg.Dataset.Subjects,
		Seed:     b.cfg.Dataset.Seed + seedOffset,
	})
	if err != nil {
		return nil, err
	}
	return tab, nil
}

// fit binds a spec to the data, samples its posterior, and summarizes it.
func (b *Book) fit(ctx context.Context, spec model.Spec, tab *dataset.Table) (*model.Model, *posterior.Draws, []posterior.Summary, error) {
	m, err := model.Build(spec, tab)
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := mcmc.Sample(ctx, m, b.cfg.Sampler)
	if err != nil {
		return nil, nil, nil, err
	}
	sums, err := posterior.Summarize(res.Draws, b.prob)
	if err != nil {
		return nil, nil, nil, err
	}
	if r := posterior.MaxRhat(sums); r > 1.05 {
		slog.Warn("chains may not have converged", "model", spec.Name, "max_rhat", r)
	}
	return m, res.Draws, sums, nil
}

// exposureGrid spans the observed exposure range with n points.
func exposureGrid(tab *dataset.Table, column string, n int) ([]float64, error) {
	x, err := tab.Column(column)
	if err != nil {
		return nil, err
	}
	return predict.Grid(floats.Min(x), floats.Max(x), n)
}
