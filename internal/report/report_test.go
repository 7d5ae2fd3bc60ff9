package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkbridge/erlab/internal/covariate"
	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/loo"
	"github.com/pkbridge/erlab/internal/output"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
)

func sampleSummaries() []posterior.Summary {
	return []posterior.Summary{
		{Param: "b_intercept", Mean: -2.9, SD: 0.4, Median: -2.91, Lower: -3.5, Upper: -2.3, Rhat: 1.001, ESS: 1850},
		{Param: "b_auc", Mean: 0.044, SD: 0.008, Median: 0.044, Lower: 0.031, Upper: 0.057, Rhat: 1.002, ESS: 1920},
	}
}

func TestSummaryTableDetail(t *testing.T) {
	sums := sampleSummaries()

	min := SummaryTable("fit", sums, output.Minimal, 0.9)
	if len(min.Columns) != 4 {
		t.Fatalf("minimal columns = %v", min.Columns)
	}
	if min.Columns[2] != "l-90%" || min.Columns[3] != "u-90%" {
		t.Fatalf("interval labels = %v", min.Columns)
	}

	std := SummaryTable("fit", sums, output.Standard, 0.9)
	if len(std.Columns) != 6 {
		t.Fatalf("standard columns = %v", std.Columns)
	}

	full := SummaryTable("fit", sums, output.Full, 0.9)
	if len(full.Columns) != 8 || full.Columns[6] != "rhat" {
		t.Fatalf("full columns = %v", full.Columns)
	}
	if len(full.Rows) != 2 || len(full.Rows[0]) != 8 {
		t.Fatalf("full rows = %v", full.Rows)
	}
	if full.Rows[1][0] != "b_auc" {
		t.Fatalf("row order = %v", full.Rows)
	}
}

func TestCurveTable(t *testing.T) {
	pts := []predict.Point{
		{Exposure: 10, Median: 0.1, Lower: 0.05, Upper: 0.2},
		{Exposure: 50, Median: 0.4, Lower: 0.3, Upper: 0.5},
	}
	tab := CurveTable("curve", pts, 0.8)
	if len(tab.Rows) != 2 {
		t.Fatalf("rows = %d", len(tab.Rows))
	}
	if tab.Columns[2] != "l-80%" {
		t.Fatalf("columns = %v", tab.Columns)
	}
	if tab.Rows[0][0] != "10" {
		t.Fatalf("exposure cell = %q", tab.Rows[0][0])
	}
}

func TestEffectsTable(t *testing.T) {
	effs := []covariate.Effect{
		{Covariate: "sex", Label: "sex = 0", Reference: true, Ratio: true, Estimate: 1, Lower: 1, Upper: 1},
		{Covariate: "sex", Label: "sex = 1", Ratio: true, Estimate: 1.8, Lower: 1.2, Upper: 2.7},
	}
	tab := EffectsTable("effects", effs, 0.9)
	if tab.Columns[1] != "odds ratio" {
		t.Fatalf("measure column = %q", tab.Columns[1])
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("rows = %v", tab.Rows)
	}

	diff := []covariate.Effect{
		{Covariate: "age", Label: "age = 42", Reference: true},
		{Covariate: "age", Label: "age = 60", Estimate: 0.5, Lower: 0.1, Upper: 0.9},
	}
	tab = EffectsTable("effects", diff, 0.9)
	if tab.Columns[1] != "difference" {
		t.Fatalf("measure column = %q", tab.Columns[1])
	}
	if tab.Rows[0][1] != "ref" {
		t.Fatalf("reference cell = %q", tab.Rows[0][1])
	}
}

func TestCompareTable(t *testing.T) {
	comps := []loo.Comparison{
		{Name: "emax", ELPD: -120.5, SE: 8.1},
		{Name: "linear", ELPD: -131.2, SE: 8.9, Diff: -10.7, SEDiff: 3.2, BadK: 1},
	}
	tab := CompareTable("model comparison", comps)
	if len(tab.Rows) != 2 || tab.Rows[0][0] != "emax" {
		t.Fatalf("rows = %v", tab.Rows)
	}
	if tab.Rows[1][5] != "1" {
		t.Fatalf("bad_k cell = %q", tab.Rows[1][5])
	}
}

func TestCurveFigure(t *testing.T) {
	dir := t.TempDir()
	pts := make([]predict.Point, 20)
	for i := range pts {
		x := float64(i+1) * 5
		pts[i] = predict.Point{Exposure: x, Median: x / 110, Lower: x / 130, Upper: x / 95}
	}
	obs := []dataset.Bin{
		{MidExposure: 20, MeanResponse: 0.2, N: 50},
		{MidExposure: 80, MeanResponse: 0.7, N: 50},
	}
	path := filepath.Join(dir, "curve.svg")
	if err := CurveFigure(path, "exposure-response", "AUC", "P(event)", pts, obs); err != nil {
		t.Fatalf("CurveFigure: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("figure not written: %v", err)
	}

	if err := CurveFigure(filepath.Join(dir, "empty.svg"), "t", "x", "y", nil, nil); err == nil {
		t.Fatal("expected error for empty curve")
	}
}

func TestForestFigure(t *testing.T) {
	dir := t.TempDir()
	effs := []covariate.Effect{
		{Label: "sex = 0", Reference: true, Ratio: true, Estimate: 1, Lower: 1, Upper: 1},
		{Label: "sex = 1", Ratio: true, Estimate: 1.8, Lower: 1.2, Upper: 2.7},
		{Label: "age = 65", Ratio: true, Estimate: 1.3, Lower: 0.9, Upper: 1.9},
	}
	path := filepath.Join(dir, "forest.svg")
	if err := ForestFigure(path, "covariate effects", "odds ratio", effs); err != nil {
		t.Fatalf("ForestFigure: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("figure not written: %v", err)
	}
}

func TestRenderBook(t *testing.T) {
	dir := t.TempDir()
	pages := []Page{
		{
			Slug:  "logistic",
			Title: "Binary endpoint",
			Intro: "A logistic exposure-response model.",
			Sections: []Section{
				{
					Heading:    "Parameter estimates",
					Paragraphs: []string{"Posterior summaries for the base model."},
					Tables:     []output.Table{SummaryTable("fit", sampleSummaries(), output.Standard, 0.9)},
				},
			},
		},
		{Slug: "emax", Title: "Continuous endpoint"},
	}
	if err := RenderBook(dir, "Exposure-Response Analysis", pages); err != nil {
		t.Fatalf("RenderBook: %v", err)
	}

	idx, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(idx), "logistic.html") || !strings.Contains(string(idx), "Binary endpoint") {
		t.Fatalf("index missing chapter link:\n%s", idx)
	}

	ch, err := os.ReadFile(filepath.Join(dir, "logistic.html"))
	if err != nil {
		t.Fatalf("read chapter: %v", err)
	}
	for _, want := range []string{"b_intercept", "Parameter estimates", "style.css", "emax.html"} {
		if !strings.Contains(string(ch), want) {
			t.Fatalf("chapter missing %q:\n%s", want, ch)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "style.css")); err != nil {
		t.Fatalf("stylesheet: %v", err)
	}

	if err := RenderBook(dir, "empty", nil); err == nil {
		t.Fatal("expected error for empty book")
	}
}
