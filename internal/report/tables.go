package report

import (
	"fmt"

	"github.com/pkbridge/erlab/internal/covariate"
	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/loo"
	"github.com/pkbridge/erlab/internal/output"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
)

// ciLabel formats interval column headers, e.g. "l-90%" for prob 0.9.
func ciLabel(side string, prob float64) string {
	return fmt.Sprintf("%s-%g%%", side, prob*100)
}

// SummaryTable renders parameter summaries. Detail controls the columns:
// Minimal gives median and interval, Standard adds mean and sd, Full adds
// convergence diagnostics.
func SummaryTable(title string, sums []posterior.Summary, detail output.Detail, prob float64) output.Table {
	cols := []string{"param", "median", ciLabel("l", prob), ciLabel("u", prob)}
	if detail >= output.Standard {
		cols = append(cols, "mean", "sd")
	}
	if detail >= output.Full {
		cols = append(cols, "rhat", "ess")
	}
	tab := output.Table{Title: title, Columns: cols}
	for _, s := range sums {
		row := []string{s.Param, output.Num(s.Median), output.Num(s.Lower), output.Num(s.Upper)}
		if detail >= output.Standard {
			row = append(row, output.Num(s.Mean), output.Num(s.SD))
		}
		if detail >= output.Full {
			row = append(row, output.Num(s.Rhat), output.Num(s.ESS))
		}
		tab.Rows = append(tab.Rows, row)
	}
	return tab
}

// CurveTable renders predicted responses over an exposure grid.
func CurveTable(title string, pts []predict.Point, prob float64) output.Table {
	tab := output.Table{
		Title:   title,
		Columns: []string{"exposure", "median", ciLabel("l", prob), ciLabel("u", prob)},
	}
	for _, p := range pts {
		tab.Rows = append(tab.Rows, []string{
			output.Num(p.Exposure), output.Num(p.Median), output.Num(p.Lower), output.Num(p.Upper),
		})
	}
	return tab
}

// EffectsTable renders covariate effects against their reference levels.
func EffectsTable(title string, effs []covariate.Effect, prob float64) output.Table {
	measure := "difference"
	if len(effs) > 0 && effs[0].Ratio {
		measure = "odds ratio"
	}
	tab := output.Table{
		Title:   title,
		Columns: []string{"level", measure, ciLabel("l", prob), ciLabel("u", prob)},
	}
	for _, e := range effs {
		est, lo, hi := output.Num(e.Estimate), output.Num(e.Lower), output.Num(e.Upper)
		if e.Reference && !e.Ratio {
			est, lo, hi = "ref", "", ""
		}
		tab.Rows = append(tab.Rows, []string{e.Label, est, lo, hi})
	}
	return tab
}

// CompareTable renders a LOO-CV model ranking, best first.
func CompareTable(title string, comps []loo.Comparison) output.Table {
	tab := output.Table{
		Title:   title,
		Columns: []string{"model", "elpd", "se", "elpd_diff", "se_diff", "bad_k"},
	}
	for _, c := range comps {
		tab.Rows = append(tab.Rows, []string{
			c.Name, output.Num(c.ELPD), output.Num(c.SE),
			output.Num(c.Diff), output.Num(c.SEDiff), fmt.Sprintf("%d", c.BadK),
		})
	}
	return tab
}

// DataTable renders per-column dataset summaries.
func DataTable(title string, sums []dataset.Summary) output.Table {
	tab := output.Table{
		Title:   title,
		Columns: []string{"column", "mean", "sd", "min", "median", "max"},
	}
	for _, s := range sums {
		tab.Rows = append(tab.Rows, []string{
			s.Column, output.Num(s.Mean), output.Num(s.SD),
			output.Num(s.Min), output.Num(s.Median), output.Num(s.Max),
		})
	}
	return tab
}
