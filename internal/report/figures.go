package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pkbridge/erlab/internal/covariate"
	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/predict"
)

var (
	curveColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	ribbonColor = color.RGBA{R: 31, G: 119, B: 180, A: 60}
	pointColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	guideColor  = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// CurveFigure draws the fitted exposure-response curve with its credible
// ribbon, optionally overlaying observed binned responses, and saves it to
// path. The format is inferred from the file extension.
func CurveFigure(path, title, xlabel, ylabel string, pts []predict.Point, obs []dataset.Bin) error {
	if len(pts) == 0 {
		return fmt.Errorf("report: empty curve")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	// Ribbon: lower bound forward, upper bound backward.
	ribbon := make(plotter.XYs, 0, 2*len(pts))
	for _, pt := range pts {
		ribbon = append(ribbon, plotter.XY{X: pt.Exposure, Y: pt.Lower})
	}
	for i := len(pts) - 1; i >= 0; i-- {
		ribbon = append(ribbon, plotter.XY{X: pts[i].Exposure, Y: pts[i].Upper})
	}
	poly, err := plotter.NewPolygon(ribbon)
	if err != nil {
		return fmt.Errorf("report: ribbon: %w", err)
	}
	poly.Color = ribbonColor
	poly.LineStyle.Width = 0
	p.Add(poly)

	median := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		median[i] = plotter.XY{X: pt.Exposure, Y: pt.Median}
	}
	line, err := plotter.NewLine(median)
	if err != nil {
		return fmt.Errorf("report: median line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = curveColor
	p.Add(line)
	p.Legend.Add("posterior median", line)

	if len(obs) > 0 {
		xys := make(plotter.XYs, len(obs))
		for i, b := range obs {
			xys[i] = plotter.XY{X: b.MidExposure, Y: b.MeanResponse}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("report: observed points: %w", err)
		}
		sc.GlyphStyle.Color = pointColor
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("observed", sc)
	}
	p.Legend.Top = false

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

// ForestFigure draws covariate effects as a horizontal forest plot: one row
// per level, a point at the estimate and a segment spanning the interval,
// with a guide line at the null effect.
func ForestFigure(path, title, xlabel string, effs []covariate.Effect) error {
	if len(effs) == 0 {
		return fmt.Errorf("report: no effects")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel

	null := 0.0
	if effs[0].Ratio {
		null = 1.0
	}

	ticks := make([]plot.Tick, 0, len(effs))
	n := len(effs)
	for i, e := range effs {
		// Top row first.
		y := float64(n - 1 - i)
		ticks = append(ticks, plot.Tick{Value: y, Label: e.Label})
		if e.Reference {
			continue
		}

		seg, err := plotter.NewLine(plotter.XYs{{X: e.Lower, Y: y}, {X: e.Upper, Y: y}})
		if err != nil {
			return fmt.Errorf("report: interval segment: %w", err)
		}
		seg.LineStyle.Width = vg.Points(1.5)
		seg.LineStyle.Color = curveColor
		p.Add(seg)

		pt, err := plotter.NewScatter(plotter.XYs{{X: e.Estimate, Y: y}})
		if err != nil {
			return fmt.Errorf("report: estimate point: %w", err)
		}
		pt.GlyphStyle.Color = pointColor
		pt.GlyphStyle.Radius = vg.Points(3)
		pt.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(pt)
	}

	guide, err := plotter.NewLine(plotter.XYs{{X: null, Y: -0.5}, {X: null, Y: float64(n) - 0.5}})
	if err != nil {
		return fmt.Errorf("report: guide line: %w", err)
	}
	guide.LineStyle.Color = guideColor
	guide.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(guide)

	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5

	if err := p.Save(6*vg.Inch, vg.Length(1+float64(n)*0.6)*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
