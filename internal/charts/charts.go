// Package charts renders stored runs and terrain maps to PNG files.
package charts

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/lunarover/internal/storage"
	"github.com/san-kum/lunarover/internal/terrain"
)

var (
	lineColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	hazardColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	startColor  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

type series struct {
	file  string
	title string
	label string
	value func(storage.TickRow) float64
}

var runSeries = []series{
	{"remaining.png", "Remaining energy", "Energy (Wh)", func(t storage.TickRow) float64 { return t.Remaining }},
	{"coverage.png", "Coverage", "Coverage (%)", func(t storage.TickRow) float64 { return t.Coverage * 100 }},
	{"hazard.png", "Executed hazard score", "Hazard", func(t storage.TickRow) float64 { return t.Hazard }},
	{"cost.png", "Energy per tick", "Energy (Wh)", func(t storage.TickRow) float64 { return t.Cost }},
}

// RunCharts writes one time series chart per tracked quantity plus the
// ground track into dir and returns the files written.
func RunCharts(ticks []storage.TickRow, dir string) ([]string, error) {
	if len(ticks) == 0 {
		return nil, fmt.Errorf("charts: no ticks to plot")
	}

	var files []string
	for _, s := range runSeries {
		p := plot.New()
		p.Title.Text = s.title
		p.X.Label.Text = "Tick"
		p.Y.Label.Text = s.label

		pts := make(plotter.XYs, len(ticks))
		for i, t := range ticks {
			pts[i] = plotter.XY{X: float64(t.Tick), Y: s.value(t)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return files, err
		}
		line.Color = lineColor
		line.Width = vg.Points(1)
		p.Add(line, plotter.NewGrid())

		file := filepath.Join(dir, s.file)
		if err := p.Save(10*vg.Inch, 4*vg.Inch, file); err != nil {
			return files, fmt.Errorf("charts: save %s: %w", file, err)
		}
		files = append(files, file)
	}

	track, err := groundTrack(ticks)
	if err != nil {
		return files, err
	}
	file := filepath.Join(dir, "track.png")
	if err := track.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return files, fmt.Errorf("charts: save %s: %w", file, err)
	}
	return append(files, file), nil
}

func groundTrack(ticks []storage.TickRow) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Ground track"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	pts := make(plotter.XYs, len(ticks))
	for i, t := range ticks {
		pts[i] = plotter.XY{X: t.X, Y: t.Y}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	line.Width = vg.Points(1)

	start, err := plotter.NewScatter(pts[:1])
	if err != nil {
		return nil, err
	}
	start.GlyphStyle.Color = startColor
	start.GlyphStyle.Shape = draw.CircleGlyph{}
	start.GlyphStyle.Radius = vg.Points(4)

	p.Add(line, start, plotter.NewGrid())
	p.Legend.Add("path", line)
	p.Legend.Add("start", start)
	p.Legend.Top = true
	return p, nil
}

// elevationGrid exposes the boundary of a snapshot as a heat map grid.
// Cells below the coverage threshold are NaN.
type elevationGrid struct {
	snap     terrain.Snapshot
	bounds   terrain.Region
	min, max float64
}

func newElevationGrid(snap terrain.Snapshot) (*elevationGrid, bool) {
	g := &elevationGrid{snap: snap, bounds: snap.Config().Boundary, min: math.Inf(1), max: math.Inf(-1)}
	for _, k := range g.bounds.Keys() {
		if !terrain.Covered(snap, k) {
			continue
		}
		c, _ := snap.Cell(k)
		g.min = math.Min(g.min, c.Elevation)
		g.max = math.Max(g.max, c.Elevation)
	}
	if g.min > g.max {
		return nil, false
	}
	if g.max-g.min < 1e-9 {
		g.max = g.min + 1
	}
	return g, true
}

func (g *elevationGrid) Dims() (c, r int) {
	return g.bounds.MaxCol - g.bounds.MinCol + 1, g.bounds.MaxRow - g.bounds.MinRow + 1
}

func (g *elevationGrid) key(c, r int) terrain.Key {
	return terrain.Key{Row: g.bounds.MinRow + r, Col: g.bounds.MinCol + c}
}

func (g *elevationGrid) Z(c, r int) float64 {
	k := g.key(c, r)
	if !terrain.Covered(g.snap, k) {
		return math.NaN()
	}
	cell, _ := g.snap.Cell(k)
	return cell.Elevation
}

func (g *elevationGrid) X(c int) float64 {
	x, _ := g.snap.Config().Center(g.key(c, 0))
	return x
}

func (g *elevationGrid) Y(r int) float64 {
	_, y := g.snap.Config().Center(g.key(0, r))
	return y
}

func (g *elevationGrid) Min() float64 { return g.min }
func (g *elevationGrid) Max() float64 { return g.max }

// MapHeatmap draws observed elevation over the mission boundary with
// hazardous cells marked, and saves it as a PNG at path.
func MapHeatmap(snap terrain.Snapshot, title, path string) error {
	grid, ok := newElevationGrid(snap)
	if !ok {
		return fmt.Errorf("charts: map has no observed cells")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	heat := plotter.NewHeatMap(grid, palette.Heat(32, 1))
	heat.NaN = color.Gray{Y: 235}
	p.Add(heat)

	var hazards plotter.XYs
	for _, k := range grid.bounds.Keys() {
		if c, ok := snap.Cell(k); ok && c.Hazard == terrain.Hazardous {
			x, y := snap.Config().Center(k)
			hazards = append(hazards, plotter.XY{X: x, Y: y})
		}
	}
	if len(hazards) > 0 {
		sc, err := plotter.NewScatter(hazards)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = hazardColor
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(sc)
		p.Legend.Add("hazardous", sc)
		p.Legend.Top = true
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("charts: save %s: %w", path, err)
	}
	return nil
}
