// Package hazard scores terrain cells and candidate paths for traversal
// risk. Scores are deterministic functions of the map view and the current
// observation.
package hazard

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Risk is the breakdown of one cell's score.
type Risk struct {
	Score     float64
	Slope     float64 // degrees, steepest edge to a known neighbour
	Roughness float64 // metres
	Cue       float64
	Hazardous bool
	// Known is false when the cell has no elevation data.
	Known bool
	// Neighbors counts the adjacent cells with elevation data.
	Neighbors int
}

// Assessment summarises a candidate path.
type Assessment struct {
	Score     float64 `json:"score"`
	Grade     float64 `json:"grade"` // steepest climb along the path, rise over run
	Roughness float64 `json:"roughness"`
	Known     float64 `json:"known"` // fraction of path cells with elevation data
}

type Classifier struct {
	cfg Config
}

func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

func (c *Classifier) Config() Config { return c.cfg }

// CellRisk scores a single cell from slope, neighbourhood roughness and
// obstacle cues. A hazardous cell always scores exactly 1.
func (c *Classifier) CellRisk(view terrain.View, ov Overlay, k terrain.Key) Risk {
	risk := Risk{Cue: ov.Cue(k)}
	res := view.Config().Resolution

	z, _, known := ov.elevation(view, k)
	risk.Known = known
	if known {
		for _, n := range terrain.Neighbors4(k) {
			nz, _, ok := ov.elevation(view, n)
			if !ok {
				continue
			}
			risk.Neighbors++
			deg := math.Atan(math.Abs(nz-z)/res) * 180 / math.Pi
			risk.Slope = math.Max(risk.Slope, deg)
		}
		risk.Roughness = c.roughness(view, ov, k)
	}

	risk.Hazardous = risk.Slope > c.cfg.MaxSlopeDeg ||
		risk.Roughness > c.cfg.RoughnessThreshold ||
		risk.Cue > c.cfg.CueThreshold
	if risk.Hazardous {
		risk.Score = 1
		return risk
	}
	score := math.Max(risk.Slope/c.cfg.MaxSlopeDeg, risk.Roughness/c.cfg.RoughnessThreshold)
	score = math.Max(score, risk.Cue/c.cfg.CueThreshold)
	risk.Score = math.Min(1, score)
	return risk
}

// roughness is the confidence-weighted spread of neighbourhood elevations
// around their least-squares plane, so a smooth incline is not rough.
func (c *Classifier) roughness(view terrain.View, ov Overlay, center terrain.Key) float64 {
	res := view.Config().Resolution
	region := terrain.RegionAround(center, c.cfg.NeighborhoodRadius)

	var xs, ys, zs, ws []float64
	for _, k := range region.Keys() {
		z, w, ok := ov.elevation(view, k)
		if !ok {
			continue
		}
		xs = append(xs, float64(k.Col-center.Col)*res)
		ys = append(ys, float64(k.Row-center.Row)*res)
		zs = append(zs, z)
		ws = append(ws, w)
	}

	n := len(zs)
	if n < 2 {
		return 0
	}
	if n < 4 {
		return stat.PopStdDev(zs, ws)
	}

	a := mat.NewDense(n, 3, nil)
	for i := range zs {
		a.Set(i, 0, xs[i])
		a.Set(i, 1, ys[i])
		a.Set(i, 2, 1)
	}
	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(n, zs)); err != nil {
		return stat.PopStdDev(zs, ws)
	}
	resid := make([]float64, n)
	for i := range zs {
		resid[i] = zs[i] - (coef.AtVec(0)*xs[i] + coef.AtVec(1)*ys[i] + coef.AtVec(2))
	}
	return stat.PopStdDev(resid, ws)
}

// Annotate attaches hazard verdicts to the observation patch. A cell is
// only called safe once at least one neighbour gives it a slope. Cells
// carrying only an obstacle cue above threshold get hazard-only readings.
func (c *Classifier) Annotate(obs perception.Observation, view terrain.View) []terrain.Reading {
	ov := NewOverlay(obs)
	out := make([]terrain.Reading, 0, len(obs.Patch)+len(obs.Cues))
	inPatch := make(map[terrain.Key]struct{}, len(obs.Patch))

	for _, r := range obs.Patch {
		inPatch[r.Key] = struct{}{}
		risk := c.CellRisk(view, ov, r.Key)
		switch {
		case risk.Hazardous:
			r.Hazard = terrain.Hazardous
			r.HazardConfidence = math.Max(r.Confidence, risk.Cue)
		case risk.Neighbors > 0:
			r.Hazard = terrain.Safe
			r.HazardConfidence = r.Confidence
		}
		out = append(out, r)
	}

	cueOnly := make([]terrain.Reading, 0)
	for k, cue := range obs.Cues {
		if _, ok := inPatch[k]; ok || cue <= c.cfg.CueThreshold {
			continue
		}
		cueOnly = append(cueOnly, terrain.Reading{Key: k, Hazard: terrain.Hazardous, HazardConfidence: cue})
	}
	sort.Slice(cueOnly, func(i, j int) bool {
		if cueOnly[i].Key.Row != cueOnly[j].Key.Row {
			return cueOnly[i].Key.Row < cueOnly[j].Key.Row
		}
		return cueOnly[i].Key.Col < cueOnly[j].Key.Col
	})
	return append(out, cueOnly...)
}

// Assess scores a path as its riskiest cell. Cells the map already flags
// hazardous score 1 and cells without data score UnknownRisk.
func (c *Classifier) Assess(view terrain.View, ov Overlay, path []terrain.Key) Assessment {
	var a Assessment
	if len(path) == 0 {
		a.Known = 1
		return a
	}

	res := view.Config().Resolution
	known := 0
	prevZ, havePrev := 0.0, false
	for _, k := range path {
		if cell, ok := view.Cell(k); ok && cell.Hazard == terrain.Hazardous {
			a.Score = 1
		}
		risk := c.CellRisk(view, ov, k)
		if !risk.Known {
			a.Score = math.Max(a.Score, math.Max(c.cfg.UnknownRisk, risk.Score))
			havePrev = false
			continue
		}
		known++
		a.Score = math.Max(a.Score, risk.Score)
		a.Roughness = math.Max(a.Roughness, risk.Roughness)

		z, _, _ := ov.elevation(view, k)
		if havePrev {
			a.Grade = math.Max(a.Grade, (z-prevZ)/res)
		}
		prevZ, havePrev = z, true
	}
	a.Known = float64(known) / float64(len(path))
	return a
}

// ScoreAll assesses every path concurrently against the same view. The
// view must not change while ScoreAll runs; a terrain.Snapshot satisfies
// that. Results are in path order.
func (c *Classifier) ScoreAll(ctx context.Context, view terrain.View, ov Overlay, paths [][]terrain.Key) ([]Assessment, error) {
	out := make([]Assessment, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.Assess(view, ov, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
