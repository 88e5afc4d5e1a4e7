package lunarsim

import (
	"math"
	"math/rand"
)

type Crater struct {
	X, Y   float64
	Radius float64
	Depth  float64
}

type Rock struct {
	X, Y   float64
	Radius float64
	Height float64
}

// World is a deterministic heightfield: a planar base slope with bowl
// shaped craters and dome shaped rocks on top.
type World struct {
	SlopeX, SlopeY float64
	Craters        []Crater
	Rocks          []Rock
}

// Generate places features uniformly over the extent, keeping the start
// point (origin) clear.
func Generate(cfg Config) *World {
	rng := rand.New(rand.NewSource(cfg.Seed))
	w := &World{SlopeX: cfg.SlopeX, SlopeY: cfg.SlopeY}

	place := func(margin float64) (x, y float64) {
		for {
			x = (rng.Float64()*2 - 1) * cfg.Extent
			y = (rng.Float64()*2 - 1) * cfg.Extent
			if math.Hypot(x, y) > cfg.StartClearance+margin {
				return x, y
			}
		}
	}

	for i := 0; i < cfg.Craters; i++ {
		r := cfg.MinCraterRadius + rng.Float64()*(cfg.MaxCraterRadius-cfg.MinCraterRadius)
		x, y := place(1.3 * r)
		w.Craters = append(w.Craters, Crater{X: x, Y: y, Radius: r, Depth: cfg.MaxCraterDepth * (0.4 + 0.6*rng.Float64())})
	}
	for i := 0; i < cfg.Rocks; i++ {
		r := cfg.MaxRockRadius * (0.3 + 0.7*rng.Float64())
		x, y := place(r)
		w.Rocks = append(w.Rocks, Rock{X: x, Y: y, Radius: r, Height: cfg.MaxRockHeight * (0.2 + 0.8*rng.Float64())})
	}
	return w
}

// Height returns the surface elevation at (x, y).
func (w *World) Height(x, y float64) float64 {
	h := w.SlopeX*x + w.SlopeY*y
	for _, c := range w.Craters {
		d := math.Hypot(x-c.X, y-c.Y) / c.Radius
		switch {
		case d < 1:
			h -= c.Depth * (1 - d*d)
		case d < 1.3:
			h += 0.2 * c.Depth * (1 - (d-1)/0.3)
		}
	}
	for _, r := range w.Rocks {
		if d := math.Hypot(x-r.X, y-r.Y) / r.Radius; d < 1 {
			h += r.Height * math.Sqrt(1-d*d)
		}
	}
	return h
}

// Gradient is the central-difference surface gradient at (x, y).
func (w *World) Gradient(x, y float64) (gx, gy float64) {
	const e = 0.05
	gx = (w.Height(x+e, y) - w.Height(x-e, y)) / (2 * e)
	gy = (w.Height(x, y+e) - w.Height(x, y-e)) / (2 * e)
	return gx, gy
}

// Obstruction returns the rock taller than minHeight whose footprint
// contains (x, y).
func (w *World) Obstruction(x, y, minHeight float64) (Rock, bool) {
	for _, r := range w.Rocks {
		if r.Height > minHeight && math.Hypot(x-r.X, y-r.Y) < r.Radius {
			return r, true
		}
	}
	return Rock{}, false
}
