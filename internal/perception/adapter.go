// Package perception turns raw sensor frames into per-cell terrain readings
// and keeps the integrated rover pose.
package perception

import (
	"math"
	"sort"

	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Adapter interprets frames for one mission. Apart from the running pose it
// keeps no state between calls.
type Adapter struct {
	cfg    Config
	mapCfg terrain.Config
	pose   rover.Pose
}

func New(cfg Config, mapCfg terrain.Config, initial rover.Pose) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := mapCfg.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, mapCfg: mapCfg, pose: initial}, nil
}

// Pose returns the integrated pose after the last accepted frame.
func (a *Adapter) Pose() rover.Pose { return a.pose }

// Interpret validates frame against the current tick, integrates its
// odometry and converts depth samples and cues into cell readings. A
// malformed frame returns a *SensorFault and leaves the pose untouched.
func (a *Adapter) Interpret(frame RawFrame, tick uint64) (Observation, error) {
	if err := a.validate(frame, tick); err != nil {
		return Observation{}, err
	}

	a.pose = integrate(a.pose, *frame.Odometry)

	battery := *frame.Battery
	obs := Observation{
		Tick:    tick,
		Pose:    a.pose,
		Battery: &battery,
	}
	if frame.HasDepth {
		obs.Patch = a.patch(frame.Depth)
	}
	if len(frame.Cues) > 0 {
		obs.Cues = a.cues(frame.Cues)
	}
	return obs, nil
}

func (a *Adapter) validate(frame RawFrame, tick uint64) error {
	if frame.Tick != tick {
		return faultf(tick, "frame stamped %d, expected %d", frame.Tick, tick)
	}
	if frame.Odometry == nil {
		return faultf(tick, "missing odometry channel")
	}
	if frame.Battery == nil {
		return faultf(tick, "missing battery channel")
	}
	o := frame.Odometry
	if !finite(o.Forward, o.Lateral, o.Up, o.Yaw, o.Pitch, o.Roll) {
		return faultf(tick, "non-finite odometry")
	}
	b := frame.Battery
	if !finite(b.ChargeWh, b.CurrentA, b.VoltageV) {
		return faultf(tick, "non-finite battery telemetry")
	}
	if !frame.HasDepth && len(frame.Depth) > 0 {
		return faultf(tick, "%d depth points without a depth channel", len(frame.Depth))
	}
	for i, p := range frame.Depth {
		if !finite(p.Forward, p.Lateral, p.Height, p.Quality) {
			return faultf(tick, "depth point %d is not finite", i)
		}
		if p.Quality < 0 || p.Quality > 1 {
			return faultf(tick, "depth point %d quality %f outside [0, 1]", i, p.Quality)
		}
	}
	for i, c := range frame.Cues {
		if !finite(c.Forward, c.Lateral, c.Radius, c.Confidence) || c.Radius < 0 {
			return faultf(tick, "obstacle cue %d is malformed", i)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return faultf(tick, "obstacle cue %d confidence %f outside [0, 1]", i, c.Confidence)
		}
	}
	return nil
}

// integrate applies an odometry delta given in the frame of p.
func integrate(p rover.Pose, d Odometry) rover.Pose {
	sin, cos := math.Sincos(p.Yaw)
	next := p
	next.X += d.Forward*cos - d.Lateral*sin
	next.Y += d.Forward*sin + d.Lateral*cos
	next.Z += d.Up
	next.Yaw = rover.WrapAngle(p.Yaw + d.Yaw)
	next.Pitch = rover.WrapAngle(p.Pitch + d.Pitch)
	next.Roll = rover.WrapAngle(p.Roll + d.Roll)
	return next
}

// toWorld maps a rover-frame point to mission coordinates.
func (a *Adapter) toWorld(forward, lateral float64) (x, y float64) {
	sin, cos := math.Sincos(a.pose.Yaw)
	return a.pose.X + forward*cos - lateral*sin, a.pose.Y + forward*sin + lateral*cos
}

// pointConfidence scales quality down with range and with distance from the
// image centre. Zero means the point is not used.
func (a *Adapter) pointConfidence(p DepthPoint) float64 {
	if p.Quality < a.cfg.MinQuality {
		return 0
	}
	r := math.Hypot(p.Forward, p.Lateral)
	if r < a.cfg.MinRange || r > a.cfg.MaxRange {
		return 0
	}
	bearing := math.Abs(math.Atan2(p.Lateral, p.Forward))
	half := a.cfg.halfFOV()
	if bearing > half {
		return 0
	}
	return p.Quality * (1 - r/a.cfg.MaxRange) * (1 - a.cfg.CentralFalloff*bearing/half)
}

type accum struct {
	weighted float64
	weight   float64
	best     float64
}

func (a *Adapter) patch(points []DepthPoint) []terrain.Reading {
	cells := make(map[terrain.Key]*accum)
	for _, p := range points {
		c := a.pointConfidence(p)
		if c <= 0 {
			continue
		}
		x, y := a.toWorld(p.Forward, p.Lateral)
		k := a.mapCfg.KeyFor(x, y)
		acc, ok := cells[k]
		if !ok {
			acc = &accum{}
			cells[k] = acc
		}
		acc.weighted += (a.pose.Z + p.Height) * c
		acc.weight += c
		acc.best = math.Max(acc.best, c)
	}

	out := make([]terrain.Reading, 0, len(cells))
	for k, acc := range cells {
		out = append(out, terrain.Reading{
			Key:        k,
			Elevation:  acc.weighted / acc.weight,
			Confidence: acc.best,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Row != out[j].Key.Row {
			return out[i].Key.Row < out[j].Key.Row
		}
		return out[i].Key.Col < out[j].Key.Col
	})
	return out
}

// cues spreads each obstacle cue over the cells its footprint touches.
func (a *Adapter) cues(cues []ObstacleCue) map[terrain.Key]float64 {
	out := make(map[terrain.Key]float64)
	res := a.mapCfg.Resolution
	for _, c := range cues {
		if c.Confidence <= 0 {
			continue
		}
		cx, cy := a.toWorld(c.Forward, c.Lateral)
		reach := c.Radius + res/2
		radius := int(math.Ceil(reach / res))
		for _, k := range terrain.RegionAround(a.mapCfg.KeyFor(cx, cy), radius).Keys() {
			x, y := a.mapCfg.Center(k)
			if math.Hypot(x-cx, y-cy) > reach {
				continue
			}
			out[k] = math.Max(out[k], c.Confidence)
		}
	}
	return out
}
