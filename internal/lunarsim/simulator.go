// Package lunarsim is a synthetic lunar surface behind the mission Sim
// boundary. It generates a seeded heightfield, moves a unicycle chassis with
// a numerical integrator, and reports frames the way the rover's sensors
// would: odometry, battery telemetry, a forward depth patch and rock cues.
package lunarsim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/lunarover/internal/dynamics"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/rover"
)

type Simulator struct {
	cfg     Config
	world   *World
	chassis *dynamics.Unicycle
	integ   dynamics.Integrator
	rng     *rand.Rand
	faults  map[uint64]struct{}

	truth    rover.Pose
	reported rover.Pose
	tick     uint64
	battery  float64
	draw     float64 // watts over the last tick
}

// New generates a world from cfg and starts the rover at the origin facing +X.
func New(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithWorld(cfg, Generate(cfg), rover.Pose{})
}

// NewWithWorld runs cfg over a caller-supplied world. Only the planar part
// of start is used; height and attitude come from the surface.
func NewWithWorld(cfg Config, w *World, start rover.Pose) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, _ := dynamics.NewIntegrator(cfg.Integrator)
	s := &Simulator{
		cfg:     cfg,
		world:   w,
		chassis: dynamics.NewUnicycle(cfg.Slip),
		integ:   integ,
		rng:     rand.New(rand.NewSource(cfg.Seed + 1)),
		faults:  make(map[uint64]struct{}, len(cfg.FaultTicks)),
		battery: cfg.BatteryWh,
	}
	for _, t := range cfg.FaultTicks {
		s.faults[t] = struct{}{}
	}
	s.truth = s.settle(rover.Pose{X: start.X, Y: start.Y, Yaw: rover.WrapAngle(start.Yaw)})
	s.reported = s.truth
	return s, nil
}

func (s *Simulator) World() *World { return s.world }

// Truth is the ground-truth pose, never shown to the rover.
func (s *Simulator) Truth() rover.Pose { return s.truth }

func (s *Simulator) Battery() float64 { return s.battery }

// settle puts the chassis on the surface and derives pitch and roll from
// the local gradient.
func (s *Simulator) settle(p rover.Pose) rover.Pose {
	p.Z = s.world.Height(p.X, p.Y)
	gx, gy := s.world.Gradient(p.X, p.Y)
	sin, cos := math.Sincos(p.Yaw)
	p.Pitch = math.Atan(gx*cos + gy*sin)
	p.Roll = math.Atan(-gx*sin + gy*cos)
	return p
}

// Observe returns the next frame. Odometry is the motion since the last
// frame that was delivered intact, so a malformed frame loses no travel.
func (s *Simulator) Observe(ctx context.Context) (perception.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return perception.RawFrame{}, err
	}
	tick := s.tick
	s.tick++

	sin, cos := math.Sincos(s.reported.Yaw)
	dx, dy := s.truth.X-s.reported.X, s.truth.Y-s.reported.Y
	f := perception.RawFrame{
		Tick: tick,
		Odometry: &perception.Odometry{
			Forward: dx*cos + dy*sin,
			Lateral: -dx*sin + dy*cos,
			Up:      s.truth.Z - s.reported.Z,
			Yaw:     rover.WrapAngle(s.truth.Yaw - s.reported.Yaw),
			Pitch:   s.truth.Pitch - s.reported.Pitch,
			Roll:    s.truth.Roll - s.reported.Roll,
		},
		Battery: &perception.Battery{
			ChargeWh: s.battery,
			CurrentA: s.draw / s.cfg.BusVoltage,
			VoltageV: s.cfg.BusVoltage,
		},
	}
	if tick%uint64(s.cfg.CameraEvery) == 0 {
		f.HasDepth = true
		f.Depth = s.depth()
		f.Cues = s.cues()
	}

	if _, bad := s.faults[tick]; bad {
		f.Battery = nil
		return f, nil
	}
	s.reported = s.truth
	return f, nil
}

func (s *Simulator) halfFOV() float64 {
	return s.cfg.FieldOfView * math.Pi / 360
}

func (s *Simulator) depth() []perception.DepthPoint {
	half := s.halfFOV()
	sin, cos := math.Sincos(s.truth.Yaw)
	var out []perception.DepthPoint
	for fwd := s.cfg.DepthStep; fwd <= s.cfg.DepthRange; fwd += s.cfg.DepthStep {
		reach := s.cfg.DepthRange
		if half < math.Pi/2-1e-6 {
			reach = math.Min(reach, fwd*math.Tan(half))
		}
		for lat := -reach; lat <= reach+1e-9; lat += s.cfg.DepthStep {
			x := s.truth.X + fwd*cos - lat*sin
			y := s.truth.Y + fwd*sin + lat*cos
			out = append(out, perception.DepthPoint{
				Forward: fwd,
				Lateral: lat,
				Height:  s.world.Height(x, y) - s.truth.Z,
				Quality: 1 - 0.5*fwd/s.cfg.DepthRange,
			})
		}
	}
	return out
}

func (s *Simulator) cues() []perception.ObstacleCue {
	half := s.halfFOV()
	sin, cos := math.Sincos(s.truth.Yaw)
	var out []perception.ObstacleCue
	for _, r := range s.world.Rocks {
		if r.Height < s.cfg.CueHeight {
			continue
		}
		dx, dy := r.X-s.truth.X, r.Y-s.truth.Y
		fwd := dx*cos + dy*sin
		lat := -dx*sin + dy*cos
		if fwd <= 0 || math.Hypot(fwd, lat) > s.cfg.DepthRange || math.Abs(math.Atan2(lat, fwd)) > half {
			continue
		}
		out = append(out, perception.ObstacleCue{
			Forward:    fwd,
			Lateral:    lat,
			Radius:     r.Radius,
			Confidence: s.cfg.CueConfidence,
		})
	}
	return out
}

// Actuate executes a over one tick: the turn in the first half, the drive
// in the second. A drive that runs into a tall rock stops short and is
// reported as not executed. The cost is charged either way.
func (s *Simulator) Actuate(ctx context.Context, a rover.Action) (mission.Actuation, error) {
	if err := ctx.Err(); err != nil {
		return mission.Actuation{}, err
	}

	cost := s.cfg.IdlePerTick
	executed := true

	if a.Kind == rover.Drive || a.Kind == rover.Turn {
		half := s.cfg.TickSeconds / 2
		n := s.cfg.Substeps / 2
		lin, ang := a.Velocity(half)

		x := dynamics.State{s.truth.X, s.truth.Y, s.truth.Yaw}
		x, err := dynamics.Integrate(s.integ, s.chassis, x, dynamics.Control{0, ang}, half, n)
		if err != nil {
			return mission.Actuation{}, fmt.Errorf("lunarsim: turn: %w", err)
		}
		cost += s.cfg.TurnPerRadian * math.Abs(a.Turn)

		travelled, climb := 0.0, 0.0
		if lin > 0 {
			dt := half / float64(n)
			u := dynamics.Control{lin, 0}
			for i := 0; i < n; i++ {
				next := s.integ.Step(s.chassis, x, u, float64(i)*dt, dt)
				if !next.IsValid() {
					return mission.Actuation{}, fmt.Errorf("lunarsim: drive: %w", dynamics.ErrInvalidState)
				}
				_, blocked := s.world.Obstruction(next[0], next[1], s.cfg.ObstructionHeight)
				_, inside := s.world.Obstruction(x[0], x[1], s.cfg.ObstructionHeight)
				if blocked && !inside {
					executed = false
					break
				}
				rise := s.world.Height(next[0], next[1]) - s.world.Height(x[0], x[1])
				climb += math.Max(0, rise)
				travelled += math.Hypot(next[0]-x[0], next[1]-x[1])
				x = next
			}
		}
		s.truth = s.settle(rover.Pose{X: x[0], Y: x[1], Yaw: rover.WrapAngle(x[2])})
		cost += s.cfg.BasePerMeter*travelled + s.cfg.ClimbPerMeter*climb
	}

	if s.cfg.CostNoise > 0 {
		cost *= math.Max(0, 1+s.rng.NormFloat64()*s.cfg.CostNoise)
	}
	s.battery = math.Max(0, s.battery-cost)
	s.draw = cost * 3600 / s.cfg.TickSeconds
	return mission.Actuation{Cost: cost, Executed: executed}, nil
}
