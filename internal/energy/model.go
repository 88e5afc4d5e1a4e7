// Package energy tracks the mission energy budget, prices candidate actions
// and runs the reserve policy latch.
package energy

import (
	"fmt"
	"math"

	"github.com/san-kum/lunarover/internal/rover"
)

type PolicyState int

const (
	Normal PolicyState = iota
	Conserve
	ReturnOnly
)

func (p PolicyState) String() string {
	switch p {
	case Normal:
		return "normal"
	case Conserve:
		return "conserve"
	case ReturnOnly:
		return "return_only"
	default:
		return fmt.Sprintf("PolicyState(%d)", int(p))
	}
}

// Terrain is the context used to price a drive. Known is the fraction of
// the path with data; the remainder is priced at the configured worst case.
type Terrain struct {
	Grade     float64
	Roughness float64
	Known     float64
}

// State is a read-only copy of the energy state.
type State struct {
	Remaining float64     `json:"remaining"`
	Capacity  float64     `json:"capacity"`
	Used      float64     `json:"used"`
	DrawRate  float64     `json:"draw_rate"` // watts, smoothed
	Reserve   float64     `json:"reserve"`   // hard threshold at the last update
	Policy    PolicyState `json:"policy"`
}

// Model is owned by the control loop. Remaining energy only goes down
// except through Recharge.
type Model struct {
	cfg Config

	remaining float64
	used      float64
	drawRate  float64
	reserve   float64
	policy    PolicyState

	lastTick  uint64
	committed bool
	samples   int
}

func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, remaining: cfg.Initial}, nil
}

func (m *Model) Config() Config { return m.cfg }

func (m *Model) Remaining() float64 { return m.remaining }

// PredictCost prices an action. It never fails: a missing or non-finite
// terrain context falls back to the worst case.
func (m *Model) PredictCost(a rover.Action, t Terrain) float64 {
	cost := m.cfg.IdlePerTick
	switch a.Kind {
	case rover.Turn:
		cost += m.cfg.TurnPerRadian * math.Abs(a.Turn)
	case rover.Drive:
		cost += m.cfg.TurnPerRadian * math.Abs(a.Turn)
		cost += math.Max(0, a.Distance) * m.perMeter(t)
	}
	return cost
}

func (m *Model) perMeter(t Terrain) float64 {
	grade, rough, known := t.Grade, t.Roughness, t.Known
	if !finite(grade, rough, known) || known < 0 || known > 1 {
		grade, rough, known = 0, 0, 0
	}
	g := known*math.Max(0, grade) + (1-known)*m.cfg.WorstGrade
	r := known*math.Max(0, rough) + (1-known)*m.cfg.WorstRoughness
	return m.cfg.BasePerMeter + m.cfg.ClimbPerMeter*g + m.cfg.RoughPerMeter*r
}

// ParkCost estimates the energy to drive distance metres to the safe zone.
func (m *Model) ParkCost(distance float64) float64 {
	if !finite(distance) || distance < 0 {
		distance = 0
	}
	return m.cfg.ParkPerMeter * distance
}

// Thresholds returns the soft and hard energy levels for a safe zone
// distance metres away.
func (m *Model) Thresholds(distance float64) (soft, hard float64) {
	park := m.ParkCost(distance)
	soft = math.Max(m.cfg.SoftFloor, m.cfg.SoftMultiplier*park)
	hard = math.Max(m.cfg.HardFloor, m.cfg.HardMultiplier*park)
	return soft, hard
}

// Commit charges the actual cost of the action executed on tick. Negative
// costs clamp to zero. Each tick is charged at most once.
func (m *Model) Commit(tick uint64, cost float64) error {
	if m.committed && tick <= m.lastTick {
		return fmt.Errorf("%w: tick %d (last %d)", ErrAlreadyCommitted, tick, m.lastTick)
	}
	if math.IsNaN(cost) || cost < 0 {
		cost = 0
	}
	m.committed = true
	m.lastTick = tick

	if cost > m.remaining {
		return fmt.Errorf("%w: cost %.3f exceeds remaining %.3f", ErrEnergyUnderflow, cost, m.remaining)
	}

	m.remaining -= cost
	m.used += cost
	rate := cost / m.cfg.TickSeconds
	if m.samples == 0 {
		m.drawRate = rate
	} else {
		m.drawRate = m.cfg.DrawSmoothing*rate + (1-m.cfg.DrawSmoothing)*m.drawRate
	}
	m.samples++
	return nil
}

// Drain clamps the budget to zero after an underflow.
func (m *Model) Drain() {
	m.used += m.remaining
	m.remaining = 0
}

// Recharge adds energy up to capacity. The policy latch is not reset.
func (m *Model) Recharge(amount float64) {
	if !finite(amount) || amount <= 0 {
		return
	}
	m.remaining = math.Min(m.cfg.Capacity, m.remaining+amount)
}

// Update advances the policy latch for a safe zone distanceToSafe metres
// away. Transitions only go Normal -> Conserve -> ReturnOnly.
func (m *Model) Update(distanceToSafe float64) PolicyState {
	soft, hard := m.Thresholds(distanceToSafe)
	m.reserve = hard
	if m.policy < Conserve && m.remaining < soft {
		m.policy = Conserve
	}
	if m.policy < ReturnOnly && m.remaining < hard {
		m.policy = ReturnOnly
	}
	return m.policy
}

func (m *Model) PolicyState() PolicyState { return m.policy }

func (m *Model) State() State {
	return State{
		Remaining: m.remaining,
		Capacity:  m.cfg.Capacity,
		Used:      m.used,
		DrawRate:  m.drawRate,
		Reserve:   m.reserve,
		Policy:    m.policy,
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
