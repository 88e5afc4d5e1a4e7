package mission

import (
	"context"
	"fmt"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/rover"
)

// Actuation is the simulation's acknowledgement of one action.
type Actuation struct {
	Cost     float64
	Executed bool
}

// Sim is the simulation boundary. Each tick calls Observe once and then
// Actuate once; both block until the environment answers.
type Sim interface {
	Observe(ctx context.Context) (perception.RawFrame, error)
	Actuate(ctx context.Context, a rover.Action) (Actuation, error)
}

// Metric accumulates a scalar over a mission.
type Metric interface {
	Name() string
	Observe(rec TickRecord)
	Value() float64
	Reset()
}

// Observer is notified after every completed tick.
type Observer interface {
	OnTick(rec TickRecord)
}

type Config struct {
	MaxTicks uint64 `yaml:"max_ticks"`
}

func DefaultConfig() Config {
	return Config{MaxTicks: 2000}
}

func (c Config) Validate() error {
	if c.MaxTicks == 0 {
		return fmt.Errorf("mission: max_ticks must be positive")
	}
	return nil
}

// Reason records why a mission ended.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonParked          Reason = "parked"
	ReasonClockExhausted  Reason = "clock_exhausted"
	ReasonEnergyUnderflow Reason = "energy_underflow"
	ReasonStuck           Reason = "stuck"
	ReasonCanceled        Reason = "canceled"
)

// TickRecord is what happened on one tick.
type TickRecord struct {
	Tick       uint64             `json:"tick"`
	Pose       rover.Pose         `json:"pose"`
	Phase      planner.Phase      `json:"phase"`
	Policy     energy.PolicyState `json:"policy"`
	Action     rover.Action       `json:"action"`
	Executed   bool               `json:"executed"`
	Predicted  float64            `json:"predicted"`
	Cost       float64            `json:"cost"`
	Remaining  float64            `json:"remaining"`
	Coverage   float64            `json:"coverage"`
	Hazard     float64            `json:"hazard"`
	Candidates int                `json:"candidates"`
	Rejected   int                `json:"rejected"`
	Ceiling    float64            `json:"ceiling"`
	MapVersion uint64             `json:"map_version"`
	Faults     []FaultKind        `json:"faults,omitempty"`
	// BatteryDrift is the reported charge minus the energy model's remaining
	// energy, valid when HasTelemetry is set.
	BatteryDrift float64 `json:"battery_drift"`
	HasTelemetry bool    `json:"has_telemetry"`

	// Decision is only populated on the record returned by Step.
	Decision *planner.Decision `json:"-"`
}

// HasFault reports whether kind was raised on this tick.
func (r TickRecord) HasFault(kind FaultKind) bool {
	for _, f := range r.Faults {
		if f == kind {
			return true
		}
	}
	return false
}

type Result struct {
	Reason   Reason             `json:"reason"`
	Ticks    uint64             `json:"ticks"`
	Phase    planner.Phase      `json:"phase"`
	Pose     rover.Pose         `json:"pose"`
	Coverage float64            `json:"coverage"`
	Energy   energy.State       `json:"energy"`
	Records  []TickRecord       `json:"-"`
	Faults   []Fault            `json:"-"`
	Metrics  map[string]float64 `json:"metrics"`
}
