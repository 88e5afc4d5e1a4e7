// Package mission runs the control loop: one observe, decide, actuate and
// commit cycle per tick until the rover parks, the clock runs out or a fatal
// fault ends the mission.
package mission

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/hazard"
	"github.com/san-kum/lunarover/internal/monitoring"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Deps are the components a Driver owns for one mission.
type Deps struct {
	Config     Config
	Sim        Sim
	Perception *perception.Adapter
	Map        *terrain.Map
	Hazard     *hazard.Classifier
	Energy     *energy.Model
	Planner    *planner.Planner
}

type Driver struct {
	cfg        Config
	sim        Sim
	perception *perception.Adapter
	terrain    *terrain.Map
	hazard     *hazard.Classifier
	energy     *energy.Model
	planner    *planner.Planner

	metrics   []Metric
	observers []Observer

	clock   *Clock
	phase   planner.Phase
	ceiling float64
	stuck   int

	started bool
	reason  Reason
	records []TickRecord
	faults  []Fault
}

func New(deps Deps) (*Driver, error) {
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}
	if deps.Sim == nil || deps.Perception == nil || deps.Map == nil ||
		deps.Hazard == nil || deps.Energy == nil || deps.Planner == nil {
		return nil, errors.New("mission: all dependencies are required")
	}
	return &Driver{
		cfg:        deps.Config,
		sim:        deps.Sim,
		perception: deps.Perception,
		terrain:    deps.Map,
		hazard:     deps.Hazard,
		energy:     deps.Energy,
		planner:    deps.Planner,
		clock:      NewClock(deps.Config.MaxTicks),
		phase:      planner.Explore,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}, nil
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// Map gives read access to the terrain map, e.g. for persistence.
func (d *Driver) Map() terrain.View { return d.terrain }

func (d *Driver) Clock() *Clock { return d.clock }

func (d *Driver) Phase() planner.Phase { return d.phase }

func (d *Driver) Finished() bool { return d.reason != ReasonNone }

func (d *Driver) Reason() Reason { return d.reason }

// Run steps the mission to completion. A canceled context ends the mission
// with ReasonCanceled and returns the partial result with the context error.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	for !d.Finished() {
		select {
		case <-ctx.Done():
			d.finish(ReasonCanceled)
			return d.Result(), ctx.Err()
		default:
		}

		if _, err := d.Step(ctx); err != nil {
			if ctx.Err() != nil {
				d.finish(ReasonCanceled)
			}
			return d.Result(), err
		}
	}
	return d.Result(), nil
}

// Step runs a single tick. Recoverable faults are recorded on the returned
// record; a non-nil error means the simulation boundary failed.
func (d *Driver) Step(ctx context.Context) (TickRecord, error) {
	if d.Finished() {
		return TickRecord{}, ErrFinished
	}
	if !d.started {
		d.started = true
		for _, m := range d.metrics {
			m.Reset()
		}
	}

	tick := d.clock.Tick()
	rec := TickRecord{Tick: tick}

	frame, err := d.sim.Observe(ctx)
	if err != nil {
		return rec, fmt.Errorf("mission: observe tick %d: %w", tick, err)
	}

	obs, err := d.perception.Interpret(frame, tick)
	if err != nil {
		if !errors.Is(err, perception.ErrSensorFault) {
			return rec, err
		}
		d.fault(&rec, SensorFault, err)
		obs = perception.EmptyObservation(tick, d.perception.Pose())
	}
	if !obs.Empty {
		d.terrain.Merge(d.hazard.Annotate(obs, d.terrain), tick)
	}
	snap := d.terrain.Snapshot()

	rec.Pose = obs.Pose
	if obs.Battery != nil {
		rec.HasTelemetry = true
		rec.BatteryDrift = obs.Battery.ChargeWh - d.energy.Remaining()
	}
	rec.Policy = d.energy.Update(d.planner.DistanceToSafe(obs.Pose))
	next := planner.NextPhase(d.phase, rec.Policy, snap.Coverage(),
		d.planner.Config().CoverageTarget, d.planner.AtSafeZone(obs.Pose))
	if next != d.phase {
		monitoring.Logf("tick %d: phase %s -> %s (policy=%s coverage=%.2f remaining=%.1f)",
			tick, d.phase, next, rec.Policy, snap.Coverage(), d.energy.Remaining())
		d.phase = next
	}

	dec, err := d.planner.Decide(ctx, planner.Request{
		Observation: obs,
		Map:         snap,
		Energy:      d.energy.State(),
		Phase:       d.phase,
		Ceiling:     d.ceiling,
	})
	action := dec.Action
	switch {
	case errors.Is(err, planner.ErrStuck):
		d.fault(&rec, Stuck, err)
		d.stuck++
		if d.stuck >= d.planner.Config().MaxStuckRetries {
			monitoring.Logf("tick %d: stuck for %d ticks, parking", tick, d.stuck)
			action = rover.ParkAction()
			d.finish(ReasonStuck)
		} else {
			d.ceiling = min(dec.Ceiling+d.planner.Config().CeilingStep, d.planner.Config().MaxCeiling)
		}
	case errors.Is(err, planner.ErrUnaffordable):
		d.fault(&rec, EnergyUnderflow, err)
		d.finish(ReasonEnergyUnderflow)
	case err != nil:
		return rec, err
	default:
		d.stuck = 0
		d.ceiling = 0
	}

	rec.Phase = d.phase
	rec.Action = action
	rec.Candidates = len(dec.Candidates)
	rec.Rejected = dec.Rejected
	rec.Ceiling = dec.Ceiling
	if dec.Chosen >= 0 {
		rec.Hazard = dec.Candidates[dec.Chosen].Hazard
		rec.Predicted = dec.Candidates[dec.Chosen].Cost
	}

	if d.reason != ReasonEnergyUnderflow {
		if err := d.actuate(ctx, &rec, action); err != nil {
			return rec, err
		}
	}

	rec.Remaining = d.energy.Remaining()
	rec.Coverage = snap.Coverage()
	rec.MapVersion = d.terrain.Version()
	d.clock.Advance()
	if !d.Finished() && d.clock.Exhausted() {
		d.finish(ReasonClockExhausted)
	}

	for _, m := range d.metrics {
		m.Observe(rec)
	}
	for _, o := range d.observers {
		o.OnTick(rec)
	}
	monitoring.Debugf("tick %d: %s", tick, dec)

	d.records = append(d.records, rec)
	rec.Decision = &dec
	return rec, nil
}

// actuate issues the action and charges its reported cost exactly once.
func (d *Driver) actuate(ctx context.Context, rec *TickRecord, action rover.Action) error {
	act, err := d.sim.Actuate(ctx, action)
	if err != nil {
		return fmt.Errorf("mission: actuate tick %d: %w", rec.Tick, err)
	}
	rec.Executed = act.Executed
	rec.Cost = act.Cost
	if !act.Executed {
		d.fault(rec, ActuationRejected, fmt.Errorf("%w: %s", ErrActuationRejected, action))
	}

	if err := d.energy.Commit(rec.Tick, act.Cost); err != nil {
		if !errors.Is(err, energy.ErrEnergyUnderflow) {
			return err
		}
		d.energy.Drain()
		d.fault(rec, EnergyUnderflow, err)
		d.finish(ReasonEnergyUnderflow)
		return nil
	}

	if action.Kind == rover.Park && !d.Finished() {
		d.finish(ReasonParked)
	}
	return nil
}

func (d *Driver) fault(rec *TickRecord, kind FaultKind, err error) {
	f := Fault{Kind: kind, Tick: rec.Tick, Err: err}
	d.faults = append(d.faults, f)
	rec.Faults = append(rec.Faults, kind)
	monitoring.Logf("tick %d: %s: %v", rec.Tick, kind, err)
}

func (d *Driver) finish(reason Reason) {
	if d.Finished() {
		return
	}
	d.reason = reason
	switch reason {
	case ReasonParked, ReasonStuck, ReasonEnergyUnderflow:
		d.phase = planner.Parked
	}
	monitoring.Logf("mission finished after %d ticks: %s", d.clock.Tick(), reason)
}

// Result summarises the mission so far.
func (d *Driver) Result() *Result {
	res := &Result{
		Reason:   d.reason,
		Ticks:    d.clock.Tick(),
		Phase:    d.phase,
		Pose:     d.perception.Pose(),
		Coverage: d.terrain.Coverage(),
		Energy:   d.energy.State(),
		Records:  append([]TickRecord(nil), d.records...),
		Faults:   append([]Fault(nil), d.faults...),
		Metrics:  make(map[string]float64, len(d.metrics)),
	}
	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
