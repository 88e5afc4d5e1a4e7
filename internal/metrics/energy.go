package metrics

import (
	"math"

	"github.com/san-kum/lunarover/internal/mission"
)

// EnergyUsed sums the energy charged across the mission.
type EnergyUsed struct {
	name  string
	total float64
}

func NewEnergyUsed() *EnergyUsed {
	return &EnergyUsed{name: "energy_used"}
}

func (e *EnergyUsed) Name() string { return e.name }

func (e *EnergyUsed) Observe(rec mission.TickRecord) {
	e.total += rec.Cost
}

func (e *EnergyUsed) Value() float64 { return e.total }

func (e *EnergyUsed) Reset() { e.total = 0 }

// BatteryDrift is the largest gap between reported battery charge and the
// energy model's remaining energy over ticks that carried telemetry.
type BatteryDrift struct {
	name string
	peak float64
}

func NewBatteryDrift() *BatteryDrift {
	return &BatteryDrift{name: "battery_drift"}
}

func (b *BatteryDrift) Name() string { return b.name }

func (b *BatteryDrift) Observe(rec mission.TickRecord) {
	if !rec.HasTelemetry {
		return
	}
	b.peak = math.Max(b.peak, math.Abs(rec.BatteryDrift))
}

func (b *BatteryDrift) Value() float64 { return b.peak }

func (b *BatteryDrift) Reset() { b.peak = 0 }

// PredictionError tracks the mean absolute gap between the planner's cost
// estimate and the cost actually charged, over ticks that executed a
// candidate.
type PredictionError struct {
	name    string
	sum     float64
	samples int
}

func NewPredictionError() *PredictionError {
	return &PredictionError{name: "prediction_error"}
}

func (p *PredictionError) Name() string { return p.name }

func (p *PredictionError) Observe(rec mission.TickRecord) {
	if rec.Predicted == 0 || !rec.Executed {
		return
	}
	p.sum += math.Abs(rec.Cost - rec.Predicted)
	p.samples++
}

func (p *PredictionError) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *PredictionError) Reset() {
	p.sum = 0
	p.samples = 0
}
