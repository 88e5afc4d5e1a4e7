package mission

import (
	"errors"
	"fmt"
)

var (
	ErrActuationRejected = errors.New("mission: actuation rejected")
	ErrFinished          = errors.New("mission: already finished")
)

type FaultKind int

const (
	SensorFault FaultKind = iota
	ActuationRejected
	Stuck
	EnergyUnderflow
)

func (k FaultKind) String() string {
	switch k {
	case SensorFault:
		return "sensor_fault"
	case ActuationRejected:
		return "actuation_rejected"
	case Stuck:
		return "stuck"
	case EnergyUnderflow:
		return "energy_underflow"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Fatal reports whether the fault ends the mission on its own. Stuck only
// becomes fatal once the retry bound is exhausted.
func (k FaultKind) Fatal() bool { return k == EnergyUnderflow }

// Fault is a classified error raised during a tick.
type Fault struct {
	Kind FaultKind
	Tick uint64
	Err  error
}

func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("tick %d: %s: %v", f.Tick, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }
