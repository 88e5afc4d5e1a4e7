package dynamics

import (
	"errors"
	"math"
)

var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamics: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a state or control of the wrong length.
	ErrDimensionMismatch = errors.New("dynamics: dimension mismatch between state and system")
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(sys System, x State, u Control, t float64, dt float64) State
}

// Integrate advances x under constant control u for duration seconds using
// substeps equal steps.
func Integrate(integ Integrator, sys System, x State, u Control, duration float64, substeps int) (State, error) {
	if len(x) != sys.StateDim() || len(u) != sys.ControlDim() {
		return nil, ErrDimensionMismatch
	}
	if substeps < 1 {
		substeps = 1
	}
	dt := duration / float64(substeps)
	out := x.Clone()
	for i := 0; i < substeps; i++ {
		out = integ.Step(sys, out, u, float64(i)*dt, dt)
	}
	if !out.IsValid() {
		return nil, ErrInvalidState
	}
	return out, nil
}
