package dynamics

import "math"

// Unicycle is a planar chassis driven by a linear and an angular velocity.
// State is [x, y, yaw], control is [v, omega]. Slip scales down the
// achieved linear speed.
type Unicycle struct {
	Slip float64
}

func NewUnicycle(slip float64) *Unicycle {
	return &Unicycle{Slip: math.Max(0, math.Min(1, slip))}
}

func (u *Unicycle) StateDim() int   { return 3 }
func (u *Unicycle) ControlDim() int { return 2 }

func (u *Unicycle) Derive(x State, c Control, t float64) State {
	v := c[0] * (1 - u.Slip)
	sin, cos := math.Sincos(x[2])
	return State{v * cos, v * sin, c[1]}
}
