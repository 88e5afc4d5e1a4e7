package dynamics

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys System, x State, u Control, t float64, dt float64) State {
	dx := sys.Derive(x, u, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// NewIntegrator returns the integrator registered under name.
func NewIntegrator(name string) (Integrator, bool) {
	switch name {
	case "rk4":
		return NewRK4(), true
	case "euler":
		return NewEuler(), true
	default:
		return nil, false
	}
}
