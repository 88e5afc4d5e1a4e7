// Package dynamics provides the ODE primitives used by the lunar simulator
// to move the chassis between ticks.
//
//   - [State]: state vector
//   - [System]: dX/dt = f(X, u, t)
//   - [Integrator]: fixed-step numerical integrator
//   - [Unicycle]: planar skid-steer chassis with slip
//
// # Example
//
//	chassis := dynamics.NewUnicycle(0.05)
//	x, err := dynamics.Integrate(dynamics.NewRK4(), chassis, x0, u, 1.0, 20)
package dynamics
