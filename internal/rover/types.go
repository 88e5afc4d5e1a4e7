// Package rover holds the value types shared by every stage of the control
// loop: the rover pose and the drive commands the planner emits.
package rover

import (
	"fmt"
	"math"
)

// Pose is the rover position and attitude in mission-fixed coordinates.
// Distances are metres, angles radians. Yaw 0 points along +X.
type Pose struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Z     float64 `json:"z" yaml:"z"`
	Yaw   float64 `json:"yaw" yaml:"yaw"`
	Pitch float64 `json:"pitch" yaml:"pitch"`
	Roll  float64 `json:"roll" yaml:"roll"`
}

// DistanceTo returns the planar distance from the pose to (x, y).
func (p Pose) DistanceTo(x, y float64) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}

// BearingTo returns the heading change needed to face (x, y), wrapped to (-π, π].
func (p Pose) BearingTo(x, y float64) float64 {
	return WrapAngle(math.Atan2(y-p.Y, x-p.X) - p.Yaw)
}

// Advance returns the pose after turning by turn and driving distance along
// the new heading. Z and attitude are carried over unchanged.
func (p Pose) Advance(turn, distance float64) Pose {
	next := p
	next.Yaw = WrapAngle(p.Yaw + turn)
	next.X += distance * math.Cos(next.Yaw)
	next.Y += distance * math.Sin(next.Yaw)
	return next
}

// IsValid reports whether every component is finite.
func (p Pose) IsValid() bool {
	for _, v := range []float64{p.X, p.Y, p.Z, p.Yaw, p.Pitch, p.Roll} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// WrapAngle maps a to (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

type ActionKind int

const (
	Halt ActionKind = iota
	Drive
	Turn
	Park
)

func (k ActionKind) String() string {
	switch k {
	case Halt:
		return "halt"
	case Drive:
		return "drive"
	case Turn:
		return "turn"
	case Park:
		return "park"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is a single drive command. Drive turns in place by Turn and then
// moves Distance forward; Turn only rotates. Halt and Park carry no motion.
type Action struct {
	Kind     ActionKind `json:"kind"`
	Turn     float64    `json:"turn"`
	Distance float64    `json:"distance"`
}

func NewDrive(turn, distance float64) Action {
	return Action{Kind: Drive, Turn: WrapAngle(turn), Distance: distance}
}

func NewTurn(turn float64) Action {
	return Action{Kind: Turn, Turn: WrapAngle(turn)}
}

func HaltAction() Action { return Action{Kind: Halt} }

func ParkAction() Action { return Action{Kind: Park} }

// Moves reports whether the action changes the rover position.
func (a Action) Moves() bool {
	return a.Kind == Drive && a.Distance > 0
}

// Velocity converts the action into the (linear m/s, angular rad/s) pair a
// velocity-controlled chassis expects when the action spans one tick.
func (a Action) Velocity(tickSeconds float64) (linear, angular float64) {
	if tickSeconds <= 0 {
		return 0, 0
	}
	switch a.Kind {
	case Drive:
		return a.Distance / tickSeconds, a.Turn / tickSeconds
	case Turn:
		return 0, a.Turn / tickSeconds
	default:
		return 0, 0
	}
}

func (a Action) String() string {
	switch a.Kind {
	case Drive:
		return fmt.Sprintf("drive(turn=%.1f°, dist=%.2fm)", a.Turn*180/math.Pi, a.Distance)
	case Turn:
		return fmt.Sprintf("turn(%.1f°)", a.Turn*180/math.Pi)
	default:
		return a.Kind.String()
	}
}
