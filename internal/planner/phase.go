package planner

import (
	"fmt"

	"github.com/san-kum/lunarover/internal/energy"
)

// Phase is the mission phase the planner optimises for.
type Phase int

const (
	Explore Phase = iota
	ConserveExplore
	Return
	Parked
)

func (p Phase) String() string {
	switch p {
	case Explore:
		return "explore"
	case ConserveExplore:
		return "conserve_explore"
	case Return:
		return "return"
	case Parked:
		return "parked"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether no further actions follow.
func (p Phase) Terminal() bool { return p == Parked }

// NextPhase derives this tick's phase. Parked is terminal and Return only
// ever advances to Parked, once the rover is inside the safe zone.
func NextPhase(prev Phase, policy energy.PolicyState, coverage, target float64, atSafeZone bool) Phase {
	switch prev {
	case Parked:
		return Parked
	case Return:
		if atSafeZone {
			return Parked
		}
		return Return
	}

	switch {
	case policy == energy.ReturnOnly:
		return Return
	case coverage >= target:
		return Return
	case policy == energy.Conserve:
		return ConserveExplore
	case prev == ConserveExplore:
		return ConserveExplore
	default:
		return Explore
	}
}
