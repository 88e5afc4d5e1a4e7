package perception

import (
	"fmt"
	"math"

	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Odometry is the pose change since the previous frame, expressed in the
// rover frame at the previous pose (x forward, y left, z up).
type Odometry struct {
	Forward float64
	Lateral float64
	Up      float64
	Yaw     float64
	Pitch   float64
	Roll    float64
}

// Battery is the telemetry snapshot delivered with every frame.
type Battery struct {
	ChargeWh float64 `json:"charge_wh"`
	CurrentA float64 `json:"current_a"`
	VoltageV float64 `json:"voltage_v"`
}

// DepthPoint is one rectified depth sample in the rover frame at the current
// pose. Height is relative to the rover origin.
type DepthPoint struct {
	Forward float64
	Lateral float64
	Height  float64
	Quality float64
}

// ObstacleCue is a detected rock silhouette in the rover frame.
type ObstacleCue struct {
	Forward    float64
	Lateral    float64
	Radius     float64
	Confidence float64
}

// RawFrame is what the simulation boundary returns once per tick. Cameras
// run slower than the control loop, so HasDepth is false on some ticks.
type RawFrame struct {
	Tick     uint64
	Odometry *Odometry
	Battery  *Battery
	Depth    []DepthPoint
	HasDepth bool
	Cues     []ObstacleCue
}

// Observation is the structured output of one perception cycle. It is
// consumed by the tick that produced it and then discarded.
type Observation struct {
	Tick    uint64
	Pose    rover.Pose
	Patch   []terrain.Reading
	Cues    map[terrain.Key]float64
	Battery *Battery
	// Empty is set when the frame was rejected and the observation stands in
	// for it.
	Empty bool
}

// EmptyObservation returns the substitute used after a sensor fault: the
// last known pose and nothing new to merge.
func EmptyObservation(tick uint64, pose rover.Pose) Observation {
	return Observation{Tick: tick, Pose: pose, Empty: true}
}

func (o Observation) String() string {
	if o.Empty {
		return fmt.Sprintf("obs[t=%d empty]", o.Tick)
	}
	return fmt.Sprintf("obs[t=%d cells=%d cues=%d]", o.Tick, len(o.Patch), len(o.Cues))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
