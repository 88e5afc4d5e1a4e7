package perception

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

func newAdapter(t *testing.T, pose rover.Pose) *Adapter {
	t.Helper()
	a, err := New(DefaultConfig(), terrain.DefaultConfig(), pose)
	require.NoError(t, err)
	return a
}

func frame(tick uint64) RawFrame {
	return RawFrame{
		Tick:     tick,
		Odometry: &Odometry{},
		Battery:  &Battery{ChargeWh: 100, VoltageV: 28},
	}
}

func TestInterpret_IntegratesOdometryInRoverFrame(t *testing.T) {
	a := newAdapter(t, rover.Pose{Yaw: math.Pi / 2})

	f := frame(1)
	f.Odometry = &Odometry{Forward: 2, Lateral: 1, Up: 0.5, Yaw: math.Pi / 2}
	obs, err := a.Interpret(f, 1)
	require.NoError(t, err)

	// facing +Y: forward maps to +Y, left maps to -X
	assert.InDelta(t, -1.0, obs.Pose.X, 1e-9)
	assert.InDelta(t, 2.0, obs.Pose.Y, 1e-9)
	assert.InDelta(t, 0.5, obs.Pose.Z, 1e-9)
	assert.InDelta(t, math.Pi, obs.Pose.Yaw, 1e-9)
	assert.Equal(t, obs.Pose, a.Pose())
}

func TestInterpret_Faults(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawFrame)
		tick   uint64
	}{
		{"tick mismatch", func(f *RawFrame) { f.Tick = 4 }, 5},
		{"missing odometry", func(f *RawFrame) { f.Odometry = nil }, 5},
		{"missing battery", func(f *RawFrame) { f.Battery = nil }, 5},
		{"nan odometry", func(f *RawFrame) { f.Odometry.Forward = math.NaN() }, 5},
		{"inf battery", func(f *RawFrame) { f.Battery.ChargeWh = math.Inf(1) }, 5},
		{"depth without channel", func(f *RawFrame) {
			f.Depth = []DepthPoint{{Forward: 1, Quality: 1}}
		}, 5},
		{"quality out of range", func(f *RawFrame) {
			f.HasDepth = true
			f.Depth = []DepthPoint{{Forward: 1, Quality: 1.5}}
		}, 5},
		{"negative cue radius", func(f *RawFrame) {
			f.Cues = []ObstacleCue{{Forward: 1, Radius: -1, Confidence: 0.5}}
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, rover.Pose{X: 3})
			f := frame(5)
			f.Odometry = &Odometry{Forward: 1}
			tt.mutate(&f)

			_, err := a.Interpret(f, tt.tick)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSensorFault))

			var sf *SensorFault
			require.True(t, errors.As(err, &sf))
			assert.Equal(t, tt.tick, sf.Tick)
			assert.NotEmpty(t, sf.Reason)

			assert.Equal(t, rover.Pose{X: 3}, a.Pose(), "pose must not move on a faulty frame")
		})
	}
}

func TestInterpret_DepthlessFrameIsValid(t *testing.T) {
	a := newAdapter(t, rover.Pose{})
	obs, err := a.Interpret(frame(2), 2)
	require.NoError(t, err)
	assert.Empty(t, obs.Patch)
	assert.False(t, obs.Empty)
	require.NotNil(t, obs.Battery)
	assert.Equal(t, 100.0, obs.Battery.ChargeWh)
}

func TestInterpret_ConfidenceFavoursNearAndCentral(t *testing.T) {
	a := newAdapter(t, rover.Pose{})
	f := frame(1)
	f.HasDepth = true
	f.Depth = []DepthPoint{
		{Forward: 2, Lateral: 0, Height: 0.1, Quality: 1},  // near, centred
		{Forward: 6, Lateral: 0, Height: 0.2, Quality: 1},  // far, centred
		{Forward: 2, Lateral: 1.9, Height: 0, Quality: 1},  // near, off-axis
		{Forward: 20, Lateral: 0, Height: 0, Quality: 1},   // beyond max range
		{Forward: -3, Lateral: 0, Height: 0, Quality: 1},   // behind
		{Forward: 0.1, Lateral: 0, Height: 0, Quality: 1},  // below min range
		{Forward: 3, Lateral: 0, Height: 0, Quality: 0.01}, // below min quality
	}

	obs, err := a.Interpret(f, 1)
	require.NoError(t, err)
	require.Len(t, obs.Patch, 3)

	byKey := map[terrain.Key]terrain.Reading{}
	for _, r := range obs.Patch {
		byKey[r.Key] = r
	}
	near := byKey[terrain.Key{Row: 0, Col: 2}]
	far := byKey[terrain.Key{Row: 0, Col: 6}]
	side := byKey[terrain.Key{Row: 2, Col: 2}]

	assert.Greater(t, near.Confidence, far.Confidence)
	assert.Greater(t, near.Confidence, side.Confidence)
	assert.InDelta(t, 0.1, near.Elevation, 1e-9)
	assert.InDelta(t, 1-2.0/8.0, near.Confidence, 1e-9)
}

func TestInterpret_CellAggregation(t *testing.T) {
	a := newAdapter(t, rover.Pose{Z: 1})
	f := frame(1)
	f.HasDepth = true
	f.Depth = []DepthPoint{
		{Forward: 2.1, Height: 0, Quality: 1},
		{Forward: 2.1, Height: 1, Quality: 0.5},
	}

	obs, err := a.Interpret(f, 1)
	require.NoError(t, err)
	require.Len(t, obs.Patch, 1)

	c := 1 - 2.1/8.0
	want := (1*c + 2*0.5*c) / (c + 0.5*c)
	assert.InDelta(t, want, obs.Patch[0].Elevation, 1e-9)
	assert.InDelta(t, c, obs.Patch[0].Confidence, 1e-9)
}

func TestInterpret_CuesCoverFootprint(t *testing.T) {
	a := newAdapter(t, rover.Pose{})
	f := frame(1)
	f.Cues = []ObstacleCue{
		{Forward: 4, Radius: 1, Confidence: 0.7},
		{Forward: 4, Radius: 0, Confidence: 0.9},
	}

	obs, err := a.Interpret(f, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.9, obs.Cues[terrain.Key{Row: 0, Col: 4}])
	assert.Equal(t, 0.7, obs.Cues[terrain.Key{Row: 0, Col: 5}])
	assert.Equal(t, 0.7, obs.Cues[terrain.Key{Row: 1, Col: 4}])
	_, far := obs.Cues[terrain.Key{Row: 0, Col: 7}]
	assert.False(t, far)
}

func TestEmptyObservation(t *testing.T) {
	p := rover.Pose{X: 1, Y: 2}
	obs := EmptyObservation(9, p)
	assert.True(t, obs.Empty)
	assert.Equal(t, uint64(9), obs.Tick)
	assert.Equal(t, p, obs.Pose)
	assert.Empty(t, obs.Patch)
	assert.Contains(t, obs.String(), "empty")
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MinRange = bad.MaxRange
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.CentralFalloff = 1
	assert.Error(t, bad.Validate())
}
