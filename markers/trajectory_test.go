package markers

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func flatGrid(z float64) []Vec {
	var pts []Vec
	for x := -1000.0; x <= 1000; x += 250 {
		for y := -1000.0; y <= 1000; y += 250 {
			pts = append(pts, Vec{X: x, Y: y, Z: z})
		}
	}
	return pts
}

func TestSimulate_StraightUpOnFlatTerrain(t *testing.T) {
	params := DefaultConfig().Trajectory

	for name, terrain := range map[string]HeightField{
		"flat":    FlatTerrain(0),
		"sampled": NewTerrain(flatGrid(0)),
	} {
		t.Run(name, func(t *testing.T) {
			land := Simulate(Vec{}, Vec{Z: 1000}, terrain, params)
			assert.InDelta(t, 0, math.Hypot(land.X, land.Y), 1e-9)
			// one step falls at most |vz|*dt, roughly 10 units
			assert.InDelta(t, 0, land.Z, 10)
			assert.Less(t, land.Z, 0.0)
		})
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	params := DefaultConfig().Trajectory
	terrain := NewTerrain(append(flatGrid(0), Vec{X: 500, Y: 0, Z: 200}))
	start := Vec{X: 10, Y: 20, Z: 30}
	vel := Vec{X: 300, Y: -150, Z: 900}

	first := Simulate(start, vel, terrain, params)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Simulate(start, vel, terrain, params))
	}
}

func TestSimulate_TimeCap(t *testing.T) {
	params := DefaultConfig().Trajectory
	land := Simulate(Vec{}, Vec{X: 100}, FlatTerrain(math.Inf(-1)), params)
	// 20s at 100 units/s
	assert.InDelta(t, 2000, land.X, 1e-6)
}

func TestSimulate_NoTerrainBelow(t *testing.T) {
	params := DefaultConfig().Trajectory
	params.MaxTime = 1
	land := Simulate(Vec{}, Vec{X: 100}, NewTerrain(nil), params)
	assert.InDelta(t, 100, land.X, 1e-6)
}

func TestSimulate_LandsOnRaisedTerrain(t *testing.T) {
	params := DefaultConfig().Trajectory
	land := Simulate(Vec{}, Vec{X: 400, Z: 1000}, FlatTerrain(300), params)
	assert.Greater(t, land.X, 0.0)
	assert.InDelta(t, 300, land.Z, 10)
}

func TestTerrain_Height(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := NewTerrain(nil).Height(Vec{})
		assert.False(t, ok)
	})

	t.Run("fewer than three samples", func(t *testing.T) {
		h, ok := NewTerrain([]Vec{{X: 0, Y: 0, Z: 42}, {X: 1000, Y: 0, Z: 7}}).Height(Vec{X: 10})
		require.True(t, ok)
		assert.Equal(t, 42.0, h)
	})

	t.Run("interpolates between samples", func(t *testing.T) {
		tr := NewTerrain([]Vec{{X: 0, Y: 0, Z: 0}, {X: 100, Y: 0, Z: 100}, {X: 0, Y: 100, Z: 0}})
		h, ok := tr.Height(Vec{X: 50, Y: 10})
		require.True(t, ok)
		assert.InDelta(t, 50, h, 1e-9)
	})
}

func TestTerrainPoints(t *testing.T) {
	cfg := DefaultConfig().Terrain
	ms := []*Marker{
		marker("Map", "c1", "Coin_C", 0, 0, 0),
		marker("Map", "lots", "LotsOfCoins10_C", 0, 0, 0),
		marker("Map", "ball", "MetalBall_C", 0, 0, 0),
		marker("Map", "chest", "Chest_C", 1, 2, 3),
	}
	assert.Equal(t, []Vec{{X: 1, Y: 2, Z: 3}}, TerrainPoints(ms, cfg))
}

func TestLaunchVelocity(t *testing.T) {
	t.Run("direction with default velocity", func(t *testing.T) {
		m := &Marker{Direction: &XYZ{X: 0.6, Y: 0, Z: 0.8}}
		assertVec(t, Vec{X: -600, Z: 800}, LaunchVelocity(m, 1000))
	})

	t.Run("relative velocity", func(t *testing.T) {
		v := 500.0
		m := &Marker{Direction: &XYZ{Y: 0.6, Z: 0.8}, RelativeVelocity: &v}
		assertVec(t, Vec{Y: -300, Z: 400}, LaunchVelocity(m, 1000))
	})

	t.Run("stomp override", func(t *testing.T) {
		m := &Marker{Direction: &XYZ{Z: 1}, Velocity: &XYZ{X: 1, Y: 2, Z: 3}, AllowStomp: boolPtr(true)}
		assertVec(t, Vec{X: 1, Y: 2, Z: 3}, LaunchVelocity(m, 1000))
	})

	t.Run("velocity without stomp is ignored", func(t *testing.T) {
		m := &Marker{Direction: &XYZ{Z: 1}, Velocity: &XYZ{X: 1, Y: 2, Z: 3}}
		assertVec(t, Vec{Z: 1000}, LaunchVelocity(m, 1000))
	})
}

func TestCalculatePadTargets(t *testing.T) {
	cfg := DefaultConfig()
	set := NewMarkerSet()
	for i, p := range flatGrid(0) {
		set.Add(marker("Map", fmt.Sprintf("Chest%d", i), "Chest_C", p.X, p.Y, p.Z))
	}
	pad := marker("Map", "Jumppad1", "Jumppad_C", 0, 0, 0)
	pad.Direction = &XYZ{Z: 1}
	pad.Target = &XYZ{}
	set.Add(pad)
	set.Add(marker("Map", "Coin1", "Coin_C", 0, 0, 5000))

	n := CalculatePadTargets(set, cfg, zaptest.NewLogger(t))
	assert.Equal(t, 1, n)
	require.NotNil(t, pad.Target)
	assert.InDelta(t, 0, pad.Target.X, 1e-9)
	assert.InDelta(t, 0, pad.Target.Y, 1e-9)
	assert.InDelta(t, 0, pad.Target.Z, 10)
}
