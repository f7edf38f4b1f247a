package markers

import (
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// HeightField returns the terrain height below a point.
type HeightField interface {
	Height(p Vec) (float64, bool)
}

// Terrain is a height field sampled from marker positions. The height at a
// point is interpolated on the triangle of its three nearest samples.
type Terrain struct {
	index *PointIndex
}

// NewTerrain indexes the sample points.
func NewTerrain(points []Vec) *Terrain {
	return &Terrain{index: NewPointIndex(points, 3)}
}

// Len returns the number of samples.
func (t *Terrain) Len() int {
	return t.index.Len()
}

// Height implements HeightField. With fewer than three samples the nearest
// sample's height is used.
func (t *Terrain) Height(p Vec) (float64, bool) {
	near := t.index.KNearest(p, 3)
	switch len(near) {
	case 0:
		return 0, false
	case 1, 2:
		return t.index.Point(near[0].Index).Z, true
	}
	tri := [3]Vec{
		t.index.Point(near[0].Index),
		t.index.Point(near[1].Index),
		t.index.Point(near[2].Index),
	}
	return TriangleHeight(p.X, p.Y, tri), true
}

// FlatTerrain is a constant-height field.
type FlatTerrain float64

// Height implements HeightField.
func (f FlatTerrain) Height(Vec) (float64, bool) {
	return float64(f), true
}

// TerrainPoints returns the positions of markers that describe the walkable
// surface. Coins and movable objects would distort it and are excluded.
func TerrainPoints(markers []*Marker, cfg TerrainConfig) []Vec {
	points := make([]Vec, 0, len(markers))
	for _, m := range markers {
		if excludedFromTerrain(m.Type, cfg) {
			continue
		}
		points = append(points, m.Position())
	}
	return points
}

func excludedFromTerrain(typ string, cfg TerrainConfig) bool {
	if slices.Contains(cfg.ExcludeTypes, typ) {
		return true
	}
	for _, prefix := range cfg.ExcludePrefixes {
		if strings.HasPrefix(typ, prefix) {
			return true
		}
	}
	return false
}

// Simulate integrates a launch from start with velocity vel and returns the
// landing point. The vertical velocity drops by gravity*mass*timeStep every
// step while the horizontal velocity stays constant. The flight ends once
// the path flown is longer than minTravel and the descending trajectory has
// dropped below the terrain; otherwise the position after maxTime is
// returned.
func Simulate(start, vel Vec, terrain HeightField, params TrajectoryConfig) Vec {
	dt := params.TimeStep
	steps := int(math.Round(params.MaxTime / dt))
	decrement := params.Gravity * params.Mass * dt

	pos := start
	v := vel
	lastZ := start.Z
	travelled := 0.0
	for i := 0; i < steps; i++ {
		v.Z -= decrement
		step := v.Mul(dt)
		pos = pos.Add(step)
		// path length, not displacement: a pad launched straight up lands near its start
		travelled += step.Norm()

		h, ok := terrain.Height(pos)
		if ok && travelled > params.MinTravel && lastZ > pos.Z && h > pos.Z {
			break
		}
		lastZ = pos.Z
	}
	return pos
}

// LaunchVelocity returns the launch velocity of a jump pad. The pad direction
// is scaled by its relative velocity with the horizontal components flipped;
// pads that allow stomping with an explicit velocity use it as is.
func LaunchVelocity(m *Marker, defaultVelocity float64) Vec {
	if m.Velocity != nil && m.AllowStomp != nil && *m.AllowStomp {
		return m.Velocity.Vec()
	}
	k := defaultVelocity
	if m.RelativeVelocity != nil {
		k = *m.RelativeVelocity
	}
	var d Vec
	if m.Direction != nil {
		d = m.Direction.Vec()
	}
	return Vec{X: -d.X * k, Y: -d.Y * k, Z: d.Z * k}
}

// CalculatePadTargets sets the landing target of every jump pad, using a
// terrain sampled from all markers of the set. It returns the number of pads
// updated.
func CalculatePadTargets(set *MarkerSet, cfg *Config, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}
	terrain := NewTerrain(TerrainPoints(set.All(), cfg.Terrain))
	log.Info("collected terrain points", zap.Int("points", terrain.Len()))
	if terrain.Len() == 0 {
		return 0
	}

	count := 0
	for _, m := range set.All() {
		if !slices.Contains(cfg.Trajectory.PadTypes, m.Type) {
			continue
		}
		vel := LaunchVelocity(m, cfg.Trajectory.DefaultVelocity)
		target := Simulate(m.Position(), vel, terrain, cfg.Trajectory)
		m.Target = NewXYZ(target)
		count++
		log.Debug("pad target",
			zap.String("pad", m.Key()),
			zap.Float64("x", target.X),
			zap.Float64("y", target.Y),
			zap.Float64("z", target.Z))
	}
	log.Info("calculated pad targets", zap.Int("pads", count))
	return count
}
