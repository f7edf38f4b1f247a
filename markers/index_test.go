package markers

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIndex_KNearest(t *testing.T) {
	points := []Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 0},
		{X: -10, Y: 0, Z: 0},
		{X: 0, Y: 50, Z: 0},
		{X: 100, Y: 100, Z: 100},
	}
	idx := NewPointIndex(points, 3)
	require.Equal(t, 5, idx.Len())

	got := idx.KNearest(Vec{X: 1}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index)
	assert.InDelta(t, 1.0, got[0].Distance, 1e-9)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, 2, got[2].Index)

	t.Run("ties are ordered by index", func(t *testing.T) {
		got := idx.KNearest(Vec{}, 3)
		require.Len(t, got, 3)
		assert.Equal(t, []int{0, 1, 2}, []int{got[0].Index, got[1].Index, got[2].Index})
	})

	t.Run("k larger than the set", func(t *testing.T) {
		assert.Len(t, idx.KNearest(Vec{}, 10), 5)
	})
}

func TestPointIndex_Within(t *testing.T) {
	idx := NewPointIndex([]Vec{{X: 0}, {X: 400}, {X: 401}}, 3)

	got := idx.Within(Vec{}, 400)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
	assert.InDelta(t, 400.0, got[1].Distance, 1e-9)
}

func TestPointIndex_Planar(t *testing.T) {
	idx := NewPointIndex([]Vec{{X: 0, Y: 0, Z: 1000}, {X: 50, Y: 0, Z: 0}}, 2)

	n, ok := idx.Nearest(Vec{})
	require.True(t, ok)
	assert.Equal(t, 0, n.Index)
	assert.InDelta(t, 0.0, n.Distance, 1e-9)
}

func TestPointIndex_Empty(t *testing.T) {
	idx := NewPointIndex(nil, 3)
	_, ok := idx.Nearest(Vec{})
	assert.False(t, ok)
	assert.Empty(t, idx.KNearest(Vec{}, 3))
	assert.Empty(t, idx.Within(Vec{}, 10))
}

func TestPlanarIndex_Nearest(t *testing.T) {
	idx := NewPlanarIndex([]orb.Point{{0, 0}, {1000, 0}, {0, 1000}})
	require.Equal(t, 3, idx.Len())

	i, dist, ok := idx.Nearest(orb.Point{900, 100})
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.InDelta(t, 141.42, dist, 0.01)

	t.Run("query outside the indexed bound", func(t *testing.T) {
		i, _, ok := idx.Nearest(orb.Point{-5000, 5000})
		require.True(t, ok)
		assert.Equal(t, 2, i)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, ok := NewPlanarIndex(nil).Nearest(orb.Point{})
		assert.False(t, ok)
	})
}
