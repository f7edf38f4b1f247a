package markers

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Neighbor is one result of a nearest-neighbor query: the index of the point
// in the slice the index was built from, and its Euclidean distance.
type Neighbor struct {
	Index    int
	Distance float64
}

// PointIndex answers nearest-neighbor queries over a fixed point set.
// With dims == 2 only X and Y take part in distances.
type PointIndex struct {
	tree   *kdtree.Tree
	points []Vec
	dims   int
}

// NewPointIndex builds a k-d tree over points. dims must be 2 or 3.
func NewPointIndex(points []Vec, dims int) *PointIndex {
	if dims != 2 {
		dims = 3
	}
	idx := &PointIndex{points: points, dims: dims}
	if len(points) == 0 {
		return idx
	}
	pts := make(indexedPoints, len(points))
	for i, p := range points {
		pts[i] = indexedPoint{coords: coordsOf(p, dims), index: i}
	}
	idx.tree = kdtree.New(pts, false)
	return idx
}

// Len returns the number of indexed points.
func (x *PointIndex) Len() int {
	return len(x.points)
}

// Point returns the i-th indexed point.
func (x *PointIndex) Point(i int) Vec {
	return x.points[i]
}

// Nearest returns the closest point to q.
func (x *PointIndex) Nearest(q Vec) (Neighbor, bool) {
	n := x.KNearest(q, 1)
	if len(n) == 0 {
		return Neighbor{}, false
	}
	return n[0], true
}

// KNearest returns up to k points closest to q ordered by distance, then by
// index so that equidistant points come back in a stable order.
func (x *PointIndex) KNearest(q Vec, k int) []Neighbor {
	if x.tree == nil || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	x.tree.NearestSet(keep, indexedPoint{coords: coordsOf(q, x.dims), index: -1})
	return neighbors(keep.Heap)
}

// Within returns every point whose distance to q is at most r, ordered like
// KNearest.
func (x *PointIndex) Within(q Vec, r float64) []Neighbor {
	if x.tree == nil || r < 0 {
		return nil
	}
	// Squared distances; nudge so that points exactly at r are kept.
	keep := kdtree.NewDistKeeper(math.Nextafter(r*r, math.Inf(1)))
	x.tree.NearestSet(keep, indexedPoint{coords: coordsOf(q, x.dims), index: -1})
	return neighbors(keep.Heap)
}

func neighbors(heap kdtree.Heap) []Neighbor {
	out := make([]Neighbor, 0, len(heap))
	for _, c := range heap {
		p, ok := c.Comparable.(indexedPoint)
		if !ok {
			continue
		}
		out = append(out, Neighbor{Index: p.index, Distance: math.Sqrt(c.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func coordsOf(p Vec, dims int) [3]float64 {
	if dims == 2 {
		return [3]float64{p.X, p.Y, 0}
	}
	return [3]float64{p.X, p.Y, p.Z}
}

// indexedPoint is a kdtree.Comparable that remembers its input position,
// since building the tree reorders the backing slice.
type indexedPoint struct {
	coords [3]float64
	index  int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int { return 3 }

// Distance is the squared Euclidean distance, as the kdtree keepers expect.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	var sum float64
	for i := range p.coords {
		d := p.coords[i] - q.coords[i]
		sum += d * d
	}
	return sum
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return indexedPlane{points: p, dim: d}.Pivot()
}

type indexedPlane struct {
	points indexedPoints
	dim    kdtree.Dim
}

func (p indexedPlane) Less(i, j int) bool {
	return p.points[i].coords[p.dim] < p.points[j].coords[p.dim]
}
func (p indexedPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p indexedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p indexedPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p indexedPlane) Len() int { return len(p.points) }

// PlanarIndex answers 2D nearest-neighbor queries on map coordinates.
type PlanarIndex struct {
	tree   *quadtree.Quadtree
	points []orb.Point
}

type planarEntry struct {
	p     orb.Point
	index int
}

func (e planarEntry) Point() orb.Point { return e.p }

// NewPlanarIndex builds a quadtree over points.
func NewPlanarIndex(points []orb.Point) *PlanarIndex {
	idx := &PlanarIndex{points: points}
	if len(points) == 0 {
		return idx
	}
	bound := orb.MultiPoint(points).Bound().Pad(1)
	idx.tree = quadtree.New(bound)
	for i, p := range points {
		// Points are inside the padded bound, so Add cannot fail.
		_ = idx.tree.Add(planarEntry{p: p, index: i})
	}
	return idx
}

// Len returns the number of indexed points.
func (x *PlanarIndex) Len() int {
	return len(x.points)
}

// Nearest returns the index of the point closest to q and its distance.
func (x *PlanarIndex) Nearest(q orb.Point) (int, float64, bool) {
	if x.tree == nil {
		return 0, 0, false
	}
	found := x.tree.Find(q)
	if found == nil {
		return 0, 0, false
	}
	e := found.(planarEntry)
	return e.index, planar.Distance(q, e.p), true
}
