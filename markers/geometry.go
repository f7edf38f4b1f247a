package markers

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vec is a 3D vector in world units.
type Vec = r3.Vector

// Mat4 is a 4x4 transform stored row-major and applied to column vectors:
// p' = M * p. The translation lives in the last column.
type Mat4 [4][4]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate creates a translation-only transform.
func Translate(t Vec) Mat4 {
	m := Identity()
	m[0][3] = t.X
	m[1][3] = t.Y
	m[2][3] = t.Z
	return m
}

// ScaleMat creates a non-uniform scale transform.
func ScaleMat(s Vec) Mat4 {
	m := Identity()
	m[0][0] = s.X
	m[1][1] = s.Y
	m[2][2] = s.Z
	return m
}

// Mul composes two transforms: applying m.Mul(o) applies o first, then m.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j] + m[i][3]*o[3][j]
		}
	}
	return r
}

// TransformPoint applies the transform to a point (w = 1).
func (m Mat4) TransformPoint(p Vec) Vec {
	return Vec{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// Translation returns the translation component.
func (m Mat4) Translation() Vec {
	return Vec{X: m[0][3], Y: m[1][3], Z: m[2][3]}
}

// Column returns the first three rows of column i. Column 2 is the
// transformed local up axis.
func (m Mat4) Column(i int) Vec {
	return Vec{X: m[0][i], Y: m[1][i], Z: m[2][i]}
}

// ApproxEqual compares two transforms element-wise within eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(m[i][j]-o[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

// Quat is a rotation quaternion with scalar part W.
type Quat struct {
	W, X, Y, Z float64
}

// Matrix converts the quaternion to a rotation transform. A zero
// quaternion yields the identity.
func (q Quat) Matrix() Mat4 {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n < 1e-12 {
		return Identity()
	}
	w, x, y, z := q.W/n, q.X/n, q.Y/n, q.Z/n

	return Mat4{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y), 0},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x), 0},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y), 0},
		{0, 0, 0, 1},
	}
}

// Rotator is an Euler rotation in degrees.
type Rotator struct {
	Roll, Pitch, Yaw float64
}

// Matrix converts the rotator to a rotation transform. Roll turns around X,
// pitch around Y and yaw around Z, applied in that order (Rz * Ry * Rx).
func (r Rotator) Matrix() Mat4 {
	rx := degToRad(r.Roll)
	ry := degToRad(r.Pitch)
	rz := degToRad(r.Yaw)

	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	return Mat4{
		{cz * cy, cz*sy*sx - sz*cx, cz*sy*cx + sz*sx, 0},
		{sz * cy, sz*sy*sx + cz*cx, sz*sy*cx - cz*sx, 0},
		{-sy, cy * sx, cy * cx, 0},
		{0, 0, 0, 1},
	}
}

// LocRotScale builds translation * rotation * scale.
func LocRotScale(loc Vec, rot Mat4, scale Vec) Mat4 {
	return Translate(loc).Mul(rot).Mul(ScaleMat(scale))
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

// TriangleHeight interpolates the height at (x, y) on the plane through the
// three points using barycentric weights. Outside the triangle the first two
// weights are clamped to [0, 1]; a degenerate triangle returns the first
// point's height.
func TriangleHeight(x, y float64, tri [3]Vec) float64 {
	v1, v2, v3 := tri[0], tri[1], tri[2]

	den := (v2.Y-v3.Y)*(v1.X-v3.X) + (v3.X-v2.X)*(v1.Y-v3.Y)
	if den == 0 {
		return v1.Z
	}

	alpha := ((v2.Y-v3.Y)*(x-v3.X) + (v3.X-v2.X)*(y-v3.Y)) / den
	beta := ((v3.Y-v1.Y)*(x-v3.X) + (v1.X-v3.X)*(y-v3.Y)) / den
	gamma := 1 - alpha - beta

	if alpha < 0 || beta < 0 || gamma < 0 {
		alpha = clamp01(alpha)
		beta = clamp01(beta)
		gamma = 1 - alpha - beta
	}

	return alpha*v1.Z + beta*v2.Z + gamma*v3.Z
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Centroid returns the mean of the points.
func Centroid(points []Vec) Vec {
	if len(points) == 0 {
		return Vec{}
	}
	var sum Vec
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

// horizontal drops the Z component.
func horizontal(v Vec) Vec {
	return Vec{X: v.X, Y: v.Y}
}
