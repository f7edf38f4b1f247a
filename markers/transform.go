package markers

import (
	"fmt"

	"go.uber.org/zap"
)

// Resolved is the outcome of a world transform walk.
type Resolved struct {
	Matrix Mat4
	// Depth is the number of parent links followed.
	Depth int
}

// Position returns the world-space translation.
func (r Resolved) Position() Vec {
	return r.Matrix.Translation()
}

// Up returns the normalized transformed local up axis.
func (r Resolved) Up() Vec {
	up := r.Matrix.Column(2)
	if up.Norm() == 0 {
		return up
	}
	return up.Normalize()
}

// Resolver computes world transforms by walking the parent references of
// scene objects. Reference indexes are built once per area.
type Resolver struct {
	refs        map[string]map[string]*SceneObject
	placements  map[string]Mat4
	parentLinks []string
	maxDepth    int
	log         *zap.Logger
}

// NewResolver indexes every object of every area by its reference keys
// (name:outer and name:type:outer).
func NewResolver(areas []*Area, placements map[string]Mat4, parentLinks []string, maxDepth int, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if maxDepth <= 0 {
		maxDepth = 64
	}
	r := &Resolver{
		refs:        make(map[string]map[string]*SceneObject, len(areas)),
		placements:  placements,
		parentLinks: parentLinks,
		maxDepth:    maxDepth,
		log:         log,
	}
	for _, a := range areas {
		idx := r.refs[a.Name]
		if idx == nil {
			idx = make(map[string]*SceneObject, len(a.Objects))
			r.refs[a.Name] = idx
		}
		for _, o := range a.Objects {
			if o.Outer == "" {
				continue
			}
			idx[o.Name+":"+o.Type+":"+o.Outer] = o
			idx[o.Name+":"+o.Outer] = o
		}
	}
	return r
}

// Resolve returns the world transform of o. Local transforms are composed
// child first up the parent chain; the area placement is applied last. When
// the chain revisits an object or exceeds the depth bound, the transform
// accumulated so far is returned together with ErrTransformCycle.
func (r *Resolver) Resolve(o *SceneObject) (Resolved, error) {
	acc := Identity()
	visited := make(map[*SceneObject]bool)
	depth := 0
	var err error

	for cur := o; ; {
		visited[cur] = true
		if local, ok := localTransform(cur.Properties); ok {
			acc = local.Mul(acc)
		}

		parent := r.parent(cur)
		if parent == nil {
			break
		}
		if visited[parent] || depth >= r.maxDepth {
			err = fmt.Errorf("%w: %s stopped at %s after %d links", ErrTransformCycle, o.Key(), cur.Name, depth)
			break
		}
		cur = parent
		depth++
	}

	if placement, ok := r.placements[o.Area]; ok {
		acc = placement.Mul(acc)
	}
	return Resolved{Matrix: acc, Depth: depth}, err
}

// parent returns the first parent link of o that resolves within its area.
func (r *Resolver) parent(o *SceneObject) *SceneObject {
	idx := r.refs[o.Area]
	if idx == nil {
		return nil
	}
	for _, link := range r.parentLinks {
		ref, ok := o.Properties.Ref(link)
		if !ok || ref.OuterName == "" {
			continue
		}
		if p, ok := idx[ref.ObjectName+":"+ref.OuterName]; ok {
			return p
		}
	}
	return nil
}

// localTransform reads RelativeLocation/RelativeRotation/RelativeScale3D.
// Objects without a relative location contribute nothing.
func localTransform(p Properties) (Mat4, bool) {
	loc, ok := p.Vector("RelativeLocation")
	if !ok {
		return Mat4{}, false
	}
	rot, _ := p.Rotator("RelativeRotation")
	scale, ok := p.Vector("RelativeScale3D")
	if !ok {
		scale = Vec{X: 1, Y: 1, Z: 1}
	}
	return LocRotScale(loc, rot.Matrix(), scale), true
}

// placementOf reads a level-instance placement from an object embedding
// another area: WorldAsset names the area, LevelTransform places it.
func placementOf(o *SceneObject) (string, Mat4, bool) {
	world := o.Properties.Map("WorldAsset")
	asset, _ := world.String("AssetPathName")
	if asset == "" {
		return "", Mat4{}, false
	}
	t := o.Properties.Map("LevelTransform")
	if t == nil {
		return "", Mat4{}, false
	}
	translation, _ := t.Vector("Translation")
	rotation, _ := t.Quat("Rotation")
	return lastSegment(asset), Translate(translation).Mul(rotation.Matrix()), true
}

// DiscoverPlacements collects the area placements declared in all areas.
// The first placement of an area wins; later conflicting ones are logged.
func DiscoverPlacements(areas []*Area, log *zap.Logger) map[string]Mat4 {
	if log == nil {
		log = zap.NewNop()
	}
	placements := make(map[string]Mat4)
	for _, a := range areas {
		for _, o := range a.Objects {
			name, m, ok := placementOf(o)
			if !ok {
				continue
			}
			if prev, exists := placements[name]; exists {
				if !prev.ApproxEqual(m, 1e-6) {
					log.Warn("ignoring conflicting area placement",
						zap.String("area", name),
						zap.String("object", o.Key()))
				}
				continue
			}
			placements[name] = m
		}
	}
	log.Info("discovered area placements", zap.Int("count", len(placements)))
	return placements
}
