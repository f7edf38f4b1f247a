package markers

// ActorGraph follows the actor references declared in action properties
// across all loaded areas.
type ActorGraph struct {
	objects  map[string]*SceneObject
	actions  []string
	maxDepth int
}

// NewActorGraph indexes every object by area:name.
func NewActorGraph(areas []*Area, actions []string, maxDepth int) *ActorGraph {
	g := &ActorGraph{
		objects:  make(map[string]*SceneObject),
		actions:  actions,
		maxDepth: maxDepth,
	}
	for _, a := range areas {
		for _, o := range a.Objects {
			g.objects[o.Key()] = o
		}
	}
	return g
}

// Actors returns the objects o acts on, directly or through the objects it
// triggers, up to the depth bound. References into o's own area are bare
// names, others are area:name keys. Each actor is listed once, in discovery
// order.
func (g *ActorGraph) Actors(o *SceneObject) []string {
	w := &actorWalk{graph: g, area: o.Area, seen: make(map[string]bool)}
	w.visit(o, 0)

	if area, name, ok := relayTarget(o.Properties); ok {
		key := MakeKey(area, name)
		w.addKey(key)
		if relay, ok := g.objects[key]; ok {
			w.visit(relay, 0)
		}
	}
	return w.actors
}

type actorWalk struct {
	graph  *ActorGraph
	area   string
	seen   map[string]bool
	actors []string
}

func (w *actorWalk) add(actor string) {
	if w.seen[actor] {
		return
	}
	w.seen[actor] = true
	w.actors = append(w.actors, actor)
}

// addKey adds an area:name key, shortened to the bare name inside the
// walk's own area.
func (w *actorWalk) addKey(key string) {
	if area, name := SplitKey(key); area == w.area {
		w.add(name)
		return
	}
	w.add(key)
}

func (w *actorWalk) visit(o *SceneObject, depth int) {
	for _, action := range w.graph.actions {
		// ActionsOnOpen holds keyed objects of references.
		for _, ref := range o.Properties.Refs(action, action == "ActionsOnOpen") {
			if ref.OuterLevel == "" {
				continue
			}
			key := MakeKey(ref.OuterLevel, ref.ObjectName)
			w.addKey(key)
			next, ok := w.graph.objects[key]
			if ok && depth < w.graph.maxDepth {
				w.visit(next, depth+1)
			}
		}
	}
}

// relayTarget reads the relay an object propagates to in another area.
func relayTarget(p Properties) (string, string, bool) {
	switch v := p["PropogateToRelaysInOtherMaps"].(type) {
	case map[string]any:
		return Properties{"relay": v}.SoftRef("relay")
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				if area, name, ok := (Properties{"relay": m}).SoftRef("relay"); ok {
					return area, name, true
				}
			}
		}
	}
	return "", "", false
}
