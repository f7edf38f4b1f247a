package markers

import (
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// pipeSystemPrefix selects the objects that declare pipe partners.
const pipeSystemPrefix = "Pipesystem"

func defaultPropertyNames() []string {
	return []string{
		"IsInShop", "canBePickedUp", "PriceType",
		"Coins", "CoinsInGold", "Cost", "Value",
		"HitsToBreak", "bObsidian", "HitsTaken", "BrickType",
		"AllowEnemyProjectiles", "RequiresPurpleShot?", "ButtonType", "Shape",
		"Color", "OriginalColor",
		"RelativeVelocity", "AllowStomp", "DisableMovementInAir", "RelativeVelocity?",
		"Achievement?", "Achievement Name",
		"Variant",
	}
}

type propertySetter func(m *Marker, v any)

// propertySetters maps exported field names to the marker field they fill.
var propertySetters = map[string]propertySetter{
	"is_in_shop":                func(m *Marker, v any) { m.IsInShop = boolValue(v) },
	"can_be_picked_up":          func(m *Marker, v any) { m.CanBePickedUp = boolValue(v) },
	"price_type":                func(m *Marker, v any) { m.PriceType = intValue(v) },
	"coins":                     func(m *Marker, v any) { m.Coins = intValue(v) },
	"coins_in_gold":             func(m *Marker, v any) { m.CoinsInGold = boolValue(v) },
	"cost":                      func(m *Marker, v any) { m.Cost = intValue(v) },
	"value":                     func(m *Marker, v any) { m.Value = intValue(v) },
	"hits_to_break":             func(m *Marker, v any) { m.HitsToBreak = intValue(v) },
	"is_obsidian":               func(m *Marker, v any) { m.IsObsidian = boolValue(v) },
	"hits_taken":                func(m *Marker, v any) { m.HitsTaken = intValue(v) },
	"brick_type":                func(m *Marker, v any) { m.BrickType = intValue(v) },
	"allow_enemy_projectiles":   func(m *Marker, v any) { m.AllowEnemyProjectiles = boolValue(v) },
	"requires_purple_shot_flag": func(m *Marker, v any) { m.RequiresPurpleShotFlag = boolValue(v) },
	"button_type":               func(m *Marker, v any) { m.ButtonType = intValue(v) },
	"shape":                     func(m *Marker, v any) { m.Shape = intValue(v) },
	"color":                     func(m *Marker, v any) { m.Color = intValue(v) },
	"original_color":            func(m *Marker, v any) { m.OriginalColor = intValue(v) },
	"relative_velocity":         func(m *Marker, v any) { m.RelativeVelocity = floatValue(v) },
	"allow_stomp":               func(m *Marker, v any) { m.AllowStomp = boolValue(v) },
	"disable_movement_in_air":   func(m *Marker, v any) { m.DisableMovementInAir = boolValue(v) },
	"relative_velocity_flag":    func(m *Marker, v any) { m.RelativeVelocityFlag = boolValue(v) },
	"achievement_flag":          func(m *Marker, v any) { m.AchievementFlag = boolValue(v) },
	"achievement_name": func(m *Marker, v any) {
		if s, ok := v.(string); ok {
			m.AchievementName = s
		}
	},
	"variant": func(m *Marker, v any) { m.Variant = intValue(v) },
}

func intValue(v any) *int {
	n, ok := toNumber(v)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

func floatValue(v any) *float64 {
	n, ok := toNumber(v)
	if !ok {
		return nil
	}
	return &n
}

func boolValue(v any) *bool {
	b, ok := toBool(v)
	if !ok {
		return nil
	}
	return &b
}

// Classifier turns scene objects into markers: it filters by the type
// allow-list, corrects types, resolves world positions and extracts the
// exported properties and references.
type Classifier struct {
	cfg       *Config
	overrides []TypeOverride
	resolver  *Resolver
	actors    *ActorGraph
	pipes     map[string]string
	log       *zap.Logger

	unknownProps map[string]bool
}

// NewClassifier prepares the indexes needed to classify objects of areas.
func NewClassifier(cfg *Config, game GameConfig, areas []*Area, placements map[string]Mat4, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		cfg:          cfg,
		overrides:    cfg.TypeOverrides(game),
		resolver:     NewResolver(areas, placements, cfg.ParentLinks, cfg.MaxParentDepth, log),
		actors:       NewActorGraph(areas, cfg.Actions, cfg.MaxActorDepth),
		pipes:        CollectPipeLinks(areas, pipeSystemPrefix),
		log:          log,
		unknownProps: make(map[string]bool),
	}
}

// Allowed reports whether an object type is exported as a marker.
func (c *Classifier) Allowed(o *SceneObject) bool {
	f := c.cfg.Markers
	nameOK := len(f.Names) == 0 || slices.Contains(f.Names, o.Name)
	typeOK := len(f.Types) == 0 || slices.Contains(f.Types, o.Type)
	if nameOK && typeOK {
		return true
	}
	for _, s := range f.StartsWith {
		if strings.HasPrefix(o.Type, s) {
			return true
		}
	}
	for _, s := range f.EndsWith {
		if strings.HasSuffix(o.Type, s) {
			return true
		}
	}
	return false
}

// CorrectType returns the corrected type of o according to the overrides.
func (c *Classifier) CorrectType(o *SceneObject) string {
	for _, ov := range c.overrides {
		if ov.matches(o) {
			return ov.To
		}
	}
	return o.Type
}

func (ov TypeOverride) matches(o *SceneObject) bool {
	if ov.To == "" || (ov.Type == "" && ov.Mesh == "" && len(ov.Names) == 0) {
		return false
	}
	if ov.Type != "" && ov.Type != o.Type {
		return false
	}
	if ov.Mesh != "" {
		mesh, ok := o.Properties.Ref("Mesh?")
		if !ok || mesh.ObjectName != ov.Mesh {
			return false
		}
	}
	if len(ov.Names) > 0 && !slices.Contains(ov.Names, o.Name) {
		return false
	}
	return true
}

// Classify builds the marker set of all areas in order.
func (c *Classifier) Classify(areas []*Area) *MarkerSet {
	set := NewMarkerSet()
	cycles := 0
	for _, a := range areas {
		for _, o := range a.Objects {
			if !c.Allowed(o) {
				continue
			}
			m, err := c.Marker(o)
			if errors.Is(err, ErrTransformCycle) {
				cycles++
				c.log.Warn("partial transform", zap.String("object", o.Key()), zap.Error(err))
			}
			set.Add(m)
		}
	}
	c.log.Info("collected markers", zap.Int("markers", set.Len()), zap.Int("partialTransforms", cycles))
	return set
}

// Marker builds the marker of one object. A transform cycle still yields a
// marker at the partially resolved position, returned alongside the error.
func (c *Classifier) Marker(o *SceneObject) (*Marker, error) {
	resolved, err := c.resolver.Resolve(o)

	m := &Marker{
		Name: o.Name,
		Type: c.CorrectType(o),
		Area: o.Area,
	}
	m.SetPosition(resolved.Position())

	p := o.Properties
	for _, name := range c.cfg.Properties {
		v, ok := p[name]
		if !ok || v == nil {
			continue
		}
		field := snakeCase(name)
		set, ok := propertySetters[field]
		if !ok {
			if !c.unknownProps[field] {
				c.unknownProps[field] = true
				c.log.Debug("no marker field for property", zap.String("property", name))
			}
			continue
		}
		set(m, v)
	}

	if ref, ok := p.Ref("Spawnthing"); ok {
		m.Spawns = ref.ObjectName
	}
	if ref, ok := p.Ref("Class"); ok {
		m.Spawns = ref.ObjectName
	}
	m.OtherPipe = c.pipes[o.Key()]
	if color := p.Map("CustomColor"); color != nil {
		m.CustomColor = colorHex(color)
	}
	m.Actors = c.actors.Actors(o)

	if prop := c.cfg.Cluster.RotatingProperty; prop != "" {
		if b, ok := toBool(p[prop]); ok {
			m.Rotating = b
		}
	}

	if slices.Contains(c.cfg.Trajectory.PadTypes, m.Type) {
		if v, ok := p.Vector("Velocity"); ok {
			m.Velocity = NewXYZ(v)
		}
		m.Direction = NewXYZ(resolved.Up())
		m.Target = NewXYZ(Vec{})
	}
	return m, err
}
