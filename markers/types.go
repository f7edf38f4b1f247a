package markers

import (
	"encoding/json"
	"strings"
)

// SceneObject is one decoded object record from an area dump.
type SceneObject struct {
	Type       string     `json:"Type"`
	Name       string     `json:"Name"`
	Outer      string     `json:"Outer,omitempty"`
	Properties Properties `json:"Properties,omitempty"`

	// Area is not part of the dump; it is filled in by the loader.
	Area string `json:"-"`
}

// Key returns the area-scoped identity of the object.
func (o *SceneObject) Key() string {
	return MakeKey(o.Area, o.Name)
}

// Area is the full object set of one level.
type Area struct {
	Name    string
	Objects []*SceneObject
}

// MakeKey joins an area and a name into the identity key used throughout.
func MakeKey(area, name string) string {
	return area + ":" + name
}

// SplitKey splits a key produced by MakeKey. Keys without an area
// separator are returned with an empty area.
func SplitKey(key string) (area, name string) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

// XYZ is the serialized form of a 3D vector in marker output.
type XYZ struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewXYZ converts a vector to its serialized form.
func NewXYZ(v Vec) *XYZ {
	return &XYZ{X: v.X, Y: v.Y, Z: v.Z}
}

// Vec converts back to a vector.
func (p XYZ) Vec() Vec {
	return Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Marker is the enriched output record for one point of interest.
// Position uses the map convention: Lat is world Y, Lng is world X and
// Alt is world Z.
type Marker struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Area string  `json:"area"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Alt  float64 `json:"alt"`

	IsInShop               *bool    `json:"is_in_shop,omitempty"`
	CanBePickedUp          *bool    `json:"can_be_picked_up,omitempty"`
	PriceType              *int     `json:"price_type,omitempty"`
	Coins                  *int     `json:"coins,omitempty"`
	CoinsInGold            *bool    `json:"coins_in_gold,omitempty"`
	Cost                   *int     `json:"cost,omitempty"`
	Value                  *int     `json:"value,omitempty"`
	HitsToBreak            *int     `json:"hits_to_break,omitempty"`
	IsObsidian             *bool    `json:"is_obsidian,omitempty"`
	HitsTaken              *int     `json:"hits_taken,omitempty"`
	BrickType              *int     `json:"brick_type,omitempty"`
	AllowEnemyProjectiles  *bool    `json:"allow_enemy_projectiles,omitempty"`
	RequiresPurpleShotFlag *bool    `json:"requires_purple_shot_flag,omitempty"`
	ButtonType             *int     `json:"button_type,omitempty"`
	Shape                  *int     `json:"shape,omitempty"`
	Color                  *int     `json:"color,omitempty"`
	OriginalColor          *int     `json:"original_color,omitempty"`
	RelativeVelocity       *float64 `json:"relative_velocity,omitempty"`
	AllowStomp             *bool    `json:"allow_stomp,omitempty"`
	DisableMovementInAir   *bool    `json:"disable_movement_in_air,omitempty"`
	RelativeVelocityFlag   *bool    `json:"relative_velocity_flag,omitempty"`
	AchievementFlag        *bool    `json:"achievement_flag,omitempty"`
	AchievementName        string   `json:"achievement_name,omitempty"`
	Variant                *int     `json:"variant,omitempty"`

	Spawns      string   `json:"spawns,omitempty"`
	CustomColor string   `json:"custom_color,omitempty"`
	Actors      []string `json:"actors,omitempty"`

	OtherPipe  string `json:"other_pipe,omitempty"`
	NearestCap string `json:"nearest_cap,omitempty"`

	Velocity  *XYZ   `json:"velocity,omitempty"`
	Direction *XYZ   `json:"direction,omitempty"`
	Target    *XYZ   `json:"target,omitempty"`
	Twoway    int    `json:"twoway,omitempty"`
	OtherPad  string `json:"other_pad,omitempty"`

	OldCoins map[string]int `json:"old_coins,omitempty"`

	YtVideo string `json:"yt_video,omitempty"`
	YtStart string `json:"yt_start,omitempty"`
	Image   string `json:"image,omitempty"`

	// Rotating marks collectibles that spin in place; they never cluster.
	Rotating bool `json:"-"`
}

// Key returns the identity key area:name.
func (m *Marker) Key() string {
	return MakeKey(m.Area, m.Name)
}

// Position returns the world-space position (X, Y, Z).
func (m *Marker) Position() Vec {
	return Vec{X: m.Lng, Y: m.Lat, Z: m.Alt}
}

// SetPosition stores a world-space position using the map axis convention.
func (m *Marker) SetPosition(p Vec) {
	m.Lat = p.Y
	m.Lng = p.X
	m.Alt = p.Z
}

// CoinValue is the number of coins the marker is worth when aggregated.
func (m *Marker) CoinValue() int {
	switch {
	case m.Coins != nil:
		return *m.Coins
	case m.Value != nil:
		return *m.Value
	default:
		return 1
	}
}

// MarkerSet is the ordered marker collection with a by-key index.
type MarkerSet struct {
	items []*Marker
	byKey map[string]*Marker
}

// NewMarkerSet creates a set holding the given markers in order.
func NewMarkerSet(ms ...*Marker) *MarkerSet {
	s := &MarkerSet{byKey: make(map[string]*Marker, len(ms))}
	for _, m := range ms {
		s.Add(m)
	}
	return s
}

// Add appends a marker. A marker whose key is already present replaces the
// index entry but both records stay in the ordered list, mirroring dumps
// that carry duplicate names.
func (s *MarkerSet) Add(m *Marker) {
	s.items = append(s.items, m)
	s.byKey[m.Key()] = m
}

// Get returns the marker with the given key, or nil.
func (s *MarkerSet) Get(key string) *Marker {
	return s.byKey[key]
}

// Len returns the number of markers.
func (s *MarkerSet) Len() int {
	return len(s.items)
}

// All returns the markers in insertion order. The slice must not be modified.
func (s *MarkerSet) All() []*Marker {
	return s.items
}

// Filter returns the markers for which keep returns true, in order.
func (s *MarkerSet) Filter(keep func(*Marker) bool) []*Marker {
	var out []*Marker
	for _, m := range s.items {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Remove deletes the given markers from the set, preserving order.
func (s *MarkerSet) Remove(remove []*Marker) {
	if len(remove) == 0 {
		return
	}
	drop := make(map[*Marker]bool, len(remove))
	for _, m := range remove {
		drop[m] = true
	}
	kept := s.items[:0]
	for _, m := range s.items {
		if drop[m] {
			if s.byKey[m.Key()] == m {
				delete(s.byKey, m.Key())
			}
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
}

// MarshalJSON writes the set as a plain array.
func (s *MarkerSet) MarshalJSON() ([]byte, error) {
	if s == nil || s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// ClassInfo is the class-table metadata for one object type.
type ClassInfo struct {
	Friendly  string   `json:"friendly,omitempty"`
	Icon      string   `json:"icon,omitempty"`
	Layer     string   `json:"layer,omitempty"`
	Nospoiler string   `json:"nospoiler,omitempty"`
	Lines     string   `json:"lines,omitempty"`
	LocKeys   []string `json:"loc,omitempty"`
}

// ClassTable maps an object type to its class metadata.
type ClassTable map[string]ClassInfo

// InLayer reports whether the type is shown on any of the given layers,
// either directly or through its no-spoiler layer.
func (c ClassTable) InLayer(typ string, layers []string) bool {
	info, ok := c[typ]
	if !ok {
		return false
	}
	for _, l := range layers {
		if l == "" {
			continue
		}
		if info.Layer == l || info.Nospoiler == l {
			return true
		}
	}
	return false
}

// LegacyRecord is one row of the independently collected reference dataset.
type LegacyRecord struct {
	Category string
	X        float64
	Y        float64
	Type     string
	YtVideo  string
	YtStart  string
	Image    string

	// Fields holds every column of the row as read, including the above.
	Fields map[string]string
}
