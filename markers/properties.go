package markers

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Properties is the heterogeneous property bag of a scene object, as
// decoded from JSON: values are float64, bool, string, []any or
// map[string]any.
type Properties map[string]any

// ObjectRef is a reference from one object to another by name.
type ObjectRef struct {
	ObjectName string
	// Outer is the top-level "Outer" of the reference, the owning actor.
	Outer string
	// OuterName and OuterLevel come from the reference's OuterIndex.
	OuterName  string
	OuterLevel string
}

// Has reports whether key is present.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Map returns a nested property bag, or nil when key is absent or not an object.
func (p Properties) Map(key string) Properties {
	if p == nil {
		return nil
	}
	if m, ok := p[key].(map[string]any); ok {
		return Properties(m)
	}
	return nil
}

// String returns a string value.
func (p Properties) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p[key].(string)
	return s, ok
}

// Number returns a numeric value. Booleans count as 0/1 and enum strings of
// the form "EType::Name3" yield their trailing number.
func (p Properties) Number(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return toNumber(p[key])
}

// Vector reads an {X, Y, Z} value.
func (p Properties) Vector(key string) (Vec, bool) {
	m := p.Map(key)
	if m == nil {
		return Vec{}, false
	}
	x, _ := m.Number("X")
	y, _ := m.Number("Y")
	z, _ := m.Number("Z")
	return Vec{X: x, Y: y, Z: z}, true
}

// Rotator reads a {Roll, Pitch, Yaw} value in degrees.
func (p Properties) Rotator(key string) (Rotator, bool) {
	m := p.Map(key)
	if m == nil {
		return Rotator{}, false
	}
	roll, _ := m.Number("Roll")
	pitch, _ := m.Number("Pitch")
	yaw, _ := m.Number("Yaw")
	return Rotator{Roll: roll, Pitch: pitch, Yaw: yaw}, true
}

// Quat reads a {W, X, Y, Z} value.
func (p Properties) Quat(key string) (Quat, bool) {
	m := p.Map(key)
	if m == nil {
		return Quat{}, false
	}
	w, _ := m.Number("W")
	x, _ := m.Number("X")
	y, _ := m.Number("Y")
	z, _ := m.Number("Z")
	return Quat{W: w, X: x, Y: y, Z: z}, true
}

// Ref reads an object reference.
func (p Properties) Ref(key string) (ObjectRef, bool) {
	return asRef(p.Map(key))
}

// Refs reads every object reference under key: a single reference, a list
// of references, or, when flatten is set, the values of a keyed object.
func (p Properties) Refs(key string, flatten bool) []ObjectRef {
	if p == nil {
		return nil
	}
	var candidates []any
	switch v := p[key].(type) {
	case map[string]any:
		candidates = []any{v}
	case []any:
		candidates = v
	default:
		return nil
	}

	var refs []ObjectRef
	for _, c := range candidates {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if flatten {
			for _, k := range sortedKeys(m) {
				if ref, ok := asRef(asProperties(m[k])); ok {
					refs = append(refs, ref)
				}
			}
			continue
		}
		if ref, ok := asRef(Properties(m)); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// SoftRef reads a soft object path {AssetPathName, SubPathString} and returns
// the referenced area and object name.
func (p Properties) SoftRef(key string) (area, name string, ok bool) {
	m := p.Map(key)
	if m == nil {
		return "", "", false
	}
	asset, _ := m.String("AssetPathName")
	sub, _ := m.String("SubPathString")
	if asset == "" || sub == "" {
		return "", "", false
	}
	return lastSegment(asset), lastSegment(sub), true
}

func asProperties(v any) Properties {
	if m, ok := v.(map[string]any); ok {
		return Properties(m)
	}
	return nil
}

func asRef(m Properties) (ObjectRef, bool) {
	if m == nil {
		return ObjectRef{}, false
	}
	name, ok := m.String("ObjectName")
	if !ok {
		return ObjectRef{}, false
	}
	ref := ObjectRef{ObjectName: name}
	ref.Outer, _ = m.String("Outer")
	if idx := m.Map("OuterIndex"); idx != nil {
		ref.OuterName, _ = idx.String("ObjectName")
		ref.OuterLevel, _ = idx.String("Outer")
	}
	return ref, true
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		if strings.Contains(n, "::") {
			return float64(enumOrdinal(n)), true
		}
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}

// enumOrdinal returns the trailing number of an enum literal such as
// "EPriceType::NewEnumerator2", or 0 when there is none.
func enumOrdinal(s string) int {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n, _ := strconv.Atoi(s[start:end])
	return n
}

// colorHex formats an {R, G, B} value as #rrggbb.
func colorHex(m Properties) string {
	if m == nil {
		return ""
	}
	channel := func(k string) int {
		v, _ := m.Number(k)
		return int(math.Max(0, math.Min(255, v)))
	}
	return fmt.Sprintf("#%02x%02x%02x", channel("R"), channel("G"), channel("B"))
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// snakeCase converts a property name to its exported field name:
// "Achievement Name" -> "achievement_name", "bObsidian" -> "is_obsidian",
// "RequiresPurpleShot?" -> "requires_purple_shot_flag".
func snakeCase(s string) string {
	if strings.HasSuffix(s, "?") {
		s = strings.TrimSuffix(s, "?") + "Flag"
	}
	if strings.HasPrefix(s, "b") {
		s = "Is" + s[1:]
	}
	s = strings.ReplaceAll(s, " ", "")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimLeft(b.String(), "_")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
