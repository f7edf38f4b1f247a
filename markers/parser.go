package markers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ParseAreaFile reads and parses one decoded area dump.
func ParseAreaFile(path, area string) (*Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAreaNotFound, path)
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseAreaJSON(data, area)
}

// ParseAreaJSON parses a decoded area dump: a JSON array of object records.
func ParseAreaJSON(data []byte, area string) (*Area, error) {
	var objects []*SceneObject
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("parsing area %s JSON: %w", area, err)
	}

	a := &Area{Name: area, Objects: make([]*SceneObject, 0, len(objects))}
	for _, o := range objects {
		if o == nil || o.Name == "" {
			continue
		}
		o.Area = area
		a.Objects = append(a.Objects, o)
	}
	return a, nil
}

// LoadAreas loads <dir>/<area>.json for every area, in order. A missing
// area is fatal.
func LoadAreas(dir string, areas []string) ([]*Area, error) {
	out := make([]*Area, 0, len(areas))
	for _, name := range areas {
		a, err := ParseAreaFile(filepath.Join(dir, name+".json"), name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// AreaSummary provides a summary of an area dump.
type AreaSummary struct {
	Area        string
	ObjectCount int
	TypeCounts  map[string]int
	Placements  int
}

// Summarize counts the objects of an area by type.
func Summarize(a *Area) AreaSummary {
	s := AreaSummary{
		Area:        a.Name,
		ObjectCount: len(a.Objects),
		TypeCounts:  make(map[string]int),
	}
	for _, o := range a.Objects {
		s.TypeCounts[o.Type]++
		if _, _, ok := placementOf(o); ok {
			s.Placements++
		}
	}
	return s
}

// TopTypes returns up to n types ordered by count, then name.
func (s AreaSummary) TopTypes(n int) []string {
	types := make([]string, 0, len(s.TypeCounts))
	for t := range s.TypeCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		ci, cj := s.TypeCounts[types[i]], s.TypeCounts[types[j]]
		if ci != cj {
			return ci > cj
		}
		return types[i] < types[j]
	})
	if n > 0 && len(types) > n {
		types = types[:n]
	}
	return types
}
