package markers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func vecProp(x, y, z float64) map[string]any {
	return map[string]any{"X": x, "Y": y, "Z": z}
}

func refProp(name, outer string) map[string]any {
	return map[string]any{"ObjectName": name, "OuterIndex": map[string]any{"ObjectName": outer}}
}

func levelRefProp(name, level string) map[string]any {
	return map[string]any{"ObjectName": name, "OuterIndex": map[string]any{"ObjectName": name, "Outer": level}}
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func marker(area, name, typ string, x, y, z float64) *Marker {
	m := &Marker{Name: name, Type: typ, Area: area}
	m.SetPosition(Vec{X: x, Y: y, Z: z})
	return m
}

func parseArea(t *testing.T, area, body string) *Area {
	t.Helper()
	a, err := ParseAreaJSON([]byte(body), area)
	require.NoError(t, err)
	return a
}
