package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties_Number(t *testing.T) {
	p := Properties{
		"Coins":     float64(12),
		"InShop":    true,
		"PriceType": "EPriceType::NewEnumerator2",
		"NoDigits":  "EColor::White",
		"Text":      "3.5",
		"Name":      "not a number",
	}

	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"Coins", 12, true},
		{"InShop", 1, true},
		{"PriceType", 2, true},
		{"NoDigits", 0, true},
		{"Text", 3.5, true},
		{"Name", 0, false},
		{"Missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := p.Number(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperties_NilSafe(t *testing.T) {
	var p Properties
	_, ok := p.Number("x")
	assert.False(t, ok)
	_, ok = p.String("x")
	assert.False(t, ok)
	assert.Nil(t, p.Map("x"))
	assert.Nil(t, p.Refs("x", false))
	_, ok = p.Vector("x")
	assert.False(t, ok)
}

func TestProperties_Ref(t *testing.T) {
	p := Properties{
		"RootComponent": map[string]any{
			"ObjectName": "DefaultSceneRoot",
			"Outer":      "Chest1",
			"OuterIndex": map[string]any{"ObjectName": "Chest1", "Outer": "Map"},
		},
	}
	ref, ok := p.Ref("RootComponent")
	require.True(t, ok)
	assert.Equal(t, ObjectRef{ObjectName: "DefaultSceneRoot", Outer: "Chest1", OuterName: "Chest1", OuterLevel: "Map"}, ref)

	_, ok = p.Ref("Missing")
	assert.False(t, ok)
}

func TestProperties_Refs(t *testing.T) {
	p := Properties{
		"Single": levelRefProp("A", "Map"),
		"List":   []any{levelRefProp("A", "Map"), "junk", levelRefProp("B", "Map")},
		"Keyed": map[string]any{
			"2": levelRefProp("Second", "Map"),
			"1": levelRefProp("First", "Map"),
		},
	}

	assert.Len(t, p.Refs("Single", false), 1)

	list := p.Refs("List", false)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[1].ObjectName)

	keyed := p.Refs("Keyed", true)
	require.Len(t, keyed, 2)
	assert.Equal(t, "First", keyed[0].ObjectName)
	assert.Equal(t, "Second", keyed[1].ObjectName)
}

func TestProperties_SoftRef(t *testing.T) {
	p := Properties{"Other": map[string]any{
		"AssetPathName": "/Game/Maps/DLC2_Area0.DLC2_Area0",
		"SubPathString": "PersistentLevel.PipesystemNew2",
	}}
	area, name, ok := p.SoftRef("Other")
	require.True(t, ok)
	assert.Equal(t, "DLC2_Area0", area)
	assert.Equal(t, "PipesystemNew2", name)

	_, _, ok = Properties{"Other": map[string]any{"AssetPathName": ""}}.SoftRef("Other")
	assert.False(t, ok)
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"IsInShop":            "is_in_shop",
		"canBePickedUp":       "can_be_picked_up",
		"bObsidian":           "is_obsidian",
		"BrickType":           "brick_type",
		"RequiresPurpleShot?": "requires_purple_shot_flag",
		"RelativeVelocity?":   "relative_velocity_flag",
		"Achievement Name":    "achievement_name",
		"Achievement?":        "achievement_flag",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, snakeCase(in))
		})
	}
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#ff0010", colorHex(Properties{"R": float64(255), "G": float64(0), "B": float64(16)}))
	assert.Equal(t, "#ff0000", colorHex(Properties{"R": float64(300)}))
	assert.Equal(t, "", colorHex(nil))
}
