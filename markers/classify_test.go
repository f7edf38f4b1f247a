package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const classifyFixture = `[
	{"Type": "Chest_C", "Name": "Chest1", "Outer": "PersistentLevel", "Properties": {
		"Coins": 5,
		"PriceType": "EPriceType::NewEnumerator2",
		"bObsidian": true,
		"Achievement Name": "OpenAll",
		"RootComponent": {"ObjectName": "DefaultSceneRoot", "OuterIndex": {"ObjectName": "Chest1"}},
		"Spawnthing": {"ObjectName": "_Coin_C"},
		"CustomColor": {"R": 255, "G": 0, "B": 16, "A": 255},
		"ActivateActors": [{"ObjectName": "Door1", "OuterIndex": {"ObjectName": "Door1", "Outer": "Map"}}]
	}},
	{"Type": "SceneComponent", "Name": "DefaultSceneRoot", "Outer": "Chest1", "Properties": {
		"RelativeLocation": {"X": 100, "Y": 200, "Z": 300}
	}},
	{"Type": "Door_C", "Name": "Door1", "Outer": "PersistentLevel"},
	{"Type": "MetalBall_C", "Name": "MetalBall3", "Outer": "PersistentLevel", "Properties": {
		"Mesh?": {"ObjectName": "Anvil"}
	}},
	{"Type": "MetalBall_C", "Name": "MetalBall4", "Outer": "PersistentLevel", "Properties": {
		"Mesh?": {"ObjectName": "Ball"}
	}},
	{"Type": "RingRusty_C", "Name": "RingRusty12", "Outer": "PersistentLevel"},
	{"Type": "Jumppad_C", "Name": "Jumppad1", "Outer": "PersistentLevel", "Properties": {
		"RelativeLocation": {"X": 0, "Y": 0, "Z": 50},
		"RelativeRotation": {"Roll": 0, "Pitch": 0, "Yaw": 0},
		"Velocity": {"X": 1, "Y": 2, "Z": 3},
		"AllowStomp": true,
		"RelativeVelocity": 1500
	}},
	{"Type": "Coin_C", "Name": "Coin1", "Outer": "PersistentLevel", "Properties": {"IsRotating": true}},
	{"Type": "StaticMeshActor", "Name": "Rock1", "Outer": "PersistentLevel"},
	{"Type": "PipesystemNew_C", "Name": "PipeComp", "Outer": "PipesystemNew1", "Properties": {
		"Pipe": {"ObjectName": "Pipe", "Outer": "PipesystemNew1"},
		"OtherPipe": {"ObjectName": "PipesystemNew2"}
	}},
	{"Type": "PipesystemNew_C", "Name": "PipesystemNew1", "Outer": "PersistentLevel"}
]`

func newTestClassifier(t *testing.T, game string) (*Classifier, []*Area) {
	t.Helper()
	cfg := DefaultConfig()
	areas := []*Area{parseArea(t, "Map", classifyFixture)}
	g, err := cfg.Game(game)
	require.NoError(t, err)
	return NewClassifier(cfg, g, areas, nil, zaptest.NewLogger(t)), areas
}

func TestClassifier_Classify(t *testing.T) {
	c, areas := newTestClassifier(t, "sl")
	set := c.Classify(areas)

	assert.Nil(t, set.Get("Map:Rock1"))
	assert.Nil(t, set.Get("Map:DefaultSceneRoot"))

	t.Run("chest", func(t *testing.T) {
		m := set.Get("Map:Chest1")
		require.NotNil(t, m)
		assert.Equal(t, "Chest_C", m.Type)
		assert.Equal(t, 200.0, m.Lat)
		assert.Equal(t, 100.0, m.Lng)
		assert.Equal(t, 300.0, m.Alt)
		assert.Equal(t, intPtr(5), m.Coins)
		assert.Equal(t, intPtr(2), m.PriceType)
		assert.Equal(t, boolPtr(true), m.IsObsidian)
		assert.Equal(t, "OpenAll", m.AchievementName)
		assert.Equal(t, "_Coin_C", m.Spawns)
		assert.Equal(t, "#ff0010", m.CustomColor)
		assert.Equal(t, []string{"Door1"}, m.Actors)
		assert.Nil(t, m.Target)
	})

	t.Run("type corrections", func(t *testing.T) {
		assert.Equal(t, "Anvil_C", set.Get("Map:MetalBall3").Type)
		assert.Equal(t, "MetalBall_C", set.Get("Map:MetalBall4").Type)
		assert.Equal(t, "Purchase_StonePickaxe_C", set.Get("Map:RingRusty12").Type)
	})

	t.Run("jump pad", func(t *testing.T) {
		m := set.Get("Map:Jumppad1")
		require.NotNil(t, m)
		assert.Equal(t, 50.0, m.Alt)
		assert.Equal(t, &XYZ{X: 1, Y: 2, Z: 3}, m.Velocity)
		assert.Equal(t, &XYZ{Z: 1}, m.Direction)
		assert.Equal(t, &XYZ{}, m.Target)
		assert.Equal(t, boolPtr(true), m.AllowStomp)
		require.NotNil(t, m.RelativeVelocity)
		assert.Equal(t, 1500.0, *m.RelativeVelocity)
	})

	t.Run("rotating coin", func(t *testing.T) {
		assert.True(t, set.Get("Map:Coin1").Rotating)
	})

	t.Run("pipe partner", func(t *testing.T) {
		assert.Equal(t, "Map:PipesystemNew2", set.Get("Map:PipesystemNew1").OtherPipe)
	})
}

func TestClassifier_OverridesAreGameSpecific(t *testing.T) {
	c, areas := newTestClassifier(t, "siu")
	set := c.Classify(areas)
	assert.Equal(t, "RingRusty_C", set.Get("Map:RingRusty12").Type)
	assert.Equal(t, "Anvil_C", set.Get("Map:MetalBall3").Type)
}

func TestClassifier_Allowed(t *testing.T) {
	c, _ := newTestClassifier(t, "sl")
	tests := []struct {
		typ  string
		want bool
	}{
		{"Chest_C", true},
		{"BuyUpgrade_C", true},
		{"SecretLever_C", true},
		{"StaticMeshActor", false},
		{"SceneComponent", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Allowed(&SceneObject{Name: "x", Type: tt.typ}))
		})
	}

	t.Run("name allow-list narrows exact types", func(t *testing.T) {
		c.cfg.Markers.Names = []string{"Start9"}
		defer func() { c.cfg.Markers.Names = nil }()
		assert.False(t, c.Allowed(&SceneObject{Name: "Start1", Type: "PlayerStart"}))
		assert.True(t, c.Allowed(&SceneObject{Name: "Start9", Type: "PlayerStart"}))
		// prefix and suffix matches ignore the name list
		assert.True(t, c.Allowed(&SceneObject{Name: "Chest1", Type: "Chest_C"}))
	})
}

func TestClassifier_CycleStillYieldsMarker(t *testing.T) {
	cfg := DefaultConfig()
	area := parseArea(t, "Map", `[
		{"Type": "Chest_C", "Name": "A", "Outer": "Owner", "Properties": {
			"RelativeLocation": {"X": 1, "Y": 0, "Z": 0},
			"RootComponent": {"ObjectName": "B", "OuterIndex": {"ObjectName": "Owner"}}
		}},
		{"Type": "Chest_C", "Name": "B", "Outer": "Owner", "Properties": {
			"RootComponent": {"ObjectName": "A", "OuterIndex": {"ObjectName": "Owner"}}
		}}
	]`)
	c := NewClassifier(cfg, cfg.Games["sl"], []*Area{area}, nil, zaptest.NewLogger(t))

	m, err := c.Marker(area.Objects[0])
	assert.ErrorIs(t, err, ErrTransformCycle)
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.Lng)

	set := c.Classify([]*Area{area})
	assert.Equal(t, 2, set.Len())
}
