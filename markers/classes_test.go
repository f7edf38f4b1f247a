package markers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClassTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameClasses.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"Chest_C": {"friendly": "Chest", "layer": "closedChest", "nospoiler": "chests", "icon": "chest", "loc": ["Chest"]},
		"Jumppad_C": {"layer": "jumppads", "lines": "jumppads"}
	}`), 0644))

	table, err := LoadClassTable(path)
	require.NoError(t, err)
	assert.Equal(t, ClassInfo{Friendly: "Chest", Icon: "chest", Layer: "closedChest", Nospoiler: "chests", LocKeys: []string{"Chest"}}, table["Chest_C"])
	assert.Equal(t, "jumppads", table["Jumppad_C"].Lines)
}

func TestLoadClassTable_Errors(t *testing.T) {
	_, err := LoadClassTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrClassTable)

	_, err = ParseClassTable([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrClassTable)

	_, err = ParseClassTable([]byte(`null`))
	assert.ErrorIs(t, err, ErrClassTable)
}
