package markers

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadClassTable reads the class metadata table (type -> class info).
func LoadClassTable(path string) (ClassTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrClassTable, path, err)
	}
	return ParseClassTable(data)
}

// ParseClassTable parses the class metadata table JSON.
func ParseClassTable(data []byte) (ClassTable, error) {
	var table ClassTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassTable, err)
	}
	if table == nil {
		return nil, fmt.Errorf("%w: empty table", ErrClassTable)
	}
	return table, nil
}
