package markers

import "errors"

var (
	// ErrAreaNotFound is returned when a configured area has no decoded dump.
	ErrAreaNotFound = errors.New("area dump not found")
	// ErrClassTable is returned when the class table cannot be read.
	ErrClassTable = errors.New("class table unreadable")
	// ErrTransformCycle is returned with a partial transform when the parent
	// chain loops or exceeds the configured depth.
	ErrTransformCycle = errors.New("parent chain cycle")
)
