package source

import (
	"fmt"
	"sort"
)

// Position is a 1-based line and column (in bytes) within a file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Map translates byte offsets of one module into line/column positions.
// Dependency locations carry a *Map so diagnostics can be reported against
// the original file without holding on to the whole source.
type Map struct {
	path       string
	lineStarts []uint32
	size       uint32
}

// NewMap indexes the line starts of content.
func NewMap(path string, content []byte) *Map {
	starts := []uint32{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &Map{path: path, lineStarts: starts, size: uint32(len(content))}
}

// Path returns the file the map belongs to.
func (m *Map) Path() string {
	if m == nil {
		return ""
	}
	return m.path
}

// Position returns the line and column of offset. Offsets past the end
// clamp to the last position.
func (m *Map) Position(offset uint32) Position {
	if m == nil || len(m.lineStarts) == 0 {
		return Position{Line: 1, Column: int(offset) + 1}
	}
	if offset > m.size {
		offset = m.size
	}
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	}) - 1
	return Position{Line: line + 1, Column: int(offset-m.lineStarts[line]) + 1}
}

// Lines returns the number of lines indexed.
func (m *Map) Lines() int {
	if m == nil {
		return 0
	}
	return len(m.lineStarts)
}
