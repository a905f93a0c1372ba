// Package dependency defines the typed records the module walker emits:
// module dependencies that link a module to its imports and re-exports,
// and presentational dependencies that describe source rewrites.
package dependency

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/source"
)

// ID identifies a dependency record within a build.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// MarshalText encodes the id as fixed width hex.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex id.
func (id *ID) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid dependency id %q: %w", text, err)
	}
	*id = ID(v)
	return nil
}

// IDGenerator hands out ids that are stable for a given resource and
// discovery order, so repeated runs over the same file agree.
type IDGenerator struct {
	resource string
	next     uint64
}

// NewIDGenerator creates a generator scoped to resource.
func NewIDGenerator(resource string) *IDGenerator {
	return &IDGenerator{resource: resource}
}

// Next returns the next id.
func (g *IDGenerator) Next() ID {
	g.next++
	id := ID(xxhash.Sum64String(g.resource + "#" + strconv.FormatUint(g.next, 10)))
	if id == 0 {
		id = 1
	}
	return id
}

// Type tags a dependency record.
type Type string

const (
	TypeEsmImport                  Type = "esm import"
	TypeEsmExport                  Type = "esm export"
	TypeEsmExportSpecifier         Type = "esm export specifier"
	TypeEsmExportExpression        Type = "esm export expression"
	TypeEsmExportHeader            Type = "esm export header"
	TypeEsmExportImportedSpecifier Type = "esm export import specifier"
	TypeConst                      Type = "const"
)

// Dependency is implemented by every record.
type Dependency interface {
	ID() ID
	AssignID(id ID)
	Type() Type
	// Loc returns the source range the record was created from, or nil.
	Loc() *Location
}

// ModuleDependency links the current module to another one.
type ModuleDependency interface {
	Dependency
	ModuleRequest() string
	ImportOrder() int
}

// Meta carries the id every record embeds.
type Meta struct {
	DepID ID `json:"id"`
}

// ID returns the assigned id, zero before the record is added to a parser.
func (m *Meta) ID() ID { return m.DepID }

// AssignID sets the id once; later calls are ignored.
func (m *Meta) AssignID(id ID) {
	if m.DepID == 0 {
		m.DepID = id
	}
}

// Location is a byte range in a module plus the handle needed to report it.
type Location struct {
	Start  uint32      `json:"start"`
	End    uint32      `json:"end"`
	Source *source.Map `json:"-"`
}

// NewLocation converts an AST span.
func NewLocation(span ast.Span, m *source.Map) Location {
	return Location{Start: span.Lo, End: span.Hi, Source: m}
}

// Span converts back to an AST span.
func (l Location) Span() ast.Span {
	return ast.NewSpan(l.Start, l.End)
}

func (l Location) String() string {
	if l.Source == nil {
		return fmt.Sprintf("%d..%d", l.Start, l.End)
	}
	return fmt.Sprintf("%s:%s", l.Source.Path(), l.Source.Position(l.Start))
}
