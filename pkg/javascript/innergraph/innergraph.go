// Package innergraph records which exports of a module each top-level
// binding contributes to. A later optimization pass uses the map to drop
// bindings whose exports are never imported; this package only collects.
package innergraph

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// UsageKind discriminates Usage.
type UsageKind uint8

const (
	// UsageValue: the binding is the value of an export.
	UsageValue UsageKind = iota
	// UsageTopLevel: the binding is used by another top-level binding.
	UsageTopLevel
	// UsageTrue: the binding must always be kept.
	UsageTrue
)

// Usage is one reason for a binding to be live.
type Usage struct {
	Kind UsageKind
	Name string
}

// Value marks a binding as the value behind export.
func Value(export string) Usage {
	return Usage{Kind: UsageValue, Name: export}
}

// TopLevel marks a binding as used by another top-level binding.
func TopLevel(binding string) Usage {
	return Usage{Kind: UsageTopLevel, Name: binding}
}

// AlwaysUsed keeps a binding regardless of export usage.
var AlwaysUsed = Usage{Kind: UsageTrue}

type binding struct {
	exports  *roaring.Bitmap
	topLevel []string
	always   bool
}

// State is the per-module usage map. Export names are interned so each
// binding holds a compact bitmap of export indexes.
type State struct {
	enabled   bool
	exports   []string
	exportIdx map[string]uint32
	bindings  map[string]*binding
	order     []string
}

// New creates a state. A disabled state ignores every usage.
func New(enabled bool) *State {
	return &State{
		enabled:   enabled,
		exportIdx: make(map[string]uint32),
		bindings:  make(map[string]*binding),
	}
}

// Enabled reports whether usages are recorded.
func (s *State) Enabled() bool {
	return s.enabled
}

// AddVariableUsage records that name is used as described by usage.
// Recording the same usage twice has no further effect.
func (s *State) AddVariableUsage(name string, usage Usage) {
	if !s.enabled {
		return
	}
	b, ok := s.bindings[name]
	if !ok {
		b = &binding{exports: roaring.New()}
		s.bindings[name] = b
		s.order = append(s.order, name)
	}

	switch usage.Kind {
	case UsageValue:
		b.exports.Add(s.intern(usage.Name))
	case UsageTopLevel:
		if !slices.Contains(b.topLevel, usage.Name) {
			b.topLevel = append(b.topLevel, usage.Name)
		}
	case UsageTrue:
		b.always = true
	}
}

func (s *State) intern(export string) uint32 {
	if idx, ok := s.exportIdx[export]; ok {
		return idx
	}
	idx := uint32(len(s.exports))
	s.exports = append(s.exports, export)
	s.exportIdx[export] = idx
	return idx
}

// Bindings returns every binding with at least one usage, in first-use order.
func (s *State) Bindings() []string {
	return slices.Clone(s.order)
}

// UsedExports returns the sorted export names the binding is the value of.
func (s *State) UsedExports(name string) []string {
	b, ok := s.bindings[name]
	if !ok {
		return nil
	}
	names := make([]string, 0, b.exports.GetCardinality())
	it := b.exports.Iterator()
	for it.HasNext() {
		names = append(names, s.exports[it.Next()])
	}
	slices.Sort(names)
	return names
}

// TopLevelUsers returns the bindings recorded as using name.
func (s *State) TopLevelUsers(name string) []string {
	if b, ok := s.bindings[name]; ok {
		return slices.Clone(b.topLevel)
	}
	return nil
}

// IsAlwaysUsed reports whether name was marked AlwaysUsed.
func (s *State) IsAlwaysUsed(name string) bool {
	b, ok := s.bindings[name]
	return ok && b.always
}

// BindingsForExport returns the bindings that back export, in first-use order.
func (s *State) BindingsForExport(export string) []string {
	idx, ok := s.exportIdx[export]
	if !ok {
		return nil
	}
	var out []string
	for _, name := range s.order {
		if s.bindings[name].exports.Contains(idx) {
			out = append(out, name)
		}
	}
	return out
}

// Snapshot returns binding -> export names for reporting. Bindings that
// are always used list "*".
func (s *State) Snapshot() map[string][]string {
	out := make(map[string][]string, len(s.bindings))
	for _, name := range s.order {
		used := s.UsedExports(name)
		if s.bindings[name].always {
			used = append(used, "*")
		}
		out[name] = used
	}
	return out
}
