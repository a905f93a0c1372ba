package parser

import (
	"encoding/json"
	"slices"
)

// NameSet is an insertion ordered set of names.
type NameSet struct {
	index map[string]struct{}
	names []string
}

// NewNameSet creates an empty set.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Insert(n)
	}
	return s
}

// Insert adds name and reports whether it was new.
func (s *NameSet) Insert(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name is present.
func (s *NameSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of names.
func (s *NameSet) Len() int {
	return len(s.names)
}

// Names returns the names in insertion order.
func (s *NameSet) Names() []string {
	return slices.Clone(s.names)
}

// MarshalJSON encodes the set as an array.
func (s *NameSet) MarshalJSON() ([]byte, error) {
	if s == nil || s.names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.names)
}
