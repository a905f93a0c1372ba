package dependency

import (
	"sort"
	"strings"
)

// DefaultExportName is the binding code generation gives an anonymous
// default export.
const DefaultExportName = "__DEFAULT_EXPORT__"

// Template is implemented by presentational records that rewrite source.
type Template interface {
	Dependency
	Apply(src *ReplaceSource)
}

type replacement struct {
	start, end uint32
	content    string
	seq        int
}

// ReplaceSource accumulates span replacements over an original source and
// renders them in a single pass. Replacements are applied in start order;
// ties keep insertion order. A replacement overlapping an earlier one only
// affects the bytes the earlier one left untouched.
type ReplaceSource struct {
	original     []byte
	replacements []replacement
}

// NewReplaceSource wraps original.
func NewReplaceSource(original []byte) *ReplaceSource {
	return &ReplaceSource{original: original}
}

// Replace schedules [start, end) to be replaced with content.
func (s *ReplaceSource) Replace(start, end uint32, content string) {
	if end < start {
		end = start
	}
	s.replacements = append(s.replacements, replacement{
		start:   start,
		end:     end,
		content: content,
		seq:     len(s.replacements),
	})
}

// Insert schedules content to be inserted at pos.
func (s *ReplaceSource) Insert(pos uint32, content string) {
	s.Replace(pos, pos, content)
}

// Source renders the rewritten text.
func (s *ReplaceSource) Source() string {
	reps := make([]replacement, len(s.replacements))
	copy(reps, s.replacements)
	sort.SliceStable(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].seq < reps[j].seq
	})

	size := uint32(len(s.original))
	var b strings.Builder
	b.Grow(len(s.original))

	var cursor uint32
	for _, r := range reps {
		start, end := min(r.start, size), min(r.end, size)
		if start < cursor {
			start = cursor
		}
		b.Write(s.original[cursor:start])
		b.WriteString(r.content)
		cursor = max(cursor, start, end)
	}
	b.Write(s.original[cursor:])
	return b.String()
}

// Render applies every template in deps to original.
func Render(original []byte, deps []Dependency) string {
	src := NewReplaceSource(original)
	for _, d := range deps {
		if t, ok := d.(Template); ok {
			t.Apply(src)
		}
	}
	return src.Source()
}

// Apply implements Template.
func (d *ConstDependency) Apply(src *ReplaceSource) {
	src.Replace(d.Start, d.End, d.Content)
}

// Apply implements Template.
func (d *HarmonyExportHeaderDependency) Apply(src *ReplaceSource) {
	if d.RangeDecl != nil {
		src.Replace(d.Range.Start, d.RangeDecl.Start, "")
		return
	}
	src.Replace(d.Range.Start, d.Range.End, "")
}

// Apply implements Template.
func (d *HarmonyExportExpressionDependency) Apply(src *ReplaceSource) {
	switch decl := d.Declaration.(type) {
	case DeclarationIDIdent:
		src.Replace(d.RangeStmt.Start, d.Range.Start, "")
	case DeclarationIDFunc:
		src.Replace(d.RangeStmt.Start, d.Range.Start, "")
		src.Replace(decl.Range.Start, decl.Range.End, decl.Prefix+DefaultExportName+decl.Suffix)
	default:
		src.Replace(d.RangeStmt.Start, d.Range.Start, "/* harmony default export */ const "+DefaultExportName+" = (")
		src.Replace(d.Range.End, d.RangeStmt.End, ");")
	}
}

var (
	_ Template = (*ConstDependency)(nil)
	_ Template = (*HarmonyExportHeaderDependency)(nil)
	_ Template = (*HarmonyExportExpressionDependency)(nil)
)
