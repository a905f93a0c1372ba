package models

import (
	"slices"
	"sort"
)

// ModuleReport is the extraction result for a single module.
type ModuleReport struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Hash     string `json:"hash,omitempty"`

	// ESM is set when the module contains import or export syntax.
	ESM    bool `json:"esm"`
	Strict bool `json:"strict"`

	NamedExports []string `json:"named_exports"`

	// DefaultExport is set by `export default` and `export { x as default }`.
	// NamedExports only lists "default" for the specifier form.
	DefaultExport bool `json:"default_export,omitempty"`

	StarExports    []string            `json:"star_exports,omitempty"`
	Dependencies   []DependencyRecord  `json:"dependencies"`
	Presentational []DependencyRecord  `json:"presentational,omitempty"`
	InnerGraph     map[string][]string `json:"inner_graph,omitempty"`
	Diagnostics    []DiagnosticRecord  `json:"diagnostics,omitempty"`
}

// DependencyKind is the record type of a dependency.
type DependencyKind string

const (
	KindImport                  DependencyKind = "esm import"
	KindExport                  DependencyKind = "esm export"
	KindExportSpecifier         DependencyKind = "esm export specifier"
	KindExportExpression        DependencyKind = "esm export expression"
	KindExportHeader            DependencyKind = "esm export header"
	KindExportImportedSpecifier DependencyKind = "esm export import specifier"
	KindConst                   DependencyKind = "const"
)

// ExportRef is one re-exported binding: Exported is the name this module
// exposes, Imported the name read from the target (nil for the namespace).
type ExportRef struct {
	Exported string  `json:"exported"`
	Imported *string `json:"imported,omitempty"`
}

// DependencyRecord is a flat, serializable view of any dependency.
type DependencyRecord struct {
	ID   string         `json:"id"`
	Kind DependencyKind `json:"kind"`

	Request     string `json:"request,omitempty"`
	SourceOrder int    `json:"source_order,omitempty"`

	// Export specifiers and re-exports.
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`

	IDs              []ExportRef `json:"ids,omitempty"`
	UsedIDs          []ExportRef `json:"used_ids,omitempty"`
	ExportAll        bool        `json:"export_all,omitempty"`
	OtherStarExports []string    `json:"other_star_exports,omitempty"`
	PresenceMode     string      `json:"presence_mode,omitempty"`

	// MissingExport is the severity a re-exported name that the target
	// module lacks is reported with. Empty means it is not reported.
	MissingExport string `json:"missing_export,omitempty"`

	Content string `json:"content,omitempty"`

	Start  uint32 `json:"start"`
	End    uint32 `json:"end"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsModuleDependency reports whether the record links to another module.
func (d DependencyRecord) IsModuleDependency() bool {
	return d.Request != ""
}

// IsStarExport reports whether the record is an `export * from` re-export.
func (d DependencyRecord) IsStarExport() bool {
	return d.Kind == KindExportImportedSpecifier && d.ExportAll
}

// DiagnosticRecord is a warning or error found while walking a module.
type DiagnosticRecord struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Requests returns the distinct module requests in source order.
func (r *ModuleReport) Requests() []string {
	type entry struct {
		request string
		order   int
	}
	seen := make(map[string]bool)
	var entries []entry
	for _, d := range r.Dependencies {
		if !d.IsModuleDependency() || seen[d.Request] {
			continue
		}
		seen[d.Request] = true
		entries = append(entries, entry{d.Request, d.SourceOrder})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})
	requests := make([]string, len(entries))
	for i, e := range entries {
		requests[i] = e.request
	}
	return requests
}

// OwnExports returns the names the module exports itself, in sorted order.
// Names reached through `export *` are not included.
func (r *ModuleReport) OwnExports() []string {
	names := append([]string(nil), r.NamedExports...)
	if r.DefaultExport && !slices.Contains(names, "default") {
		names = append(names, "default")
	}
	sort.Strings(names)
	return names
}

// StarExportRecords returns the `export *` records in declaration order.
func (r *ModuleReport) StarExportRecords() []DependencyRecord {
	var stars []DependencyRecord
	for _, d := range r.Dependencies {
		if d.IsStarExport() {
			stars = append(stars, d)
		}
	}
	return stars
}

// FileError records a module that could not be extracted.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ExtractSummary aggregates counts over a run.
type ExtractSummary struct {
	TotalFiles     int `json:"total_files"`
	ESMModules     int `json:"esm_modules"`
	FailedFiles    int `json:"failed_files"`
	Dependencies   int `json:"dependencies"`
	Presentational int `json:"presentational"`
	NamedExports   int `json:"named_exports"`
	StarExports    int `json:"star_exports"`
	Diagnostics    int `json:"diagnostics"`
	CachedFiles    int `json:"cached_files"`
}

// ExtractReport is the result of extracting a set of files.
type ExtractReport struct {
	Modules []ModuleReport `json:"modules"`
	Errors  []FileError    `json:"errors,omitempty"`
	Summary ExtractSummary `json:"summary"`
}

// NewExtractReport sorts modules by path and computes the summary.
// cached is the number of modules served from cache.
func NewExtractReport(modules []ModuleReport, errs []FileError, cached int) *ExtractReport {
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Path < modules[j].Path
	})
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Path < errs[j].Path
	})

	s := ExtractSummary{
		TotalFiles:  len(modules) + len(errs),
		FailedFiles: len(errs),
		CachedFiles: cached,
	}
	for _, m := range modules {
		if m.ESM {
			s.ESMModules++
		}
		s.Dependencies += len(m.Dependencies)
		s.Presentational += len(m.Presentational)
		s.NamedExports += len(m.NamedExports)
		s.StarExports += len(m.StarExports)
		s.Diagnostics += len(m.Diagnostics)
	}
	return &ExtractReport{Modules: modules, Errors: errs, Summary: s}
}
