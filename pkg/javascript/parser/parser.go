// Package parser walks a module tree in two passes and drives the
// registered plugins over every import and export form. The Parser is the
// traversal context: it owns the dependency lists, build info, import
// reference table and inner graph of exactly one module.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/dependency"
	"github.com/panbanda/esmdeps/pkg/javascript/innergraph"
	"github.com/panbanda/esmdeps/pkg/source"
)

const (
	// JSDefaultKeyword is the export name of a default export.
	JSDefaultKeyword = "default"
	// DefaultStarJSWord is the local binding name of an anonymous default export.
	DefaultStarJSWord = "*default*"
)

// ErrUnsupportedSyntax marks a module the walker refuses to process.
var ErrUnsupportedSyntax = errors.New("unsupported syntax")

// PreconditionError reports a node kind that must have been removed before
// the walker runs (TypeScript-only syntax, export-default-from specifiers).
type PreconditionError struct {
	Kind string
	Span ast.Span
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s at %s", ErrUnsupportedSyntax, e.Kind, e.Span)
}

func (e *PreconditionError) Unwrap() error {
	return ErrUnsupportedSyntax
}

// Unsupported aborts the walk of the current module. Walk turns it into a
// returned *PreconditionError.
func Unsupported(kind string, span ast.Span) {
	panic(&PreconditionError{Kind: kind, Span: span})
}

// Options is the configuration view the walker and its plugins read.
type Options struct {
	Presence   dependency.PresenceOptions
	InnerGraph bool
}

// DefaultOptions matches config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().JavaScript)
}

// OptionsFromConfig converts the javascript config section.
func OptionsFromConfig(js config.JavaScriptConfig) Options {
	return Options{
		Presence:   js.PresenceOptions(),
		InnerGraph: js.InnerGraph,
	}
}

// ImportReference records where a local import binding comes from.
type ImportReference struct {
	Request   string
	Specifier dependency.Specifier
	// Names is the export read from Request: nil for a namespace import,
	// "default" for a default import.
	Names       *string
	SourceOrder int
}

// ExportsType classifies how a module exposes its exports.
type ExportsType string

const (
	ExportsTypeUnset     ExportsType = ""
	ExportsTypeNamespace ExportsType = "namespace"
)

// BuildMeta is module metadata consumed by code generation.
type BuildMeta struct {
	ExportsType         ExportsType `json:"exports_type,omitempty"`
	StrictHarmonyModule bool        `json:"strict_harmony_module"`
}

// BuildInfo is the per-module accumulator the export plugins fill.
type BuildInfo struct {
	HarmonyNamedExports *NameSet
	AllStarExports      []dependency.ID
	Strict              bool
}

// Diagnostic is a non-fatal problem found while walking.
type Diagnostic struct {
	Severity dependency.Severity `json:"severity"`
	Message  string              `json:"message"`
	Loc      dependency.Location `json:"loc"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Message)
}

// Result is everything the walk produced for one module.
type Result struct {
	Resource                   string
	Dependencies               []dependency.Dependency
	PresentationalDependencies []dependency.Dependency
	BuildInfo                  *BuildInfo
	BuildMeta                  *BuildMeta
	InnerGraph                 *innergraph.State
	Diagnostics                []Diagnostic
}

// Parser is the traversal context for a single module. It is not safe for
// concurrent use and must not be reused for another module.
type Parser struct {
	resource  string
	sourceMap *source.Map
	options   Options
	drive     *Drive
	logger    *slog.Logger
	ids       *dependency.IDGenerator

	dependencies               []dependency.Dependency
	presentationalDependencies []dependency.Dependency
	buildInfo                  *BuildInfo
	buildMeta                  *BuildMeta
	innerGraph                 *innergraph.State
	diagnostics                []Diagnostic

	importMap              map[string]ImportReference
	lastHarmonyImportOrder int
	definitions            *NameSet

	statementPath []ast.Span
	prevStatement *ast.Span

	exportOwners map[string]ast.Span
	reported     map[string]bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithOptions sets the parser options.
func WithOptions(opts Options) Option {
	return func(p *Parser) {
		p.options = opts
	}
}

// WithPlugins registers plugins in order.
func WithPlugins(plugins ...Plugin) Option {
	return func(p *Parser) {
		p.drive = NewDrive(plugins...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates the traversal context for the module at resource.
func New(resource string, content []byte, opts ...Option) *Parser {
	p := &Parser{
		resource:     resource,
		sourceMap:    source.NewMap(resource, content),
		options:      DefaultOptions(),
		drive:        NewDrive(),
		logger:       slog.Default(),
		ids:          dependency.NewIDGenerator(resource),
		buildInfo:    &BuildInfo{HarmonyNamedExports: NewNameSet()},
		buildMeta:    &BuildMeta{},
		importMap:    make(map[string]ImportReference),
		definitions:  NewNameSet(),
		exportOwners: make(map[string]ast.Span),
		reported:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.innerGraph = innergraph.New(p.options.InnerGraph)
	return p
}

// Walk runs the program hook, then pre-walk over every top-level item, then
// walk. A precondition violation aborts the module and is returned as a
// *PreconditionError; nothing else is recovered.
func (p *Parser) Walk(program *ast.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*PreconditionError)
			if !ok {
				panic(r)
			}
			p.logger.Debug("module rejected",
				slog.String("file", p.resource),
				slog.String("kind", perr.Kind),
				slog.String("span", perr.Span.String()))
			err = perr
		}
	}()

	if p.drive.Program(p, program) != Unhandled {
		return nil
	}
	p.preWalkModuleItems(program.Body)
	p.walkModuleItems(program.Body)

	p.logger.Debug("module walked",
		slog.String("file", p.resource),
		slog.Int("dependencies", len(p.dependencies)),
		slog.Int("presentational", len(p.presentationalDependencies)),
		slog.Int("named_exports", p.buildInfo.HarmonyNamedExports.Len()))
	return nil
}

// Result returns the accumulated output.
func (p *Parser) Result() *Result {
	return &Result{
		Resource:                   p.resource,
		Dependencies:               p.dependencies,
		PresentationalDependencies: p.presentationalDependencies,
		BuildInfo:                  p.buildInfo,
		BuildMeta:                  p.buildMeta,
		InnerGraph:                 p.innerGraph,
		Diagnostics:                p.diagnostics,
	}
}

// Resource returns the module path.
func (p *Parser) Resource() string { return p.resource }

// Options returns the parser options.
func (p *Parser) Options() Options { return p.options }

// Logger returns the parser's logger.
func (p *Parser) Logger() *slog.Logger { return p.logger }

// BuildInfo returns the mutable build info.
func (p *Parser) BuildInfo() *BuildInfo { return p.buildInfo }

// BuildMeta returns the mutable build meta.
func (p *Parser) BuildMeta() *BuildMeta { return p.buildMeta }

// InnerGraph returns the usage tracker.
func (p *Parser) InnerGraph() *innergraph.State { return p.innerGraph }

// Location converts span into a dependency location for this module.
func (p *Parser) Location(span ast.Span) dependency.Location {
	return dependency.NewLocation(span, p.sourceMap)
}

// AddDependency assigns an id to d and appends it to the module dependencies.
func (p *Parser) AddDependency(d dependency.Dependency) dependency.ID {
	d.AssignID(p.ids.Next())
	p.dependencies = append(p.dependencies, d)
	return d.ID()
}

// AddPresentationalDependency assigns an id to d and appends it to the
// presentational dependencies.
func (p *Parser) AddPresentationalDependency(d dependency.Dependency) dependency.ID {
	d.AssignID(p.ids.Next())
	p.presentationalDependencies = append(p.presentationalDependencies, d)
	return d.ID()
}

// Dependencies returns the module dependencies collected so far.
func (p *Parser) Dependencies() []dependency.Dependency { return p.dependencies }

// PresentationalDependencies returns the presentational dependencies collected so far.
func (p *Parser) PresentationalDependencies() []dependency.Dependency {
	return p.presentationalDependencies
}

// NextHarmonyImportOrder advances and returns the source order counter.
// Call it exactly once per import or re-export statement.
func (p *Parser) NextHarmonyImportOrder() int {
	p.lastHarmonyImportOrder++
	return p.lastHarmonyImportOrder
}

// LastHarmonyImportOrder returns the current source order.
func (p *Parser) LastHarmonyImportOrder() int { return p.lastHarmonyImportOrder }

// SetImportReference records a local import binding.
func (p *Parser) SetImportReference(local string, ref ImportReference) {
	p.importMap[local] = ref
}

// ImportReference looks up a local import binding.
func (p *Parser) ImportReference(local string) (ImportReference, bool) {
	ref, ok := p.importMap[local]
	return ref, ok
}

// DefineVariable declares a top-level binding.
func (p *Parser) DefineVariable(name string) {
	p.definitions.Insert(name)
}

// IsDefined reports whether name is a known top-level binding.
func (p *Parser) IsDefined(name string) bool {
	return p.definitions.Contains(name)
}

// Definitions returns the top-level bindings in declaration order.
func (p *Parser) Definitions() []string {
	return p.definitions.Names()
}

// StatementPath returns the spans of the statements being visited,
// outermost first.
func (p *Parser) StatementPath() []ast.Span {
	return slices.Clone(p.statementPath)
}

// CurrentStatement returns the innermost statement being visited.
func (p *Parser) CurrentStatement() (ast.Span, bool) {
	if len(p.statementPath) == 0 {
		return ast.Span{}, false
	}
	return p.statementPath[len(p.statementPath)-1], true
}

// PrevStatement returns the most recently finished statement.
func (p *Parser) PrevStatement() (ast.Span, bool) {
	if p.prevStatement == nil {
		return ast.Span{}, false
	}
	return *p.prevStatement, true
}

func (p *Parser) enterStatement(span ast.Span) {
	p.statementPath = append(p.statementPath, span)
}

func (p *Parser) leaveStatement() {
	last := p.statementPath[len(p.statementPath)-1]
	p.statementPath = p.statementPath[:len(p.statementPath)-1]
	p.prevStatement = &last
}

// RegisterNamedExport adds name to the module's named exports. The same
// statement may register a name any number of times; a second statement
// exporting the same name gets a warning.
func (p *Parser) RegisterNamedExport(name string) {
	p.claimExport(name)
	p.buildInfo.HarmonyNamedExports.Insert(name)
}

// ClaimDefaultExport records the current statement as the owner of the
// default export. Default exports are not named exports, so only the
// duplicate check applies.
func (p *Parser) ClaimDefaultExport() {
	p.claimExport(JSDefaultKeyword)
}

func (p *Parser) claimExport(name string) {
	stmt, _ := p.CurrentStatement()
	if owner, ok := p.exportOwners[name]; !ok {
		p.exportOwners[name] = stmt
	} else if owner != stmt {
		key := name + "@" + stmt.String()
		if !p.reported[key] {
			p.reported[key] = true
			p.AddDiagnostic(dependency.SeverityWarning, stmt, fmt.Sprintf("duplicate export %q (first exported at %s)", name, p.Location(owner)))
		}
	}
}

// AddDiagnostic records a problem at span.
func (p *Parser) AddDiagnostic(severity dependency.Severity, span ast.Span, message string) {
	p.diagnostics = append(p.diagnostics, Diagnostic{
		Severity: severity,
		Message:  message,
		Loc:      p.Location(span),
	})
}

// Diagnostics returns the problems recorded so far.
func (p *Parser) Diagnostics() []Diagnostic { return p.diagnostics }
