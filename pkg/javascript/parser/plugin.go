package parser

import (
	"github.com/panbanda/esmdeps/pkg/ast"
)

// HookResult is what a plugin hook reports back to the walker.
type HookResult uint8

const (
	// Unhandled lets the next plugin in the chain see the node.
	Unhandled HookResult = iota
	// Handled stops the chain without claiming the node.
	Handled
	// Stop stops the chain and claims the node.
	Stop
)

// Bool collapses the result the way callers that only care about a
// claim read it: only Stop is true.
func (r HookResult) Bool() bool {
	return r == Stop
}

func (r HookResult) String() string {
	switch r {
	case Unhandled:
		return "unhandled"
	case Handled:
		return "handled"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Plugin is anything registered with a Drive. A plugin participates in a
// hook by implementing the matching *Hook interface.
type Plugin interface {
	Name() string
}

// ProgramHook runs once before the passes; a non-Unhandled result skips them.
type ProgramHook interface {
	Program(p *Parser, program *ast.Program) HookResult
}

// PreStatementHook sees plain statements during pre-walk; Stop skips the
// walker's own binding discovery for the statement.
type PreStatementHook interface {
	PreStatement(p *Parser, stmt ast.Stmt) HookResult
}

// StatementHook sees plain and exported declarations during walk.
type StatementHook interface {
	Statement(p *Parser, stmt ast.Stmt) HookResult
}

// ImportHook sees every import declaration during pre-walk.
type ImportHook interface {
	Import(p *Parser, decl *ast.ImportDecl, source string) HookResult
}

// ImportSpecifierHook sees each import binding during pre-walk. exportName
// is nil for a namespace import and "default" for a default import. A Stop
// result makes local a defined top-level binding.
type ImportSpecifierHook interface {
	ImportSpecifier(p *Parser, decl *ast.ImportDecl, spec ast.ImportSpecifier, source string, exportName *string, local string) HookResult
}

// NamedExportImportHook sees `export { ... } from "source"` during pre-walk.
type NamedExportImportHook interface {
	NamedExportImport(p *Parser, decl *ast.NamedExport, source string) HookResult
}

// AllExportImportHook sees `export * from "source"` during pre-walk.
type AllExportImportHook interface {
	AllExportImport(p *Parser, decl *ast.ExportAll, source string) HookResult
}

// ExportDefaultDeclHook sees `export default class|function` during walk.
type ExportDefaultDeclHook interface {
	ExportDefaultDecl(p *Parser, decl *ast.ExportDefaultDecl) HookResult
}

// ExportDefaultExprHook sees `export default <expr>` during walk.
type ExportDefaultExprHook interface {
	ExportDefaultExpr(p *Parser, expr *ast.ExportDefaultExpr) HookResult
}

// ExportDeclHook sees `export <declaration>` during walk.
type ExportDeclHook interface {
	ExportDecl(p *Parser, decl *ast.ExportDecl) HookResult
}

// NamedExportHook sees `export { ... }` without a source during walk.
type NamedExportHook interface {
	NamedExport(p *Parser, decl *ast.NamedExport) HookResult
}

// Drive dispatches each hook to the plugins implementing it, in
// registration order, until one returns something other than Unhandled.
type Drive struct {
	plugins           []Plugin
	program           []ProgramHook
	preStatement      []PreStatementHook
	statement         []StatementHook
	importDecl        []ImportHook
	importSpecifier   []ImportSpecifierHook
	namedExportImport []NamedExportImportHook
	allExportImport   []AllExportImportHook
	exportDefaultDecl []ExportDefaultDeclHook
	exportDefaultExpr []ExportDefaultExprHook
	exportDecl        []ExportDeclHook
	namedExport       []NamedExportHook
}

// NewDrive sorts plugins into per-hook chains.
func NewDrive(plugins ...Plugin) *Drive {
	d := &Drive{plugins: plugins}
	for _, pl := range plugins {
		if h, ok := pl.(ProgramHook); ok {
			d.program = append(d.program, h)
		}
		if h, ok := pl.(PreStatementHook); ok {
			d.preStatement = append(d.preStatement, h)
		}
		if h, ok := pl.(StatementHook); ok {
			d.statement = append(d.statement, h)
		}
		if h, ok := pl.(ImportHook); ok {
			d.importDecl = append(d.importDecl, h)
		}
		if h, ok := pl.(ImportSpecifierHook); ok {
			d.importSpecifier = append(d.importSpecifier, h)
		}
		if h, ok := pl.(NamedExportImportHook); ok {
			d.namedExportImport = append(d.namedExportImport, h)
		}
		if h, ok := pl.(AllExportImportHook); ok {
			d.allExportImport = append(d.allExportImport, h)
		}
		if h, ok := pl.(ExportDefaultDeclHook); ok {
			d.exportDefaultDecl = append(d.exportDefaultDecl, h)
		}
		if h, ok := pl.(ExportDefaultExprHook); ok {
			d.exportDefaultExpr = append(d.exportDefaultExpr, h)
		}
		if h, ok := pl.(ExportDeclHook); ok {
			d.exportDecl = append(d.exportDecl, h)
		}
		if h, ok := pl.(NamedExportHook); ok {
			d.namedExport = append(d.namedExport, h)
		}
	}
	return d
}

// Plugins returns the registered plugins in order.
func (d *Drive) Plugins() []Plugin {
	return d.plugins
}

func call[H any](hooks []H, fn func(H) HookResult) HookResult {
	for _, h := range hooks {
		if r := fn(h); r != Unhandled {
			return r
		}
	}
	return Unhandled
}

func (d *Drive) Program(p *Parser, program *ast.Program) HookResult {
	return call(d.program, func(h ProgramHook) HookResult { return h.Program(p, program) })
}

func (d *Drive) PreStatement(p *Parser, stmt ast.Stmt) HookResult {
	return call(d.preStatement, func(h PreStatementHook) HookResult { return h.PreStatement(p, stmt) })
}

func (d *Drive) Statement(p *Parser, stmt ast.Stmt) HookResult {
	return call(d.statement, func(h StatementHook) HookResult { return h.Statement(p, stmt) })
}

func (d *Drive) Import(p *Parser, decl *ast.ImportDecl, source string) HookResult {
	return call(d.importDecl, func(h ImportHook) HookResult { return h.Import(p, decl, source) })
}

func (d *Drive) ImportSpecifier(p *Parser, decl *ast.ImportDecl, spec ast.ImportSpecifier, source string, exportName *string, local string) HookResult {
	return call(d.importSpecifier, func(h ImportSpecifierHook) HookResult {
		return h.ImportSpecifier(p, decl, spec, source, exportName, local)
	})
}

func (d *Drive) NamedExportImport(p *Parser, decl *ast.NamedExport, source string) HookResult {
	return call(d.namedExportImport, func(h NamedExportImportHook) HookResult { return h.NamedExportImport(p, decl, source) })
}

func (d *Drive) AllExportImport(p *Parser, decl *ast.ExportAll, source string) HookResult {
	return call(d.allExportImport, func(h AllExportImportHook) HookResult { return h.AllExportImport(p, decl, source) })
}

func (d *Drive) ExportDefaultDecl(p *Parser, decl *ast.ExportDefaultDecl) HookResult {
	return call(d.exportDefaultDecl, func(h ExportDefaultDeclHook) HookResult { return h.ExportDefaultDecl(p, decl) })
}

func (d *Drive) ExportDefaultExpr(p *Parser, expr *ast.ExportDefaultExpr) HookResult {
	return call(d.exportDefaultExpr, func(h ExportDefaultExprHook) HookResult { return h.ExportDefaultExpr(p, expr) })
}

func (d *Drive) ExportDecl(p *Parser, decl *ast.ExportDecl) HookResult {
	return call(d.exportDecl, func(h ExportDeclHook) HookResult { return h.ExportDecl(p, decl) })
}

func (d *Drive) NamedExport(p *Parser, decl *ast.NamedExport) HookResult {
	return call(d.namedExport, func(h NamedExportHook) HookResult { return h.NamedExport(p, decl) })
}
