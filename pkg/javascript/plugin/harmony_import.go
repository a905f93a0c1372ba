// Package plugin holds the parser plugins that turn ESM import and export
// statements into dependency records.
package plugin

import (
	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/dependency"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
)

// AddImportSideEffectDependency records that the module at request must be
// loaded at the current source order. Every import and re-export statement
// produces exactly one.
func AddImportSideEffectDependency(p *parser.Parser, request string, span, sourceSpan ast.Span, depType dependency.Type, exportAll bool) dependency.ID {
	return p.AddDependency(&dependency.HarmonyImportSideEffectDependency{
		Request:        request,
		SourceOrder:    p.LastHarmonyImportOrder(),
		Range:          p.Location(span),
		SourceRange:    p.Location(sourceSpan),
		DependencyType: depType,
		ExportAll:      exportAll,
	})
}

// HarmonyImportPlugin handles import declarations: it assigns the source
// order, removes the statement from the output and fills the import
// reference table.
type HarmonyImportPlugin struct{}

// NewHarmonyImportPlugin creates the plugin.
func NewHarmonyImportPlugin() *HarmonyImportPlugin {
	return &HarmonyImportPlugin{}
}

func (*HarmonyImportPlugin) Name() string { return "harmony-import" }

func (*HarmonyImportPlugin) Import(p *parser.Parser, decl *ast.ImportDecl, source string) parser.HookResult {
	p.NextHarmonyImportOrder()
	p.AddPresentationalDependency(dependency.NewConstDependency(decl.Range.Lo, decl.Range.Hi, "", nil))
	AddImportSideEffectDependency(p, source, decl.Range, decl.Src.Range, dependency.TypeEsmImport, false)
	return parser.Stop
}

func (*HarmonyImportPlugin) ImportSpecifier(p *parser.Parser, _ *ast.ImportDecl, spec ast.ImportSpecifier, source string, exportName *string, local string) parser.HookResult {
	var specifier dependency.Specifier
	switch s := spec.(type) {
	case *ast.ImportStarAsSpecifier:
		specifier = dependency.NamespaceSpecifier{Name: local}
	case *ast.ImportDefaultSpecifier:
		specifier = dependency.DefaultSpecifier{Name: local}
	case *ast.ImportNamedSpecifier:
		named := dependency.NamedSpecifier{Orig: local}
		if s.Imported != nil && s.Imported.Atom() != local {
			named.Exported = dependency.StrPtr(s.Imported.Atom())
		}
		specifier = named
	default:
		return parser.Unhandled
	}

	p.SetImportReference(local, parser.ImportReference{
		Request:     source,
		Specifier:   specifier,
		Names:       exportName,
		SourceOrder: p.LastHarmonyImportOrder(),
	})
	return parser.Stop
}

var (
	_ parser.ImportHook          = (*HarmonyImportPlugin)(nil)
	_ parser.ImportSpecifierHook = (*HarmonyImportPlugin)(nil)
)
