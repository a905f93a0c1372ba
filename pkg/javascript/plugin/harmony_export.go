package plugin

import (
	"slices"

	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/dependency"
	"github.com/panbanda/esmdeps/pkg/javascript/innergraph"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
)

// HarmonyExportPlugin builds the export records of a module: local exports,
// default exports and re-exports of other modules.
type HarmonyExportPlugin struct{}

// NewHarmonyExportPlugin creates the plugin.
func NewHarmonyExportPlugin() *HarmonyExportPlugin {
	return &HarmonyExportPlugin{}
}

func (*HarmonyExportPlugin) Name() string { return "harmony-export" }

// NamedExportImport handles `export { a, b as c } from "m"` and
// `export * as ns from "m"`.
func (*HarmonyExportPlugin) NamedExportImport(p *parser.Parser, decl *ast.NamedExport, source string) parser.HookResult {
	order := p.NextHarmonyImportOrder()
	mode := dependency.CreateExportPresenceMode(p.Options().Presence)

	for _, spec := range decl.Specifiers {
		switch s := spec.(type) {
		case *ast.ExportNamespaceSpecifier:
			name := s.Name.Atom()
			p.AddDependency(&dependency.HarmonyExportImportedSpecifierDependency{
				Request:      source,
				SourceOrder:  order,
				IDs:          []dependency.ExportID{{Exported: name}},
				UsedIDs:      []dependency.ExportID{},
				Name:         dependency.StrPtr(name),
				Range:        p.Location(s.Range),
				PresenceMode: mode,
			})
			p.RegisterNamedExport(name)
		case *ast.ExportNamedSpecifier:
			orig := s.Orig.Atom()
			name := orig
			if s.Exported != nil {
				name = s.Exported.Atom()
			}
			ids := []dependency.ExportID{{Exported: name, Imported: dependency.StrPtr(orig)}}
			p.AddDependency(&dependency.HarmonyExportImportedSpecifierDependency{
				Request:      source,
				SourceOrder:  order,
				IDs:          ids,
				UsedIDs:      slices.Clone(ids),
				Name:         dependency.StrPtr(name),
				Range:        p.Location(s.Range),
				PresenceMode: mode,
			})
			p.RegisterNamedExport(name)
		case *ast.ExportDefaultSpecifier:
			parser.Unsupported("export default specifier", s.Range)
		}
	}

	AddImportSideEffectDependency(p, source, decl.Range, decl.Src.Range, dependency.TypeEsmExport, false)
	p.AddPresentationalDependency(dependency.NewConstDependency(decl.Range.Lo, decl.Range.Hi, "", nil))
	return parser.Stop
}

// AllExportImport handles `export * from "m"`. Each star record carries the
// star records that precede it so linking can give earlier ones priority.
func (*HarmonyExportPlugin) AllExportImport(p *parser.Parser, decl *ast.ExportAll, source string) parser.HookResult {
	order := p.NextHarmonyImportOrder()
	AddImportSideEffectDependency(p, source, decl.Range, decl.Src.Range, dependency.TypeEsmExport, true)

	info := p.BuildInfo()
	id := p.AddDependency(&dependency.HarmonyExportImportedSpecifierDependency{
		Request:          source,
		SourceOrder:      order,
		IDs:              []dependency.ExportID{},
		UsedIDs:          []dependency.ExportID{},
		ExportAll:        true,
		OtherStarExports: slices.Clone(info.AllStarExports),
		Range:            p.Location(decl.Range),
		PresenceMode:     dependency.CreateExportPresenceMode(p.Options().Presence),
	})
	info.AllStarExports = append(info.AllStarExports, id)

	p.AddPresentationalDependency(dependency.NewConstDependency(decl.Range.Lo, decl.Range.Hi, "", nil))
	return parser.Stop
}

// ExportDefaultDecl handles `export default class|function`.
func (*HarmonyExportPlugin) ExportDefaultDecl(p *parser.Parser, decl *ast.ExportDefaultDecl) parser.HookResult {
	p.ClaimDefaultExport()
	var (
		ident       *ast.Ident
		declaration dependency.DeclarationID
	)
	switch d := decl.Decl.(type) {
	case *ast.ClassExpr:
		ident = d.Ident
	case *ast.FnExpr:
		ident = d.Ident
		if ident == nil {
			declaration = functionDeclarationID(p, d)
		}
	default:
		parser.Unsupported("default export declaration", decl.Decl.Span())
	}

	if ident != nil && ident.Sym != "" {
		p.AddDependency(&dependency.HarmonyExportSpecifierDependency{
			Name:  parser.JSDefaultKeyword,
			Value: ident.Sym,
		})
		p.InnerGraph().AddVariableUsage(ident.Sym, innergraph.Value(parser.JSDefaultKeyword))
		declLoc := p.Location(decl.Decl.Span())
		p.AddPresentationalDependency(&dependency.HarmonyExportHeaderDependency{
			RangeDecl: &declLoc,
			Range:     p.Location(decl.Range),
		})
		return parser.Stop
	}

	p.InnerGraph().AddVariableUsage(parser.DefaultStarJSWord, innergraph.Value(parser.JSDefaultKeyword))
	p.AddPresentationalDependency(&dependency.HarmonyExportExpressionDependency{
		Range:       p.Location(decl.Decl.Span()),
		RangeStmt:   p.Location(decl.Range),
		Declaration: declaration,
	})
	return parser.Stop
}

// functionDeclarationID covers the header of an anonymous default function
// so code generation can splice a name in front of the parameter list.
func functionDeclarationID(p *parser.Parser, fn *ast.FnExpr) dependency.DeclarationIDFunc {
	end := fn.Range.Hi
	switch {
	case len(fn.Function.Params) > 0:
		end = fn.Function.Params[0].Lo
	case fn.Function.Body != nil:
		end = fn.Function.Body.Lo
	}

	prefix := "function "
	if fn.Function.IsGenerator {
		prefix = "function* "
	}
	if fn.Function.IsAsync {
		prefix = "async " + prefix
	}
	suffix := "("
	if len(fn.Function.Params) == 0 {
		suffix = "() "
	}

	return dependency.DeclarationIDFunc{
		Range:  p.Location(ast.NewSpan(fn.Range.Lo, end)),
		Prefix: prefix,
		Suffix: suffix,
	}
}

// ExportDefaultExpr handles `export default <expr>`. The value is bound to
// the synthetic *default* local.
func (*HarmonyExportPlugin) ExportDefaultExpr(p *parser.Parser, expr *ast.ExportDefaultExpr) parser.HookResult {
	p.ClaimDefaultExport()
	p.InnerGraph().AddVariableUsage(parser.DefaultStarJSWord, innergraph.Value(parser.JSDefaultKeyword))
	p.AddPresentationalDependency(&dependency.HarmonyExportExpressionDependency{
		Range:     p.Location(expr.Expr.Span()),
		RangeStmt: p.Location(expr.Range),
	})
	return parser.Stop
}

// ExportDecl handles `export class|function|let|const|var`.
func (*HarmonyExportPlugin) ExportDecl(p *parser.Parser, decl *ast.ExportDecl) parser.HookResult {
	for _, id := range ast.FindDeclIDs(decl.Decl) {
		p.AddDependency(&dependency.HarmonyExportSpecifierDependency{
			Name:  id.Sym,
			Value: id.Sym,
		})
		p.InnerGraph().AddVariableUsage(id.Sym, innergraph.Value(id.Sym))
		p.RegisterNamedExport(id.Sym)
	}

	declLoc := p.Location(decl.Decl.Span())
	p.AddPresentationalDependency(&dependency.HarmonyExportHeaderDependency{
		RangeDecl: &declLoc,
		Range:     p.Location(decl.Range),
	})
	return parser.Stop
}

// NamedExport handles `export { a, b as c }`. A name bound by an import is
// re-exported straight from its source module; anything else is a local
// export.
func (*HarmonyExportPlugin) NamedExport(p *parser.Parser, decl *ast.NamedExport) parser.HookResult {
	if decl.Src != nil {
		return parser.Unhandled
	}

	for _, spec := range decl.Specifiers {
		named, ok := spec.(*ast.ExportNamedSpecifier)
		if !ok {
			parser.Unsupported("namespace export without source", spec.Span())
		}
		orig := named.Orig.Atom()
		export := orig
		if named.Exported != nil {
			export = named.Exported.Atom()
		}

		if ref, found := p.ImportReference(orig); found {
			ids := []dependency.ExportID{{Exported: export, Imported: ref.Names}}
			usedIDs := []dependency.ExportID{}
			if _, ns := ref.Specifier.(dependency.NamespaceSpecifier); !ns {
				usedIDs = slices.Clone(ids)
			}
			p.AddDependency(&dependency.HarmonyExportImportedSpecifierDependency{
				Request:      ref.Request,
				SourceOrder:  ref.SourceOrder,
				IDs:          ids,
				UsedIDs:      usedIDs,
				Name:         dependency.StrPtr(export),
				Range:        p.Location(named.Range),
				PresenceMode: dependency.CreateExportPresenceMode(p.Options().Presence),
			})
		} else {
			p.AddDependency(&dependency.HarmonyExportSpecifierDependency{
				Name:  export,
				Value: orig,
			})
		}
		p.RegisterNamedExport(export)
		p.InnerGraph().AddVariableUsage(orig, innergraph.Value(export))
	}

	p.AddPresentationalDependency(dependency.NewConstDependency(decl.Range.Lo, decl.Range.Hi, "", nil))
	return parser.Stop
}

var (
	_ parser.NamedExportImportHook = (*HarmonyExportPlugin)(nil)
	_ parser.AllExportImportHook   = (*HarmonyExportPlugin)(nil)
	_ parser.ExportDefaultDeclHook = (*HarmonyExportPlugin)(nil)
	_ parser.ExportDefaultExprHook = (*HarmonyExportPlugin)(nil)
	_ parser.ExportDeclHook        = (*HarmonyExportPlugin)(nil)
	_ parser.NamedExportHook       = (*HarmonyExportPlugin)(nil)
)
