package parser

import (
	"github.com/panbanda/esmdeps/pkg/ast"
)

// preWalkModuleItems discovers bindings and turns import and re-export
// statements into records before any statement is walked.
func (p *Parser) preWalkModuleItems(items []ast.ModuleItem) {
	for _, item := range items {
		p.enterStatement(item.Span())
		p.preWalkModuleItem(item)
		p.leaveStatement()
	}
}

func (p *Parser) preWalkModuleItem(item ast.ModuleItem) {
	switch item := item.(type) {
	case *ast.ImportDecl:
		p.preWalkImportDeclaration(item)
	case *ast.ExportAll:
		p.drive.AllExportImport(p, item, item.Src.Value)
	case *ast.NamedExport:
		if item.Src != nil {
			p.drive.NamedExportImport(p, item, item.Src.Value)
		}
	case *ast.ExportDefaultDecl:
		p.preWalkExportDefaultDeclaration(item)
	case *ast.ExportDefaultExpr:
		// an expression binds nothing
	case *ast.ExportDecl:
		p.preWalkExportDeclaration(item)
	case *ast.TsImportEquals:
		Unsupported("TypeScript import-equals declaration", item.Range)
	case *ast.TsExportAssignment:
		Unsupported("TypeScript export assignment", item.Range)
	case *ast.TsNamespaceExport:
		Unsupported("TypeScript namespace export", item.Range)
	case ast.Stmt:
		p.preWalkStatement(item)
	default:
		Unsupported("unknown module item", item.Span())
	}
}

func (p *Parser) preWalkImportDeclaration(decl *ast.ImportDecl) {
	source := decl.Src.Value
	p.drive.Import(p, decl, source)

	for _, spec := range decl.Specifiers {
		var (
			local      string
			exportName *string
		)
		switch s := spec.(type) {
		case *ast.ImportNamedSpecifier:
			local = s.Local.Sym
			name := s.Local.Sym
			if s.Imported != nil {
				name = s.Imported.Atom()
			}
			exportName = &name
		case *ast.ImportDefaultSpecifier:
			local = s.Local.Sym
			name := JSDefaultKeyword
			exportName = &name
		case *ast.ImportStarAsSpecifier:
			local = s.Local.Sym
		}

		if p.drive.ImportSpecifier(p, decl, spec, source, exportName, local).Bool() {
			p.DefineVariable(local)
		}
	}
}

func (p *Parser) preWalkExportDefaultDeclaration(decl *ast.ExportDefaultDecl) {
	switch d := decl.Decl.(type) {
	case *ast.ClassExpr:
		if d.Ident == nil {
			return
		}
		// A named default class binds its own name, not *default*.
		p.DefineVariable(d.Ident.Sym)
		p.preWalkStatement(&ast.ClassDecl{Range: d.Range, Ident: *d.Ident, Class: d.Class})
	case *ast.FnExpr:
		if d.Ident == nil {
			return
		}
		p.DefineVariable(d.Ident.Sym)
		p.preWalkStatement(&ast.FnDecl{Range: d.Range, Ident: *d.Ident, Function: d.Function})
	case *ast.TsInterfaceDecl:
		Unsupported("TypeScript interface default export", d.Range)
	}
}

func (p *Parser) preWalkExportDeclaration(decl *ast.ExportDecl) {
	p.preWalkStatement(decl.Decl)
	for _, id := range ast.FindDeclIDs(decl.Decl) {
		p.RegisterNamedExport(id.Sym)
	}
}

func (p *Parser) preWalkStatement(stmt ast.Stmt) {
	if p.drive.PreStatement(p, stmt).Bool() {
		return
	}

	switch s := stmt.(type) {
	case *ast.ClassDecl:
		p.DefineVariable(s.Ident.Sym)
	case *ast.FnDecl:
		p.DefineVariable(s.Ident.Sym)
	case *ast.VarDecl:
		for _, d := range s.Decls {
			for _, id := range ast.FindPatIDs(d.Name) {
				p.DefineVariable(id.Sym)
			}
		}
	case *ast.UsingDecl:
		// using bindings are block scoped resources, never exported
	case *ast.TsInterfaceDecl:
		Unsupported("TypeScript interface", s.Range)
	case *ast.TsTypeAliasDecl:
		Unsupported("TypeScript type alias", s.Range)
	case *ast.TsEnumDecl:
		Unsupported("TypeScript enum", s.Range)
	case *ast.TsModuleDecl:
		Unsupported("TypeScript module declaration", s.Range)
	}
}
