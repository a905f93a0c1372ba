package parser

import (
	"github.com/panbanda/esmdeps/pkg/ast"
)

// walkModuleItems visits local exports and plain statements. Imports and
// re-exports were fully handled by pre-walk.
func (p *Parser) walkModuleItems(items []ast.ModuleItem) {
	for _, item := range items {
		p.enterStatement(item.Span())
		p.walkModuleItem(item)
		p.leaveStatement()
	}
}

func (p *Parser) walkModuleItem(item ast.ModuleItem) {
	switch item := item.(type) {
	case *ast.ImportDecl, *ast.ExportAll:
	case *ast.NamedExport:
		if item.Src == nil {
			p.drive.NamedExport(p, item)
		}
	case *ast.ExportDefaultDecl:
		p.drive.ExportDefaultDecl(p, item)
		p.walkDefaultDecl(item.Decl)
	case *ast.ExportDefaultExpr:
		p.drive.ExportDefaultExpr(p, item)
	case *ast.ExportDecl:
		p.drive.ExportDecl(p, item)
		p.walkStatement(item.Decl)
	case ast.Stmt:
		p.walkStatement(item)
	}
}

func (p *Parser) walkDefaultDecl(decl ast.DefaultDecl) {
	switch d := decl.(type) {
	case *ast.ClassExpr:
		if d.Ident != nil {
			p.DefineVariable(d.Ident.Sym)
		}
	case *ast.FnExpr:
		if d.Ident != nil {
			p.DefineVariable(d.Ident.Sym)
		}
	}
}

func (p *Parser) walkStatement(stmt ast.Stmt) {
	if p.drive.Statement(p, stmt).Bool() {
		return
	}
	switch s := stmt.(type) {
	case *ast.ClassDecl:
		p.DefineVariable(s.Ident.Sym)
	case *ast.FnDecl:
		p.DefineVariable(s.Ident.Sym)
	}
}
