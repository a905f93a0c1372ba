package ast

import "fmt"

// Span is a half-open byte range [Lo, Hi) into the module source.
type Span struct {
	Lo uint32 `json:"lo"`
	Hi uint32 `json:"hi"`
}

// NewSpan creates a span from byte offsets.
func NewSpan(lo, hi uint32) Span {
	return Span{Lo: lo, Hi: hi}
}

// Len returns the number of bytes covered.
func (s Span) Len() uint32 {
	if s.Hi < s.Lo {
		return 0
	}
	return s.Hi - s.Lo
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return s.Lo <= other.Lo && other.Hi <= s.Hi
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Lo, s.Hi)
}

// Program is the root of a module tree.
type Program struct {
	Range Span
	Body  []ModuleItem
}

// Span returns the program range.
func (p *Program) Span() Span { return p.Range }

// ModuleItem is a top-level item: either a ModuleDecl or a Stmt.
type ModuleItem interface {
	Span() Span
	moduleItem()
}

// ModuleDecl is an import or export declaration.
type ModuleDecl interface {
	ModuleItem
	moduleDecl()
}

// Stmt is a top-level statement.
type Stmt interface {
	ModuleItem
	stmt()
}

// Decl is a declaration statement.
type Decl interface {
	Stmt
	decl()
}

// DefaultDecl is the declaration carried by `export default`.
// One of *ClassExpr, *FnExpr or *TsInterfaceDecl.
type DefaultDecl interface {
	Span() Span
	defaultDecl()
}

// Expr is an expression. Only the shapes dependency extraction inspects are
// modelled; everything else is an *OpaqueExpr.
type Expr interface {
	Span() Span
	expr()
}

// Ident is an identifier reference or binding.
type Ident struct {
	Range Span
	Sym   string
}

func (i *Ident) Span() Span { return i.Range }
func (*Ident) expr()        {}

// Str is a string literal with its decoded value.
type Str struct {
	Range Span
	Value string
	Raw   string
}

func (s *Str) Span() Span { return s.Range }
func (*Str) expr()        {}

// ModuleExportName is an import/export name, either an identifier or a
// string literal (`export { a as "a-b" }`).
type ModuleExportName struct {
	Range    Span
	Value    string
	IsString bool
}

// Atom returns the name as written, without quotes.
func (n ModuleExportName) Atom() string { return n.Value }

// NameFromIdent builds an identifier-form export name.
func NameFromIdent(id Ident) ModuleExportName {
	return ModuleExportName{Range: id.Range, Value: id.Sym}
}

// Function is the shared shape of function declarations and expressions.
type Function struct {
	Range       Span
	Params      []Span
	Body        *Span
	IsAsync     bool
	IsGenerator bool
}

// Class is the shared shape of class declarations and expressions.
type Class struct {
	Range Span
}

// FnExpr is a function expression, possibly named.
type FnExpr struct {
	Range    Span
	Ident    *Ident
	Function Function
}

func (f *FnExpr) Span() Span { return f.Range }
func (*FnExpr) expr()        {}
func (*FnExpr) defaultDecl() {}

// ClassExpr is a class expression, possibly named.
type ClassExpr struct {
	Range Span
	Ident *Ident
	Class Class
}

func (c *ClassExpr) Span() Span { return c.Range }
func (*ClassExpr) expr()        {}
func (*ClassExpr) defaultDecl() {}

// OpaqueExpr is any expression whose inner structure is irrelevant here.
type OpaqueExpr struct {
	Range Span
	Kind  string
}

func (o *OpaqueExpr) Span() Span { return o.Range }
func (*OpaqueExpr) expr()        {}

// ---------------------------------------------------------------------------
// Module declarations

// ImportDecl is `import ... from "src"` or `import "src"`.
type ImportDecl struct {
	Range      Span
	Src        Str
	Specifiers []ImportSpecifier
}

func (d *ImportDecl) Span() Span { return d.Range }
func (*ImportDecl) moduleItem()  {}
func (*ImportDecl) moduleDecl()  {}

// ImportSpecifier is one binding of an import declaration.
type ImportSpecifier interface {
	Span() Span
	importSpecifier()
}

// ImportNamedSpecifier is `{ imported as local }` or `{ local }`.
type ImportNamedSpecifier struct {
	Range    Span
	Local    Ident
	Imported *ModuleExportName
}

func (s *ImportNamedSpecifier) Span() Span { return s.Range }
func (*ImportNamedSpecifier) importSpecifier() {}

// ImportDefaultSpecifier is the `local` in `import local from "m"`.
type ImportDefaultSpecifier struct {
	Range Span
	Local Ident
}

func (s *ImportDefaultSpecifier) Span() Span { return s.Range }
func (*ImportDefaultSpecifier) importSpecifier() {}

// ImportStarAsSpecifier is `* as local`.
type ImportStarAsSpecifier struct {
	Range Span
	Local Ident
}

func (s *ImportStarAsSpecifier) Span() Span { return s.Range }
func (*ImportStarAsSpecifier) importSpecifier() {}

// ExportAll is `export * from "src"`.
type ExportAll struct {
	Range Span
	Src   Str
}

func (e *ExportAll) Span() Span { return e.Range }
func (*ExportAll) moduleItem()  {}
func (*ExportAll) moduleDecl()  {}

// NamedExport is `export { ... }` with an optional source.
type NamedExport struct {
	Range      Span
	Specifiers []ExportSpecifier
	Src        *Str
}

func (e *NamedExport) Span() Span { return e.Range }
func (*NamedExport) moduleItem()  {}
func (*NamedExport) moduleDecl()  {}

// ExportSpecifier is one entry of a named export.
type ExportSpecifier interface {
	Span() Span
	exportSpecifier()
}

// ExportNamespaceSpecifier is `* as name`.
type ExportNamespaceSpecifier struct {
	Range Span
	Name  ModuleExportName
}

func (s *ExportNamespaceSpecifier) Span() Span { return s.Range }
func (*ExportNamespaceSpecifier) exportSpecifier() {}

// ExportDefaultSpecifier is the `v` in the `export v from "m"` proposal.
type ExportDefaultSpecifier struct {
	Range    Span
	Exported Ident
}

func (s *ExportDefaultSpecifier) Span() Span { return s.Range }
func (*ExportDefaultSpecifier) exportSpecifier() {}

// ExportNamedSpecifier is `orig as exported` or `orig`.
type ExportNamedSpecifier struct {
	Range    Span
	Orig     ModuleExportName
	Exported *ModuleExportName
}

func (s *ExportNamedSpecifier) Span() Span { return s.Range }
func (*ExportNamedSpecifier) exportSpecifier() {}

// ExportDefaultDecl is `export default class|function ...`.
type ExportDefaultDecl struct {
	Range Span
	Decl  DefaultDecl
}

func (e *ExportDefaultDecl) Span() Span { return e.Range }
func (*ExportDefaultDecl) moduleItem()  {}
func (*ExportDefaultDecl) moduleDecl()  {}

// ExportDefaultExpr is `export default <expr>;`.
type ExportDefaultExpr struct {
	Range Span
	Expr  Expr
}

func (e *ExportDefaultExpr) Span() Span { return e.Range }
func (*ExportDefaultExpr) moduleItem()  {}
func (*ExportDefaultExpr) moduleDecl()  {}

// ExportDecl is `export <declaration>`.
type ExportDecl struct {
	Range Span
	Decl  Decl
}

func (e *ExportDecl) Span() Span { return e.Range }
func (*ExportDecl) moduleItem()  {}
func (*ExportDecl) moduleDecl()  {}

// TsImportEquals is `import x = require("m")` or `import x = A.B`.
type TsImportEquals struct {
	Range    Span
	ID       Ident
	IsExport bool
}

func (t *TsImportEquals) Span() Span { return t.Range }
func (*TsImportEquals) moduleItem()  {}
func (*TsImportEquals) moduleDecl()  {}

// TsExportAssignment is `export = expr`.
type TsExportAssignment struct {
	Range Span
}

func (t *TsExportAssignment) Span() Span { return t.Range }
func (*TsExportAssignment) moduleItem()  {}
func (*TsExportAssignment) moduleDecl()  {}

// TsNamespaceExport is `export as namespace X`.
type TsNamespaceExport struct {
	Range Span
	ID    Ident
}

func (t *TsNamespaceExport) Span() Span { return t.Range }
func (*TsNamespaceExport) moduleItem()  {}
func (*TsNamespaceExport) moduleDecl()  {}

// ---------------------------------------------------------------------------
// Statements

// VarDeclKind is the keyword of a variable declaration.
type VarDeclKind string

const (
	VarDeclVar   VarDeclKind = "var"
	VarDeclLet   VarDeclKind = "let"
	VarDeclConst VarDeclKind = "const"
)

// ClassDecl is `class Name {}`.
type ClassDecl struct {
	Range Span
	Ident Ident
	Class Class
}

func (d *ClassDecl) Span() Span { return d.Range }
func (*ClassDecl) moduleItem()  {}
func (*ClassDecl) stmt()        {}
func (*ClassDecl) decl()        {}

// FnDecl is `function name() {}`.
type FnDecl struct {
	Range    Span
	Ident    Ident
	Function Function
}

func (d *FnDecl) Span() Span { return d.Range }
func (*FnDecl) moduleItem()  {}
func (*FnDecl) stmt()        {}
func (*FnDecl) decl()        {}

// VarDeclarator is one `name = init` entry.
type VarDeclarator struct {
	Range Span
	Name  Pat
	Init  Expr
}

// VarDecl is a var/let/const declaration.
type VarDecl struct {
	Range Span
	Kind  VarDeclKind
	Decls []VarDeclarator
}

func (d *VarDecl) Span() Span { return d.Range }
func (*VarDecl) moduleItem()  {}
func (*VarDecl) stmt()        {}
func (*VarDecl) decl()        {}

// UsingDecl is `using x = ...` or `await using x = ...`.
type UsingDecl struct {
	Range   Span
	IsAwait bool
	Decls   []VarDeclarator
}

func (d *UsingDecl) Span() Span { return d.Range }
func (*UsingDecl) moduleItem()  {}
func (*UsingDecl) stmt()        {}
func (*UsingDecl) decl()        {}

// TsInterfaceDecl is a TypeScript interface.
type TsInterfaceDecl struct {
	Range Span
	ID    Ident
}

func (d *TsInterfaceDecl) Span() Span { return d.Range }
func (*TsInterfaceDecl) moduleItem()  {}
func (*TsInterfaceDecl) stmt()        {}
func (*TsInterfaceDecl) decl()        {}
func (*TsInterfaceDecl) defaultDecl() {}

// TsTypeAliasDecl is a TypeScript type alias.
type TsTypeAliasDecl struct {
	Range Span
	ID    Ident
}

func (d *TsTypeAliasDecl) Span() Span { return d.Range }
func (*TsTypeAliasDecl) moduleItem()  {}
func (*TsTypeAliasDecl) stmt()        {}
func (*TsTypeAliasDecl) decl()        {}

// TsEnumDecl is a TypeScript enum.
type TsEnumDecl struct {
	Range Span
	ID    Ident
}

func (d *TsEnumDecl) Span() Span { return d.Range }
func (*TsEnumDecl) moduleItem()  {}
func (*TsEnumDecl) stmt()        {}
func (*TsEnumDecl) decl()        {}

// TsModuleDecl is a TypeScript namespace or module block.
type TsModuleDecl struct {
	Range Span
	ID    Ident
}

func (d *TsModuleDecl) Span() Span { return d.Range }
func (*TsModuleDecl) moduleItem()  {}
func (*TsModuleDecl) stmt()        {}
func (*TsModuleDecl) decl()        {}

// ExprStmt is an expression statement.
type ExprStmt struct {
	Range Span
	Expr  Expr
}

func (s *ExprStmt) Span() Span { return s.Range }
func (*ExprStmt) moduleItem()  {}
func (*ExprStmt) stmt()        {}

// IsDirective reports whether the statement is the string directive value,
// e.g. "use strict".
func (s *ExprStmt) IsDirective(value string) bool {
	str, ok := s.Expr.(*Str)
	return ok && str.Value == value
}

// OtherStmt is any statement kind that carries no module linkage
// (if, for, blocks, labelled statements, ...).
type OtherStmt struct {
	Range Span
	Kind  string
}

func (s *OtherStmt) Span() Span { return s.Range }
func (*OtherStmt) moduleItem()  {}
func (*OtherStmt) stmt()        {}
