package treesitter

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/parser"
)

// lowerer converts a JavaScript or TypeScript tree-sitter tree into the
// module tree the dependency walker consumes. TypeScript-only syntax that
// has no runtime meaning is erased here; enums and namespaces become var
// bindings.
type lowerer struct {
	src []byte
}

func span(n *sitter.Node) ast.Span {
	return ast.NewSpan(n.StartByte(), n.EndByte())
}

func (l *lowerer) text(n *sitter.Node) string {
	return parser.GetNodeText(n, l.src)
}

func (l *lowerer) ident(n *sitter.Node) ast.Ident {
	return ast.Ident{Range: span(n), Sym: l.text(n)}
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// hasToken reports whether n has the anonymous child tok, e.g. a keyword.
func hasToken(n *sitter.Node, tok string) bool {
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if c != nil && !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

func (l *lowerer) program(root *sitter.Node) *ast.Program {
	prog := &ast.Program{Range: span(root)}
	for _, c := range namedChildren(root) {
		if item := l.moduleItem(c); item != nil {
			prog.Body = append(prog.Body, item)
		}
		if tail := l.defaultExportTail(c); tail != nil {
			prog.Body = append(prog.Body, tail)
		}
	}
	return prog
}

func (l *lowerer) moduleItem(n *sitter.Node) ast.ModuleItem {
	switch n.Type() {
	case "import_statement":
		return l.importStatement(n)
	case "import_alias":
		return l.importEquals(n, false)
	case "export_statement":
		return l.exportStatement(n)
	case "hash_bang_line":
		return nil
	}
	if stmt := l.statement(n); stmt != nil {
		return stmt
	}
	return nil
}

// ---------------------------------------------------------------------------
// Imports

func (l *lowerer) importStatement(n *sitter.Node) ast.ModuleItem {
	if hasToken(n, "type") || hasToken(n, "typeof") {
		return nil
	}

	decl := &ast.ImportDecl{Range: span(n)}
	typeOnly := 0
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "import_require_clause":
			return l.importEquals(c, false)
		case "import_clause":
			specs, dropped := l.importClause(c)
			decl.Specifiers = specs
			typeOnly += dropped
		}
	}

	src := n.ChildByFieldName("source")
	if src == nil {
		return nil
	}
	decl.Src = l.str(src)

	// `import { type A } from "m"` disappears entirely once A is erased.
	if typeOnly > 0 && len(decl.Specifiers) == 0 {
		return nil
	}
	return decl
}

func (l *lowerer) importClause(n *sitter.Node) (specs []ast.ImportSpecifier, typeOnly int) {
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "identifier":
			specs = append(specs, &ast.ImportDefaultSpecifier{Range: span(c), Local: l.ident(c)})
		case "namespace_import":
			if id := lastNamedChild(c); id != nil {
				specs = append(specs, &ast.ImportStarAsSpecifier{Range: span(c), Local: l.ident(id)})
			}
		case "named_imports":
			for _, s := range namedChildren(c) {
				if s.Type() != "import_specifier" {
					continue
				}
				if hasToken(s, "type") || hasToken(s, "typeof") {
					typeOnly++
					continue
				}
				specs = append(specs, l.importSpecifier(s))
			}
		}
	}
	return specs, typeOnly
}

func (l *lowerer) importSpecifier(n *sitter.Node) ast.ImportSpecifier {
	spec := &ast.ImportNamedSpecifier{Range: span(n)}
	name := n.ChildByFieldName("name")
	if alias := n.ChildByFieldName("alias"); alias != nil {
		imported := l.exportName(name)
		spec.Imported = &imported
		spec.Local = l.ident(alias)
	} else {
		spec.Local = l.ident(name)
	}
	return spec
}

// importEquals lowers `import x = require("m")` and `import x = A.B`.
func (l *lowerer) importEquals(n *sitter.Node, isExport bool) ast.ModuleItem {
	item := &ast.TsImportEquals{Range: span(n), IsExport: isExport}
	for _, c := range namedChildren(n) {
		if c.Type() == "identifier" {
			item.ID = l.ident(c)
			break
		}
	}
	return item
}

// ---------------------------------------------------------------------------
// Exports

func (l *lowerer) exportStatement(n *sitter.Node) ast.ModuleItem {
	r := span(n)

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		if hasToken(n, "default") {
			return l.exportDefaultDeclaration(n, decl)
		}
		if decl.Type() == "import_alias" {
			return l.importEquals(decl, true)
		}
		d, ok := l.declaration(decl)
		if !ok || d == nil {
			return nil
		}
		return &ast.ExportDecl{Range: r, Decl: d}
	}

	switch {
	case hasToken(n, "="):
		return &ast.TsExportAssignment{Range: r}
	case hasToken(n, "namespace"):
		item := &ast.TsNamespaceExport{Range: r}
		if id := lastNamedChild(n); id != nil {
			item.ID = l.ident(id)
		}
		return item
	case hasToken(n, "import"):
		return l.importEquals(n, true)
	case hasToken(n, "type"):
		return nil
	}

	if value := n.ChildByFieldName("value"); value != nil {
		return l.exportDefaultValue(n, value)
	}

	var src *ast.Str
	if source := n.ChildByFieldName("source"); source != nil {
		s := l.str(source)
		src = &s
	}

	var (
		specs    []ast.ExportSpecifier
		typeOnly int
		hasSpecs bool
	)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "export_clause":
			hasSpecs = true
			for _, s := range namedChildren(c) {
				if s.Type() != "export_specifier" {
					continue
				}
				if hasToken(s, "type") {
					typeOnly++
					continue
				}
				specs = append(specs, l.exportSpecifier(s))
			}
		case "namespace_export":
			hasSpecs = true
			if name := lastNamedChild(c); name != nil {
				specs = append(specs, &ast.ExportNamespaceSpecifier{Range: span(c), Name: l.exportName(name)})
			}
		}
	}

	if !hasSpecs && hasToken(n, "*") && src != nil {
		// Older grammars inline `* as name` into the statement.
		if hasToken(n, "as") {
			if name := l.starAsName(n); name != nil {
				specs = append(specs, &ast.ExportNamespaceSpecifier{
					Range: ast.NewSpan(firstToken(n, "*").StartByte(), name.EndByte()),
					Name:  l.exportName(name),
				})
				return &ast.NamedExport{Range: r, Specifiers: specs, Src: src}
			}
		}
		return &ast.ExportAll{Range: r, Src: *src}
	}

	if typeOnly > 0 && len(specs) == 0 {
		return nil
	}
	return &ast.NamedExport{Range: r, Specifiers: specs, Src: src}
}

func firstToken(n *sitter.Node, tok string) *sitter.Node {
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if c != nil && !c.IsNamed() && c.Type() == tok {
			return c
		}
	}
	return n
}

// starAsName returns the name following `* as` in an export statement.
func (l *lowerer) starAsName(n *sitter.Node) *sitter.Node {
	seenAs := false
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if !c.IsNamed() && c.Type() == "as" {
			seenAs = true
			continue
		}
		if seenAs && c.IsNamed() && c.Type() != "comment" {
			return c
		}
	}
	return nil
}

func (l *lowerer) exportSpecifier(n *sitter.Node) ast.ExportSpecifier {
	spec := &ast.ExportNamedSpecifier{
		Range: span(n),
		Orig:  l.exportName(n.ChildByFieldName("name")),
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		exported := l.exportName(alias)
		spec.Exported = &exported
	}
	return spec
}

func (l *lowerer) exportName(n *sitter.Node) ast.ModuleExportName {
	if n == nil {
		return ast.ModuleExportName{}
	}
	if n.Type() == "string" {
		s := l.str(n)
		return ast.ModuleExportName{Range: s.Range, Value: s.Value, IsString: true}
	}
	return ast.NameFromIdent(l.ident(n))
}

func (l *lowerer) exportDefaultDeclaration(stmt, decl *sitter.Node) ast.ModuleItem {
	r := span(stmt)
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		return &ast.ExportDefaultDecl{Range: r, Decl: l.fnExpr(decl)}
	case "class_declaration", "abstract_class_declaration":
		return &ast.ExportDefaultDecl{Range: r, Decl: l.classExpr(decl)}
	case "interface_declaration", "function_signature", "ambient_declaration", "type_alias_declaration":
		return nil
	}
	return &ast.ExportDefaultExpr{Range: r, Expr: l.expr(decl)}
}

func (l *lowerer) exportDefaultValue(stmt, value *sitter.Node) ast.ModuleItem {
	head, split := defaultValueHead(value)
	r := span(stmt)
	if split {
		r = ast.NewSpan(stmt.StartByte(), head.EndByte())
	}
	switch head.Type() {
	case "function", "function_expression", "generator_function":
		return &ast.ExportDefaultDecl{Range: r, Decl: l.fnExpr(head)}
	case "class":
		return &ast.ExportDefaultDecl{Range: r, Decl: l.classExpr(head)}
	}
	return &ast.ExportDefaultExpr{Range: r, Expr: l.expr(value)}
}

// defaultValueHead finds the anonymous function or class an `export default`
// value starts with. The declaration ends at its closing brace, but the
// grammar reads a following line that opens with `(`, `[` or a template as
// a call or member access on it. split reports whether such a tail exists.
func defaultValueHead(value *sitter.Node) (head *sitter.Node, split bool) {
	head = value
	for {
		var next *sitter.Node
		switch head.Type() {
		case "call_expression":
			next = head.ChildByFieldName("function")
		case "member_expression", "subscript_expression":
			next = head.ChildByFieldName("object")
		}
		if next == nil {
			break
		}
		head = next
	}
	switch head.Type() {
	case "function", "function_expression", "generator_function", "class":
		return head, head != value
	}
	return value, false
}

// defaultExportTail returns the statement glued onto an anonymous default
// function or class, or nil.
func (l *lowerer) defaultExportTail(n *sitter.Node) ast.ModuleItem {
	if n.Type() != "export_statement" || n.ChildByFieldName("declaration") != nil || !hasToken(n, "default") {
		return nil
	}
	value := n.ChildByFieldName("value")
	if value == nil {
		return nil
	}
	head, split := defaultValueHead(value)
	if !split {
		return nil
	}
	start := head.EndByte()
	for start < value.EndByte() && isSpace(l.src[start]) {
		start++
	}
	return &ast.ExprStmt{
		Range: ast.NewSpan(start, n.EndByte()),
		Expr:  &ast.OpaqueExpr{Range: ast.NewSpan(start, value.EndByte()), Kind: value.Type()},
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ---------------------------------------------------------------------------
// Statements and declarations

func (l *lowerer) statement(n *sitter.Node) ast.Stmt {
	if d, ok := l.declaration(n); ok {
		if d == nil {
			return nil
		}
		return d
	}

	switch n.Type() {
	case "expression_statement":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return &ast.OtherStmt{Range: span(n), Kind: n.Type()}
		}
		// `namespace A {}` parses as an expression statement.
		if kids[0].Type() == "internal_module" {
			if d, _ := l.declaration(kids[0]); d != nil {
				return d
			}
			return nil
		}
		return &ast.ExprStmt{Range: span(n), Expr: l.expr(kids[0])}
	case "comment":
		return nil
	}
	return &ast.OtherStmt{Range: span(n), Kind: n.Type()}
}

// declaration lowers n if it is a declaration node. ok is false for any
// other node; a nil Decl with ok true means the declaration was erased.
func (l *lowerer) declaration(n *sitter.Node) (ast.Decl, bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		return &ast.FnDecl{
			Range:    span(n),
			Ident:    l.ident(n.ChildByFieldName("name")),
			Function: l.function(n),
		}, true
	case "class_declaration", "abstract_class_declaration":
		return &ast.ClassDecl{
			Range: span(n),
			Ident: l.ident(n.ChildByFieldName("name")),
			Class: ast.Class{Range: span(n)},
		}, true
	case "lexical_declaration", "variable_declaration":
		return l.varDecl(n), true
	case "enum_declaration", "internal_module", "module":
		name := n.ChildByFieldName("name")
		if name == nil || name.Type() == "string" {
			return nil, true
		}
		for name.Type() == "nested_identifier" && name.NamedChildCount() > 0 {
			name = name.NamedChild(0)
		}
		id := l.ident(name)
		return &ast.VarDecl{
			Range: span(n),
			Kind:  ast.VarDeclVar,
			Decls: []ast.VarDeclarator{{Range: span(n), Name: &ast.BindingIdent{ID: id}}},
		}, true
	case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
		return nil, true
	}
	return nil, false
}

func (l *lowerer) varDecl(n *sitter.Node) *ast.VarDecl {
	decl := &ast.VarDecl{Range: span(n), Kind: ast.VarDeclVar}
	if n.Type() == "lexical_declaration" {
		kind := n.ChildByFieldName("kind")
		if kind == nil && n.ChildCount() > 0 {
			kind = n.Child(0)
		}
		if kind != nil && l.text(kind) == "let" {
			decl.Kind = ast.VarDeclLet
		} else {
			decl.Kind = ast.VarDeclConst
		}
	}

	for _, c := range namedChildren(n) {
		if c.Type() != "variable_declarator" {
			continue
		}
		name := l.pat(c.ChildByFieldName("name"))
		if name == nil {
			continue
		}
		d := ast.VarDeclarator{Range: span(c), Name: name}
		if v := c.ChildByFieldName("value"); v != nil {
			d.Init = l.expr(v)
		}
		decl.Decls = append(decl.Decls, d)
	}
	return decl
}

func (l *lowerer) function(n *sitter.Node) ast.Function {
	f := ast.Function{
		Range:       span(n),
		IsAsync:     hasToken(n, "async"),
		IsGenerator: hasToken(n, "*") || strings.HasPrefix(n.Type(), "generator_"),
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			f.Params = append(f.Params, span(p))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		s := span(body)
		f.Body = &s
	}
	return f
}

func (l *lowerer) fnExpr(n *sitter.Node) *ast.FnExpr {
	fn := &ast.FnExpr{Range: span(n), Function: l.function(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		id := l.ident(name)
		fn.Ident = &id
	}
	return fn
}

func (l *lowerer) classExpr(n *sitter.Node) *ast.ClassExpr {
	cls := &ast.ClassExpr{Range: span(n), Class: ast.Class{Range: span(n)}}
	if name := n.ChildByFieldName("name"); name != nil {
		id := l.ident(name)
		cls.Ident = &id
	}
	return cls
}

// ---------------------------------------------------------------------------
// Patterns

func (l *lowerer) pat(n *sitter.Node) ast.Pat {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return &ast.BindingIdent{ID: l.ident(n)}
	case "object_pattern":
		return l.objectPat(n)
	case "array_pattern":
		return l.arrayPat(n)
	case "assignment_pattern":
		left := l.pat(n.ChildByFieldName("left"))
		if left == nil {
			return nil
		}
		return &ast.AssignPat{Range: span(n), Left: left, Right: l.optExpr(n.ChildByFieldName("right"))}
	case "rest_pattern":
		if rest := l.restPat(n); rest != nil {
			return rest
		}
	}
	return nil
}

func (l *lowerer) restPat(n *sitter.Node) *ast.RestPat {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	arg := l.pat(kids[0])
	if arg == nil {
		return nil
	}
	return &ast.RestPat{Range: span(n), Arg: arg}
}

func (l *lowerer) objectPat(n *sitter.Node) *ast.ObjectPat {
	obj := &ast.ObjectPat{Range: span(n)}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "shorthand_property_identifier_pattern":
			obj.Props = append(obj.Props, &ast.AssignPatProp{Range: span(c), Key: l.ident(c)})
		case "pair_pattern":
			value := l.pat(c.ChildByFieldName("value"))
			if value == nil {
				continue
			}
			obj.Props = append(obj.Props, &ast.KeyValuePatProp{
				Range: span(c),
				Key:   l.text(c.ChildByFieldName("key")),
				Value: value,
			})
		case "object_assignment_pattern":
			left := c.ChildByFieldName("left")
			right := l.optExpr(c.ChildByFieldName("right"))
			if left == nil {
				continue
			}
			if left.Type() == "shorthand_property_identifier_pattern" || left.Type() == "identifier" {
				obj.Props = append(obj.Props, &ast.AssignPatProp{Range: span(c), Key: l.ident(left), Value: right})
				continue
			}
			if inner := l.pat(left); inner != nil {
				obj.Props = append(obj.Props, &ast.KeyValuePatProp{
					Range: span(c),
					Value: &ast.AssignPat{Range: span(c), Left: inner, Right: right},
				})
			}
		case "rest_pattern":
			if rest := l.restPat(c); rest != nil {
				obj.Props = append(obj.Props, rest)
			}
		}
	}
	return obj
}

func (l *lowerer) arrayPat(n *sitter.Node) *ast.ArrayPat {
	arr := &ast.ArrayPat{Range: span(n)}
	expectElem := false
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		switch {
		case !c.IsNamed() && c.Type() == "[":
			expectElem = true
		case !c.IsNamed() && c.Type() == ",":
			if expectElem {
				arr.Elems = append(arr.Elems, nil)
			}
			expectElem = true
		case c.IsNamed():
			if p := l.pat(c); p != nil {
				arr.Elems = append(arr.Elems, p)
			} else {
				arr.Elems = append(arr.Elems, nil)
			}
			expectElem = false
		}
	}
	return arr
}

// ---------------------------------------------------------------------------
// Expressions

func (l *lowerer) optExpr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	return l.expr(n)
}

func (l *lowerer) expr(n *sitter.Node) ast.Expr {
	switch n.Type() {
	case "identifier":
		id := l.ident(n)
		return &id
	case "string":
		s := l.str(n)
		return &s
	case "function", "function_expression", "generator_function":
		return l.fnExpr(n)
	case "class":
		return l.classExpr(n)
	}
	return &ast.OpaqueExpr{Range: span(n), Kind: n.Type()}
}

func (l *lowerer) str(n *sitter.Node) ast.Str {
	s := ast.Str{Range: span(n), Raw: l.text(n)}
	var b strings.Builder
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "string_fragment":
			b.WriteString(l.text(c))
		case "escape_sequence":
			b.WriteString(unescape(l.text(c)))
		}
	}
	s.Value = b.String()
	return s
}

// unescape decodes one JavaScript escape sequence.
func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case '\n', '\r', 0xe2:
		// line continuation
		return ""
	case '0':
		if len(seq) == 2 {
			return "\x00"
		}
	case 'u':
		if len(seq) > 3 && seq[2] == '{' && strings.HasSuffix(seq, "}") {
			if v, err := strconv.ParseUint(seq[3:len(seq)-1], 16, 32); err == nil {
				return string(rune(v))
			}
		}
	}
	for _, quote := range []byte{'"', '\''} {
		if v, _, tail, err := strconv.UnquoteChar(seq, quote); err == nil && tail == "" {
			return string(v)
		}
	}
	return seq[1:]
}
