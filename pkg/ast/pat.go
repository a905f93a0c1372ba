package ast

// Pat is a binding pattern.
type Pat interface {
	Span() Span
	pat()
}

// BindingIdent binds a single name.
type BindingIdent struct {
	ID Ident
}

func (b *BindingIdent) Span() Span { return b.ID.Range }
func (*BindingIdent) pat()         {}

// ArrayPat is `[a, , ...rest]`. Holes are nil entries.
type ArrayPat struct {
	Range Span
	Elems []Pat
}

func (a *ArrayPat) Span() Span { return a.Range }
func (*ArrayPat) pat()         {}

// ObjectPat is `{ a, b: c, ...rest }`.
type ObjectPat struct {
	Range Span
	Props []ObjectPatProp
}

func (o *ObjectPat) Span() Span { return o.Range }
func (*ObjectPat) pat()         {}

// ObjectPatProp is one property of an object pattern.
type ObjectPatProp interface {
	Span() Span
	objectPatProp()
}

// KeyValuePatProp is `key: value`.
type KeyValuePatProp struct {
	Range Span
	Key   string
	Value Pat
}

func (k *KeyValuePatProp) Span() Span { return k.Range }
func (*KeyValuePatProp) objectPatProp() {}

// AssignPatProp is the shorthand `key` or `key = default`.
type AssignPatProp struct {
	Range Span
	Key   Ident
	Value Expr
}

func (a *AssignPatProp) Span() Span { return a.Range }
func (*AssignPatProp) objectPatProp() {}

// RestPat is `...arg`.
type RestPat struct {
	Range Span
	Arg   Pat
}

func (r *RestPat) Span() Span { return r.Range }
func (*RestPat) pat()           {}
func (*RestPat) objectPatProp() {}

// AssignPat is `left = right`.
type AssignPat struct {
	Range Span
	Left  Pat
	Right Expr
}

func (a *AssignPat) Span() Span { return a.Range }
func (*AssignPat) pat()         {}

// FindPatIDs returns the identifiers bound by pat, in source order.
func FindPatIDs(pat Pat) []Ident {
	var ids []Ident
	collectPatIDs(pat, &ids)
	return ids
}

func collectPatIDs(pat Pat, ids *[]Ident) {
	switch p := pat.(type) {
	case nil:
	case *BindingIdent:
		*ids = append(*ids, p.ID)
	case *ArrayPat:
		for _, elem := range p.Elems {
			collectPatIDs(elem, ids)
		}
	case *ObjectPat:
		for _, prop := range p.Props {
			switch prop := prop.(type) {
			case *KeyValuePatProp:
				collectPatIDs(prop.Value, ids)
			case *AssignPatProp:
				*ids = append(*ids, prop.Key)
			case *RestPat:
				collectPatIDs(prop.Arg, ids)
			}
		}
	case *RestPat:
		collectPatIDs(p.Arg, ids)
	case *AssignPat:
		collectPatIDs(p.Left, ids)
	}
}

// FindDeclIDs returns the names a declaration introduces, in source order.
// TypeScript-only declarations introduce no runtime names.
func FindDeclIDs(decl Decl) []Ident {
	switch d := decl.(type) {
	case *ClassDecl:
		return []Ident{d.Ident}
	case *FnDecl:
		return []Ident{d.Ident}
	case *VarDecl:
		return declaratorIDs(d.Decls)
	case *UsingDecl:
		return declaratorIDs(d.Decls)
	default:
		return nil
	}
}

func declaratorIDs(decls []VarDeclarator) []Ident {
	var ids []Ident
	for _, d := range decls {
		collectPatIDs(d.Name, &ids)
	}
	return ids
}
