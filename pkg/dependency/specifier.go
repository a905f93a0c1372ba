package dependency

// Specifier describes how an import binding reads its source module.
// One of NamespaceSpecifier, DefaultSpecifier or NamedSpecifier.
type Specifier interface {
	// LocalName returns the binding name in the importing module.
	LocalName() string
	specifier()
}

// NamespaceSpecifier is `* as Name`.
type NamespaceSpecifier struct {
	Name string
}

func (s NamespaceSpecifier) LocalName() string { return s.Name }
func (NamespaceSpecifier) specifier()          {}

// DefaultSpecifier binds the default export to Name.
type DefaultSpecifier struct {
	Name string
}

func (s DefaultSpecifier) LocalName() string { return s.Name }
func (DefaultSpecifier) specifier()          {}

// NamedSpecifier is `{ Exported as Orig }`; Exported is nil when the
// imported name equals the local one.
type NamedSpecifier struct {
	Orig     string
	Exported *string
}

func (s NamedSpecifier) LocalName() string { return s.Orig }
func (NamedSpecifier) specifier()          {}

// ImportedName returns the name read from the source module.
func (s NamedSpecifier) ImportedName() string {
	if s.Exported != nil {
		return *s.Exported
	}
	return s.Orig
}

// DeclarationID identifies the declaration behind a default export so code
// generation can keep its name. One of DeclarationIDIdent or DeclarationIDFunc.
type DeclarationID interface {
	declarationID()
}

// DeclarationIDIdent refers to a named class or function.
type DeclarationIDIdent struct {
	Name string `json:"name"`
}

func (DeclarationIDIdent) declarationID() {}

// DeclarationIDFunc describes an anonymous function whose header must be
// rewritten to give it a name: Range covers `[async ]function[*] (`
// up to the first parameter or the body, and Prefix + name + Suffix replaces it.
type DeclarationIDFunc struct {
	Range  Location `json:"range"`
	Prefix string   `json:"prefix"`
	Suffix string   `json:"suffix"`
}

func (DeclarationIDFunc) declarationID() {}

// ExportID pairs an exported name with the name it reads from the target
// module. Imported is nil when the whole namespace object is exported.
type ExportID struct {
	Exported string  `json:"exported"`
	Imported *string `json:"imported,omitempty"`
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
