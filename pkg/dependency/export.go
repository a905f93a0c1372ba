package dependency

// HarmonyExportSpecifierDependency exports the local binding Value as Name.
type HarmonyExportSpecifierDependency struct {
	Meta
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (*HarmonyExportSpecifierDependency) Type() Type { return TypeEsmExportSpecifier }
func (*HarmonyExportSpecifierDependency) Loc() *Location { return nil }

// HarmonyExportExpressionDependency rewrites `export default <expr|decl>`.
// Range covers the expression or declaration, RangeStmt the whole statement.
// Declaration is nil when the default export has no name to preserve.
type HarmonyExportExpressionDependency struct {
	Meta
	Range       Location      `json:"range"`
	RangeStmt   Location      `json:"range_stmt"`
	Declaration DeclarationID `json:"declaration,omitempty"`
}

func (*HarmonyExportExpressionDependency) Type() Type { return TypeEsmExportExpression }
func (d *HarmonyExportExpressionDependency) Loc() *Location { return &d.RangeStmt }

// HarmonyExportHeaderDependency strips the `export` keyword (and `default`)
// in front of a declaration. RangeDecl is nil when the whole statement goes.
type HarmonyExportHeaderDependency struct {
	Meta
	RangeDecl *Location `json:"range_decl,omitempty"`
	Range     Location  `json:"range"`
}

func (*HarmonyExportHeaderDependency) Type() Type { return TypeEsmExportHeader }
func (d *HarmonyExportHeaderDependency) Loc() *Location { return &d.Range }

// HarmonyExportImportedSpecifierDependency re-exports bindings of another
// module. For `export *` ExportAll is set, IDs is empty and OtherStarExports
// holds the star re-exports that precede this one in the module.
type HarmonyExportImportedSpecifierDependency struct {
	Meta
	Request          string             `json:"request"`
	SourceOrder      int                `json:"source_order"`
	IDs              []ExportID         `json:"ids"`
	UsedIDs          []ExportID         `json:"used_ids"`
	Name             *string            `json:"name,omitempty"`
	ExportAll        bool               `json:"export_all"`
	OtherStarExports []ID               `json:"other_star_exports,omitempty"`
	Range            Location           `json:"range"`
	PresenceMode     ExportPresenceMode `json:"export_presence_mode"`
}

func (*HarmonyExportImportedSpecifierDependency) Type() Type {
	return TypeEsmExportImportedSpecifier
}
func (d *HarmonyExportImportedSpecifierDependency) Loc() *Location { return &d.Range }
func (d *HarmonyExportImportedSpecifierDependency) ModuleRequest() string { return d.Request }
func (d *HarmonyExportImportedSpecifierDependency) ImportOrder() int { return d.SourceOrder }

// ExportedName returns the re-exported name, or "" for `export *`.
func (d *HarmonyExportImportedSpecifierDependency) ExportedName() string {
	if d.Name == nil {
		return ""
	}
	return *d.Name
}
