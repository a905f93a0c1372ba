package dependency

// HarmonyImportSideEffectDependency keeps the target module in the graph
// (and evaluated in order) for every import or re-export statement, whether
// or not any binding of it is used.
type HarmonyImportSideEffectDependency struct {
	Meta
	Request        string   `json:"request"`
	SourceOrder    int      `json:"source_order"`
	Range          Location `json:"range"`
	SourceRange    Location `json:"source_range"`
	DependencyType Type     `json:"dependency_type"`
	ExportAll      bool     `json:"export_all"`
}

func (d *HarmonyImportSideEffectDependency) Type() Type { return d.DependencyType }
func (d *HarmonyImportSideEffectDependency) Loc() *Location { return &d.Range }
func (d *HarmonyImportSideEffectDependency) ModuleRequest() string { return d.Request }
func (d *HarmonyImportSideEffectDependency) ImportOrder() int { return d.SourceOrder }

// ConstDependency replaces [Start, End) with Content during code generation.
type ConstDependency struct {
	Meta
	Start               uint32   `json:"start"`
	End                 uint32   `json:"end"`
	Content             string   `json:"content"`
	RuntimeRequirements []string `json:"runtime_requirements,omitempty"`
}

// NewConstDependency creates a replacement record.
func NewConstDependency(start, end uint32, content string, runtimeRequirements []string) *ConstDependency {
	return &ConstDependency{Start: start, End: end, Content: content, RuntimeRequirements: runtimeRequirements}
}

func (*ConstDependency) Type() Type { return TypeConst }
func (d *ConstDependency) Loc() *Location {
	return &Location{Start: d.Start, End: d.End}
}

var (
	_ ModuleDependency = (*HarmonyImportSideEffectDependency)(nil)
	_ ModuleDependency = (*HarmonyExportImportedSpecifierDependency)(nil)
)
