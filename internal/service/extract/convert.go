package extract

import (
	"github.com/panbanda/esmdeps/pkg/dependency"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
	"github.com/panbanda/esmdeps/pkg/models"
	"github.com/panbanda/esmdeps/pkg/source"
)

// NewModuleReport flattens a walk result. content is the module source the
// result was produced from; it is only used to compute positions.
func NewModuleReport(res *parser.Result, language string, content []byte) *models.ModuleReport {
	sm := source.NewMap(res.Resource, content)

	report := &models.ModuleReport{
		Path:         res.Resource,
		Language:     language,
		ESM:          res.BuildMeta.ExportsType == parser.ExportsTypeNamespace,
		Strict:       res.BuildInfo.Strict,
		NamedExports: res.BuildInfo.HarmonyNamedExports.Names(),
		StarExports:  idStrings(res.BuildInfo.AllStarExports),
		Dependencies: make([]models.DependencyRecord, 0, len(res.Dependencies)),
	}
	if report.NamedExports == nil {
		report.NamedExports = []string{}
	}

	for _, d := range res.Dependencies {
		rec := newRecord(d, sm)
		if reexport, ok := d.(*dependency.HarmonyExportImportedSpecifierDependency); ok {
			if severity, reported := reexport.PresenceMode.Severity(res.BuildMeta.StrictHarmonyModule); reported {
				rec.MissingExport = string(severity)
			}
		}
		report.Dependencies = append(report.Dependencies, rec)
		if spec, ok := d.(*dependency.HarmonyExportSpecifierDependency); ok && spec.Name == parser.JSDefaultKeyword {
			report.DefaultExport = true
		}
	}
	for _, d := range res.PresentationalDependencies {
		report.Presentational = append(report.Presentational, newRecord(d, sm))
		if _, ok := d.(*dependency.HarmonyExportExpressionDependency); ok {
			report.DefaultExport = true
		}
	}
	if res.BuildInfo.HarmonyNamedExports.Contains(parser.JSDefaultKeyword) {
		report.DefaultExport = true
	}

	if res.InnerGraph != nil && res.InnerGraph.Enabled() {
		if snapshot := res.InnerGraph.Snapshot(); len(snapshot) > 0 {
			report.InnerGraph = snapshot
		}
	}

	for _, diag := range res.Diagnostics {
		pos := sm.Position(diag.Loc.Start)
		report.Diagnostics = append(report.Diagnostics, models.DiagnosticRecord{
			Severity: string(diag.Severity),
			Message:  diag.Message,
			Line:     pos.Line,
			Column:   pos.Column,
		})
	}

	return report
}

func newRecord(d dependency.Dependency, sm *source.Map) models.DependencyRecord {
	rec := models.DependencyRecord{
		ID:   d.ID().String(),
		Kind: models.DependencyKind(d.Type()),
	}

	switch d := d.(type) {
	case *dependency.HarmonyImportSideEffectDependency:
		rec.Request = d.Request
		rec.SourceOrder = d.SourceOrder
		rec.ExportAll = d.ExportAll
	case *dependency.HarmonyExportImportedSpecifierDependency:
		rec.Request = d.Request
		rec.SourceOrder = d.SourceOrder
		rec.Name = d.ExportedName()
		rec.IDs = exportRefs(d.IDs)
		rec.UsedIDs = exportRefs(d.UsedIDs)
		rec.ExportAll = d.ExportAll
		rec.OtherStarExports = idStrings(d.OtherStarExports)
		rec.PresenceMode = d.PresenceMode.String()
	case *dependency.HarmonyExportSpecifierDependency:
		rec.Name = d.Name
		rec.Value = d.Value
	case *dependency.HarmonyExportExpressionDependency:
		rec.Name = parser.JSDefaultKeyword
	case *dependency.ConstDependency:
		rec.Content = d.Content
	}

	if loc := d.Loc(); loc != nil {
		rec.Start = loc.Start
		rec.End = loc.End
		pos := sm.Position(loc.Start)
		rec.Line = pos.Line
		rec.Column = pos.Column
	}
	return rec
}

func exportRefs(ids []dependency.ExportID) []models.ExportRef {
	if len(ids) == 0 {
		return nil
	}
	refs := make([]models.ExportRef, len(ids))
	for i, id := range ids {
		refs[i] = models.ExportRef{Exported: id.Exported, Imported: id.Imported}
	}
	return refs
}

func idStrings(ids []dependency.ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
