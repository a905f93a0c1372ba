package extract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/esmdeps/internal/cache"
	"github.com/panbanda/esmdeps/internal/graph"
	"github.com/panbanda/esmdeps/pkg/ast/treesitter"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
	"github.com/panbanda/esmdeps/pkg/models"
	tsparser "github.com/panbanda/esmdeps/pkg/parser"
	"github.com/panbanda/esmdeps/pkg/source"
)

const indexJS = `import { a } from "./a";
export { a as b };
export * from "./x";
export * from "./y";
`

func newService(t *testing.T, files map[string]string, opts ...Option) *Service {
	t.Helper()
	return New(append([]Option{WithSource(source.NewMemory(files))}, opts...)...)
}

func TestExtractFile(t *testing.T) {
	svc := newService(t, map[string]string{"src/index.js": indexJS})

	report, err := svc.ExtractFile(context.Background(), "src/index.js")
	require.NoError(t, err)

	assert.Equal(t, "src/index.js", report.Path)
	assert.Equal(t, "javascript", report.Language)
	assert.True(t, report.ESM)
	assert.True(t, report.Strict)
	assert.Equal(t, []string{"b"}, report.NamedExports)
	assert.Equal(t, []string{"./a", "./x", "./y"}, report.Requests())
	assert.NotEmpty(t, report.Hash)

	first := report.Dependencies[0]
	assert.Equal(t, models.KindImport, first.Kind)
	assert.Equal(t, "./a", first.Request)
	assert.Equal(t, 1, first.SourceOrder)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 1, first.Column)

	reexport := report.Dependencies[1]
	assert.Equal(t, models.KindExportImportedSpecifier, reexport.Kind)
	assert.Equal(t, "b", reexport.Name)
	require.Len(t, reexport.IDs, 1)
	require.NotNil(t, reexport.IDs[0].Imported)
	assert.Equal(t, "a", *reexport.IDs[0].Imported)
	assert.Equal(t, 2, reexport.Line)

	stars := report.StarExportRecords()
	require.Len(t, stars, 2)
	assert.Empty(t, stars[0].OtherStarExports)
	assert.Equal(t, []string{stars[0].ID}, stars[1].OtherStarExports)
	assert.Equal(t, []string{stars[0].ID, stars[1].ID}, report.StarExports)

	assert.Equal(t, []string{"b"}, report.InnerGraph["a"])
}

func TestExtractFileScript(t *testing.T) {
	svc := newService(t, map[string]string{"legacy.cjs": "module.exports = 1;\n"})

	report, err := svc.ExtractFile(context.Background(), "legacy.cjs")
	require.NoError(t, err)
	assert.False(t, report.ESM)
	assert.Empty(t, report.Dependencies)
	assert.NotNil(t, report.NamedExports)
}

func TestExtractFileDiagnostics(t *testing.T) {
	svc := newService(t, map[string]string{"dup.js": "export const a = 1;\nexport { a };\n"})

	report, err := svc.ExtractFile(context.Background(), "dup.js")
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "warning", report.Diagnostics[0].Severity)
	assert.Equal(t, 2, report.Diagnostics[0].Line)
}

func TestExtractFilePresentational(t *testing.T) {
	svc := newService(t, map[string]string{"d.js": "export default function () {}\n"})

	report, err := svc.ExtractFile(context.Background(), "d.js")
	require.NoError(t, err)
	require.Len(t, report.Presentational, 1)
	assert.Equal(t, models.KindExportExpression, report.Presentational[0].Kind)
	assert.Equal(t, parser.JSDefaultKeyword, report.Presentational[0].Name)
}

func TestExtractedDefaultExportsLink(t *testing.T) {
	files := map[string]string{
		"/app/a.js":     "export default function named() {}\nexport const x = 1;\n",
		"/app/b.js":     "export default function () {}\n",
		"/app/c.js":     "const c = 1;\nexport { c as default };\n",
		"/app/index.js": "export * from \"./a\";\nexport * from \"./b\";\nexport * from \"./c\";\nexport default 42;\n",
	}
	paths := []string{"/app/a.js", "/app/b.js", "/app/c.js", "/app/index.js"}
	svc := newService(t, files)

	report, err := svc.ExtractFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	for _, m := range report.Modules {
		assert.True(t, m.DefaultExport, m.Path)
	}
	g := graph.Build(report.Modules, graph.NewRelativeResolver(paths))

	tests := []struct {
		path string
		want []models.ExportBinding
	}{
		{"/app/a.js", []models.ExportBinding{
			{Name: "default", Module: "/app/a.js"},
			{Name: "x", Module: "/app/a.js"},
		}},
		{"/app/b.js", []models.ExportBinding{
			{Name: "default", Module: "/app/b.js"},
		}},
		{"/app/index.js", []models.ExportBinding{
			{Name: "default", Module: "/app/index.js"},
			{Name: "x", Module: "/app/a.js", Via: "./a"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			linked, err := g.LinkExports(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, linked.Exports)
		})
	}
}

func TestMissingExportSeverity(t *testing.T) {
	tests := []struct {
		name     string
		presence string
		want     string
	}{
		{"auto in strict module", "", "error"},
		{"warn", "warn", "warning"},
		{"false", "false", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.JavaScript.ExportsPresence = tt.presence
			svc := newService(t, map[string]string{"m.js": "export * from \"./x\";\n"}, WithConfig(cfg))

			report, err := svc.ExtractFile(context.Background(), "m.js")
			require.NoError(t, err)

			stars := report.StarExportRecords()
			require.Len(t, stars, 1)
			assert.Equal(t, tt.want, stars[0].MissingExport)
			for _, d := range report.Dependencies {
				if d.Kind != models.KindExportImportedSpecifier {
					assert.Empty(t, d.MissingExport, d.Kind)
				}
			}
		})
	}
}

func TestExtractFileErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JavaScript.MaxFileSize = 16

	svc := newService(t, map[string]string{
		"broken.js": "export { a from;\n",
		"big.js":    "export const value = 1234567890;\n",
	}, WithConfig(cfg))

	tests := []struct {
		path string
		want error
	}{
		{"missing.js", nil},
		{"broken.js", treesitter.ErrSyntax},
		{"big.js", tsparser.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := svc.ExtractFile(context.Background(), tt.path)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestExtractFileRejectsTypeScriptModuleSyntax(t *testing.T) {
	svc := newService(t, map[string]string{"m.ts": "import x = require(\"x\");\n"})

	_, err := svc.ExtractFile(context.Background(), "m.ts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrUnsupportedSyntax), "got %v", err)
}

func TestExtractFileCanceled(t *testing.T) {
	svc := newService(t, map[string]string{"a.js": "export {};\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ExtractFile(ctx, "a.js")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFiles(t *testing.T) {
	svc := newService(t, map[string]string{
		"src/index.js": indexJS,
		"src/a.js":     "export const a = 1;\n",
		"src/bad.js":   "export {\n",
	})

	report, err := svc.ExtractFiles(context.Background(), []string{"src/index.js", "src/bad.js", "src/a.js"})
	require.NoError(t, err)

	require.Len(t, report.Modules, 2)
	assert.Equal(t, "src/a.js", report.Modules[0].Path)
	assert.Equal(t, "src/index.js", report.Modules[1].Path)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "src/bad.js", report.Errors[0].Path)

	assert.Equal(t, 3, report.Summary.TotalFiles)
	assert.Equal(t, 1, report.Summary.FailedFiles)
	assert.Equal(t, 2, report.Summary.ESMModules)
	assert.Equal(t, 2, report.Summary.NamedExports)
	assert.Equal(t, 2, report.Summary.StarExports)
	assert.Equal(t, 0, report.Summary.CachedFiles)
}

func TestExtractFilesUsesCache(t *testing.T) {
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	require.NoError(t, err)

	files := map[string]string{"a.js": "export const a = 1;\n", "b.js": "export * from \"./a\";\n"}
	svc := newService(t, files, WithCache(c))

	first, err := svc.ExtractFiles(context.Background(), []string{"a.js", "b.js"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Summary.CachedFiles)

	second, err := svc.ExtractFiles(context.Background(), []string{"a.js", "b.js"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Summary.CachedFiles)
	assert.Equal(t, first.Modules, second.Modules)

	files["a.js"] = "export const a = 2, z = 3;\n"
	third := newService(t, files, WithCache(c))
	report, err := third.ExtractFiles(context.Background(), []string{"a.js", "b.js"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.CachedFiles)
	assert.Equal(t, []string{"a", "z"}, report.Modules[0].NamedExports)
}

func TestForget(t *testing.T) {
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), 24, true)
	require.NoError(t, err)

	svc := newService(t, map[string]string{"a.js": "export const a = 1;\n"}, WithCache(c))
	_, err = svc.ExtractFiles(context.Background(), []string{"a.js"})
	require.NoError(t, err)

	u, err := c.Usage()
	require.NoError(t, err)
	assert.Equal(t, 1, u.Entries)

	require.NoError(t, svc.Forget("a.js"))
	require.NoError(t, svc.Forget("a.js"))

	u, err = c.Usage()
	require.NoError(t, err)
	assert.Equal(t, 0, u.Entries)
}

func TestExtractFilesInnerGraphDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JavaScript.InnerGraph = false
	svc := newService(t, map[string]string{"a.js": "const a = 1;\nexport { a };\n"}, WithConfig(cfg))

	report, err := svc.ExtractFiles(context.Background(), []string{"a.js"})
	require.NoError(t, err)
	require.Len(t, report.Modules, 1)
	assert.Nil(t, report.Modules[0].InnerGraph)
}

func TestExtractFilesEmpty(t *testing.T) {
	report, err := newService(t, nil).ExtractFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Modules)
	assert.Equal(t, 0, report.Summary.TotalFiles)
}
