package plugin

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/esmdeps/pkg/ast"
	"github.com/panbanda/esmdeps/pkg/ast/treesitter"
	"github.com/panbanda/esmdeps/pkg/dependency"
	"github.com/panbanda/esmdeps/pkg/javascript/parser"
)

func walk(t *testing.T, src string) *parser.Result {
	t.Helper()
	result, err := walkLang(src, ast.LangJavaScript)
	require.NoError(t, err)
	return result
}

func walkLang(src string, lang ast.Language) (*parser.Result, error) {
	provider := treesitter.New()
	defer provider.Close()

	mod, err := provider.ParseSource([]byte(src), lang, "test.js")
	if err != nil {
		return nil, err
	}
	p := parser.New("test.js", []byte(src), parser.WithPlugins(Default()...))
	if err := p.Walk(mod.Program); err != nil {
		return nil, err
	}
	return p.Result(), nil
}

func sideEffect(t *testing.T, d dependency.Dependency) *dependency.HarmonyImportSideEffectDependency {
	t.Helper()
	se, ok := d.(*dependency.HarmonyImportSideEffectDependency)
	require.Truef(t, ok, "got %T, want side effect dependency", d)
	return se
}

func reexport(t *testing.T, d dependency.Dependency) *dependency.HarmonyExportImportedSpecifierDependency {
	t.Helper()
	re, ok := d.(*dependency.HarmonyExportImportedSpecifierDependency)
	require.Truef(t, ok, "got %T, want re-export dependency", d)
	return re
}

func TestImportThenLocalReexport(t *testing.T) {
	src := "import { a } from \"./a\";\nexport { a as b };\n"
	res := walk(t, src)

	require.Len(t, res.Dependencies, 2)
	se := sideEffect(t, res.Dependencies[0])
	assert.Equal(t, "./a", se.Request)
	assert.Equal(t, 1, se.SourceOrder)
	assert.Equal(t, dependency.TypeEsmImport, se.Type())
	assert.False(t, se.ExportAll)

	re := reexport(t, res.Dependencies[1])
	assert.Equal(t, "./a", re.Request)
	assert.Equal(t, 1, re.SourceOrder)
	want := []dependency.ExportID{{Exported: "b", Imported: dependency.StrPtr("a")}}
	assert.Equal(t, want, re.IDs)
	assert.Equal(t, want, re.UsedIDs)
	assert.Equal(t, "b", re.ExportedName())
	assert.False(t, re.ExportAll)
	assert.Equal(t, dependency.ExportPresenceModeAuto, re.PresenceMode)

	assert.Equal(t, []string{"b"}, res.BuildInfo.HarmonyNamedExports.Names())
	assert.Equal(t, []string{"b"}, res.InnerGraph.UsedExports("a"))
	assert.Equal(t, "\n\n", dependency.Render([]byte(src), res.PresentationalDependencies))
}

func TestNamespaceImportReexportHasNoUsedIDs(t *testing.T) {
	res := walk(t, "import * as ns from \"./ns\";\nexport { ns };\n")

	require.Len(t, res.Dependencies, 2)
	re := reexport(t, res.Dependencies[1])
	assert.Equal(t, []dependency.ExportID{{Exported: "ns"}}, re.IDs)
	assert.Empty(t, re.UsedIDs)
	assert.NotNil(t, re.UsedIDs)
}

func TestDefaultImportReexport(t *testing.T) {
	res := walk(t, "import d from \"./d\";\nexport { d as renamed };\n")

	re := reexport(t, res.Dependencies[1])
	require.Len(t, re.IDs, 1)
	require.NotNil(t, re.IDs[0].Imported)
	assert.Equal(t, "default", *re.IDs[0].Imported)
	assert.Equal(t, re.IDs, re.UsedIDs)
}

func TestNamedReexportFromSource(t *testing.T) {
	src := "export { x, y as z } from \"./m\";\n"
	res := walk(t, src)

	require.Len(t, res.Dependencies, 3)
	x := reexport(t, res.Dependencies[0])
	z := reexport(t, res.Dependencies[1])
	se := sideEffect(t, res.Dependencies[2])

	assert.Equal(t, []dependency.ExportID{{Exported: "x", Imported: dependency.StrPtr("x")}}, x.IDs)
	assert.Equal(t, []dependency.ExportID{{Exported: "z", Imported: dependency.StrPtr("y")}}, z.UsedIDs)
	assert.Equal(t, 1, x.SourceOrder)
	assert.Equal(t, 1, z.SourceOrder)
	assert.Equal(t, 1, se.SourceOrder)
	assert.Equal(t, dependency.TypeEsmExport, se.Type())
	assert.False(t, se.ExportAll)

	assert.Equal(t, []string{"x", "z"}, res.BuildInfo.HarmonyNamedExports.Names())
	assert.Equal(t, "\n", dependency.Render([]byte(src), res.PresentationalDependencies))
}

func TestNamespaceReexportFromSource(t *testing.T) {
	res := walk(t, "export * as ns from \"./m\";\n")

	require.Len(t, res.Dependencies, 2)
	ns := reexport(t, res.Dependencies[0])
	assert.Equal(t, []dependency.ExportID{{Exported: "ns"}}, ns.IDs)
	assert.Empty(t, ns.UsedIDs)
	assert.Equal(t, "ns", ns.ExportedName())
	assert.Equal(t, []string{"ns"}, res.BuildInfo.HarmonyNamedExports.Names())
	sideEffect(t, res.Dependencies[1])
}

func TestStarExportsCarryPriorStars(t *testing.T) {
	src := "export * from \"./x\";\nexport * from \"./y\";\nexport * from \"./z\";\n"
	res := walk(t, src)

	require.Len(t, res.Dependencies, 6)
	var stars []*dependency.HarmonyExportImportedSpecifierDependency
	for i := 0; i < 6; i += 2 {
		se := sideEffect(t, res.Dependencies[i])
		assert.True(t, se.ExportAll)
		assert.Equal(t, i/2+1, se.SourceOrder)
		stars = append(stars, reexport(t, res.Dependencies[i+1]))
	}

	assert.Empty(t, stars[0].OtherStarExports)
	assert.Equal(t, []dependency.ID{stars[0].ID()}, stars[1].OtherStarExports)
	assert.Equal(t, []dependency.ID{stars[0].ID(), stars[1].ID()}, stars[2].OtherStarExports)
	for _, s := range stars {
		assert.True(t, s.ExportAll)
		assert.Nil(t, s.Name)
		assert.Empty(t, s.IDs)
	}
	assert.Equal(t, []dependency.ID{stars[0].ID(), stars[1].ID(), stars[2].ID()}, res.BuildInfo.AllStarExports)
	assert.Equal(t, "\n\n\n", dependency.Render([]byte(src), res.PresentationalDependencies))
}

func TestSourceOrderAcrossStatements(t *testing.T) {
	src := `import "./a";
export * from "./b";
export { c } from "./c";
import d from "./d";
`
	res := walk(t, src)

	var orders []int
	for _, d := range res.Dependencies {
		if se, ok := d.(*dependency.HarmonyImportSideEffectDependency); ok {
			orders = append(orders, se.SourceOrder)
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4}, orders)
}

func TestLocalExports(t *testing.T) {
	src := "const a = 1;\nexport { a };\nexport default a;\n"
	res := walk(t, src)

	require.Len(t, res.Dependencies, 1)
	spec, ok := res.Dependencies[0].(*dependency.HarmonyExportSpecifierDependency)
	require.True(t, ok)
	assert.Equal(t, "a", spec.Name)
	assert.Equal(t, "a", spec.Value)

	assert.Equal(t,
		"const a = 1;\n\n/* harmony default export */ const __DEFAULT_EXPORT__ = (a);\n",
		dependency.Render([]byte(src), res.PresentationalDependencies))
	assert.Equal(t, []string{"a"}, res.InnerGraph.UsedExports("a"))
	assert.Equal(t, []string{"default"}, res.InnerGraph.UsedExports(parser.DefaultStarJSWord))
}

func TestExportDeclarations(t *testing.T) {
	src := "export const a = 1, b = 2;\nexport function f() {}\nexport class C {}\n"
	res := walk(t, src)

	var names []string
	for _, d := range res.Dependencies {
		spec := d.(*dependency.HarmonyExportSpecifierDependency)
		assert.Equal(t, spec.Name, spec.Value)
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"a", "b", "f", "C"}, names)
	assert.Equal(t, []string{"a", "b", "f", "C"}, res.BuildInfo.HarmonyNamedExports.Names())
	assert.Equal(t, "const a = 1, b = 2;\nfunction f() {}\nclass C {}\n",
		dependency.Render([]byte(src), res.PresentationalDependencies))
	assert.Empty(t, res.Diagnostics)
}

func TestNamedDefaultDeclaration(t *testing.T) {
	src := "export default class Foo {}"
	res := walk(t, src)

	require.Len(t, res.Dependencies, 1)
	spec := res.Dependencies[0].(*dependency.HarmonyExportSpecifierDependency)
	assert.Equal(t, "default", spec.Name)
	assert.Equal(t, "Foo", spec.Value)

	require.Len(t, res.PresentationalDependencies, 1)
	header := res.PresentationalDependencies[0].(*dependency.HarmonyExportHeaderDependency)
	require.NotNil(t, header.RangeDecl)
	assert.Equal(t, uint32(15), header.RangeDecl.Start)
	assert.Equal(t, uint32(0), header.Range.Start)

	assert.Equal(t, "class Foo {}", dependency.Render([]byte(src), res.PresentationalDependencies))
	assert.Equal(t, []string{"default"}, res.InnerGraph.UsedExports("Foo"))
	assert.Equal(t, 0, res.BuildInfo.HarmonyNamedExports.Len())
}

func TestAnonymousDefaultFunction(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		prefix string
		suffix string
		end    uint32
		render string
	}{
		{
			name:   "no params",
			src:    "export default function () {}",
			prefix: "function ",
			suffix: "() ",
			end:    27,
			render: "function __DEFAULT_EXPORT__() {}",
		},
		{
			name:   "async with params",
			src:    "export default async function (a) {}",
			prefix: "async function ",
			suffix: "(",
			end:    31,
			render: "async function __DEFAULT_EXPORT__(a) {}",
		},
		{
			name:   "generator",
			src:    "export default function* () {}",
			prefix: "function* ",
			suffix: "() ",
			end:    28,
			render: "function* __DEFAULT_EXPORT__() {}",
		},
		{
			name:   "followed by parenthesized statement",
			src:    "export default function () {}\n(1);\n",
			prefix: "function ",
			suffix: "() ",
			end:    27,
			render: "function __DEFAULT_EXPORT__() {}\n(1);\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := walk(t, tt.src)
			assert.Empty(t, res.Dependencies)
			require.Len(t, res.PresentationalDependencies, 1)

			expr := res.PresentationalDependencies[0].(*dependency.HarmonyExportExpressionDependency)
			decl, ok := expr.Declaration.(dependency.DeclarationIDFunc)
			require.True(t, ok, "declaration = %T", expr.Declaration)
			assert.Equal(t, tt.prefix, decl.Prefix)
			assert.Equal(t, tt.suffix, decl.Suffix)
			assert.Equal(t, uint32(15), decl.Range.Start)
			assert.Equal(t, tt.end, decl.Range.End)
			assert.Equal(t, tt.render, dependency.Render([]byte(tt.src), res.PresentationalDependencies))
			assert.Equal(t, []string{"default"}, res.InnerGraph.UsedExports(parser.DefaultStarJSWord))
		})
	}
}

func TestAnonymousDefaultClass(t *testing.T) {
	src := "export default class {}"
	res := walk(t, src)

	require.Len(t, res.PresentationalDependencies, 1)
	expr := res.PresentationalDependencies[0].(*dependency.HarmonyExportExpressionDependency)
	assert.Nil(t, expr.Declaration)
	assert.Equal(t,
		"/* harmony default export */ const __DEFAULT_EXPORT__ = (class {});",
		dependency.Render([]byte(src), res.PresentationalDependencies))
}

func TestDuplicateExportWarning(t *testing.T) {
	res := walk(t, "export const a = 1;\nexport { a };\n")

	require.Len(t, res.Diagnostics, 1)
	diag := res.Diagnostics[0]
	assert.Equal(t, dependency.SeverityWarning, diag.Severity)
	assert.Contains(t, diag.Message, `duplicate export "a"`)
	assert.Equal(t, uint32(20), diag.Loc.Start)
	assert.Equal(t, []string{"a"}, res.BuildInfo.HarmonyNamedExports.Names())
}

func TestDuplicateDefaultExportWarning(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		start uint32
	}{
		{name: "declaration then expression", src: "export default function () {}\nexport default 1;\n", start: 30},
		{name: "specifier then expression", src: "const a = 1;\nexport { a as default };\nexport default 2;\n", start: 38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := walk(t, tt.src)

			require.Len(t, res.Diagnostics, 1)
			diag := res.Diagnostics[0]
			assert.Equal(t, dependency.SeverityWarning, diag.Severity)
			assert.Contains(t, diag.Message, `duplicate export "default"`)
			assert.Equal(t, tt.start, diag.Loc.Start)
		})
	}

	res := walk(t, "export default 1;\n")
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 0, res.BuildInfo.HarmonyNamedExports.Len())
}

func TestHarmonyDetection(t *testing.T) {
	esm := walk(t, "import \"./x\";\n")
	assert.Equal(t, parser.ExportsTypeNamespace, esm.BuildMeta.ExportsType)
	assert.True(t, esm.BuildMeta.StrictHarmonyModule)
	assert.True(t, esm.BuildInfo.Strict)

	script := walk(t, "foo();\n")
	assert.Equal(t, parser.ExportsTypeUnset, script.BuildMeta.ExportsType)
	assert.False(t, script.BuildMeta.StrictHarmonyModule)
	assert.False(t, script.BuildInfo.Strict)
}

func TestUseStrict(t *testing.T) {
	src := "\"use strict\";\nfoo();\n"
	res := walk(t, src)

	assert.True(t, res.BuildInfo.Strict)
	assert.False(t, res.BuildMeta.StrictHarmonyModule)
	assert.Equal(t, "\nfoo();\n", dependency.Render([]byte(src), res.PresentationalDependencies))

	notFirst := walk(t, "foo();\n\"use strict\";\n")
	assert.False(t, notFirst.BuildInfo.Strict)
}

func TestRenderRemovesModuleSyntax(t *testing.T) {
	src := `import a, { b } from "./a";
import * as ns from "./ns";
export * from "./all";
export { x as y } from "./x";
export { a, ns };
export const c = b;
export default function () { return c }
`
	res := walk(t, src)
	out := dependency.Render([]byte(src), res.PresentationalDependencies)

	assert.NotContains(t, out, "import ")
	assert.NotContains(t, out, "export ")
	assert.Contains(t, out, "const c = b;")
	assert.Contains(t, out, "function __DEFAULT_EXPORT__() { return c }")
}

func TestPreconditionViolations(t *testing.T) {
	t.Run("typescript import equals", func(t *testing.T) {
		_, err := walkLang("import fs = require(\"fs\");\n", ast.LangTypeScript)
		require.Error(t, err)
		assert.True(t, errors.Is(err, parser.ErrUnsupportedSyntax))

		var perr *parser.PreconditionError
		require.True(t, errors.As(err, &perr))
		assert.Contains(t, perr.Kind, "import-equals")
	})

	t.Run("export default specifier", func(t *testing.T) {
		src := `export v from "m";`
		program := &ast.Program{
			Range: ast.NewSpan(0, uint32(len(src))),
			Body: []ast.ModuleItem{&ast.NamedExport{
				Range: ast.NewSpan(0, uint32(len(src))),
				Specifiers: []ast.ExportSpecifier{&ast.ExportDefaultSpecifier{
					Range:    ast.NewSpan(7, 8),
					Exported: ast.Ident{Range: ast.NewSpan(7, 8), Sym: "v"},
				}},
				Src: &ast.Str{Range: ast.NewSpan(14, 17), Value: "m"},
			}},
		}
		p := parser.New("test.js", []byte(src), parser.WithPlugins(Default()...))
		err := p.Walk(program)
		require.ErrorIs(t, err, parser.ErrUnsupportedSyntax)
		assert.True(t, strings.Contains(err.Error(), "export default specifier"))
	})

	t.Run("typescript interface statement", func(t *testing.T) {
		program := &ast.Program{
			Body: []ast.ModuleItem{&ast.TsInterfaceDecl{
				Range: ast.NewSpan(0, 12),
				ID:    ast.Ident{Sym: "I"},
			}},
		}
		p := parser.New("test.ts", nil, parser.WithPlugins(Default()...))
		require.ErrorIs(t, p.Walk(program), parser.ErrUnsupportedSyntax)
	})
}

func TestPresenceModeFromOptions(t *testing.T) {
	src := "export { a } from \"./a\";\n"
	provider := treesitter.New()
	defer provider.Close()
	mod, err := provider.ParseSource([]byte(src), ast.LangJavaScript, "test.js")
	require.NoError(t, err)

	opts := parser.DefaultOptions()
	opts.Presence.StrictExportPresence = true
	p := parser.New("test.js", []byte(src), parser.WithOptions(opts), parser.WithPlugins(Default()...))
	require.NoError(t, p.Walk(mod.Program))

	re := reexport(t, p.Dependencies()[0])
	assert.Equal(t, dependency.ExportPresenceModeError, re.PresenceMode)
}

func TestDefaultPluginOrder(t *testing.T) {
	var names []string
	for _, pl := range Default() {
		names = append(names, pl.Name())
	}
	assert.Equal(t, []string{"harmony-detection", "use-strict", "harmony-import", "harmony-export"}, names)
}
