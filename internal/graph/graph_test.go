package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/esmdeps/pkg/models"
)

func module(path string, named []string, deps ...models.DependencyRecord) models.ModuleReport {
	return models.ModuleReport{Path: path, ESM: true, NamedExports: named, Dependencies: deps}
}

func withDefault(m models.ModuleReport) models.ModuleReport {
	m.DefaultExport = true
	return m
}

func imp(request string, order int) models.DependencyRecord {
	return models.DependencyRecord{Kind: models.KindImport, Request: request, SourceOrder: order}
}

func star(id, request string, order int, prior ...string) models.DependencyRecord {
	return models.DependencyRecord{
		ID:               id,
		Kind:             models.KindExportImportedSpecifier,
		Request:          request,
		SourceOrder:      order,
		ExportAll:        true,
		OtherStarExports: prior,
	}
}

func build(reports ...models.ModuleReport) *Graph {
	paths := make([]string, len(reports))
	for i, r := range reports {
		paths[i] = r.Path
	}
	return Build(reports, NewRelativeResolver(paths))
}

func TestRelativeResolver(t *testing.T) {
	r := NewRelativeResolver([]string{
		"/app/src/a.js",
		"/app/src/util.ts",
		"/app/src/lib/index.ts",
		"/app/src/data.json.js",
	})

	tests := []struct {
		request string
		want    string
		ok      bool
	}{
		{"./a", "/app/src/a.js", true},
		{"./a.js", "/app/src/a.js", true},
		{"./util", "/app/src/util.ts", true},
		{"./util.js", "/app/src/util.ts", true},
		{"./lib", "/app/src/lib/index.ts", true},
		{"../src/a", "/app/src/a.js", true},
		{"/app/src/a.js", "/app/src/a.js", true},
		{"./data.json", "/app/src/data.json.js", true},
		{"./missing", "", false},
		{"react", "", false},
		{"@scope/pkg/sub", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			got, ok := r.Resolve("/app/src/index.js", tt.request)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild(t *testing.T) {
	g := build(
		module("/app/index.js", nil, imp("./a", 1), star("s1", "./b", 2), imp("react", 3)),
		module("/app/a.js", []string{"a"}, imp("./b", 1)),
		module("/app/b.js", []string{"b"}),
	)

	assert.Equal(t, []string{"/app/a.js", "/app/b.js", "/app/index.js"}, g.Modules())

	model := g.Model()
	require.Len(t, model.Nodes, 4)
	assert.Equal(t, models.NodeExternal, model.Nodes[3].Type)
	assert.Equal(t, "react", model.Nodes[3].Name)

	require.Len(t, model.Edges, 4)
	var fromIndex []models.GraphEdge
	for _, e := range model.Edges {
		if e.From == "/app/index.js" {
			fromIndex = append(fromIndex, e)
		}
	}
	require.Len(t, fromIndex, 3)
	assert.Equal(t, "./a", fromIndex[0].Request)
	assert.Equal(t, models.EdgeImport, fromIndex[0].Type)
	assert.Equal(t, "/app/b.js", fromIndex[1].To)
	assert.Equal(t, models.EdgeReexport, fromIndex[1].Type)
	assert.Equal(t, 2, fromIndex[1].SourceOrder)
	assert.Equal(t, "external:react", fromIndex[2].To)

	to, ok := g.Target("/app/index.js", "./a")
	assert.True(t, ok)
	assert.Equal(t, "/app/a.js", to)
	_, ok = g.Target("/app/index.js", "react")
	assert.False(t, ok)

	order, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"/app/b.js", "/app/a.js", "/app/index.js"}, order)
	assert.Empty(t, g.Cycles())
}

func TestBuildSkipsDuplicateReports(t *testing.T) {
	g := build(module("/app/a.js", []string{"a"}), module("/app/a.js", []string{"other"}))
	assert.Equal(t, []string{"/app/a.js"}, g.Modules())
	assert.Len(t, g.Model().Nodes, 1)
}

func TestCycles(t *testing.T) {
	g := build(
		module("/app/a.js", nil, imp("./b", 1)),
		module("/app/b.js", nil, imp("./a", 1)),
		module("/app/c.js", nil, imp("./c", 1)),
		module("/app/d.js", nil, imp("./a", 1)),
	)

	assert.Equal(t, [][]string{{"/app/a.js", "/app/b.js"}, {"/app/c.js"}}, g.Cycles())

	_, err := g.Order()
	assert.Error(t, err)

	report := g.Report()
	assert.Nil(t, report.Order)
	assert.Equal(t, 2, report.Stats.Cycles)
	assert.Equal(t, 4, report.Stats.Modules)
	assert.Equal(t, 0, report.Stats.External)
}

func TestReport(t *testing.T) {
	g := build(
		module("/app/index.js", nil, star("s1", "./a", 1), imp("lodash", 2)),
		module("/app/a.js", []string{"a"}),
	)

	report := g.Report()
	assert.Equal(t, []string{"/app/a.js", "/app/index.js"}, report.Order)
	assert.Equal(t, models.GraphSummary{Modules: 2, External: 1, Edges: 2, Reexports: 1}, report.Stats)
	assert.Contains(t, report.Graph.ToMermaid(), "-.->|reexports|")
}

func TestLinkExports(t *testing.T) {
	g := build(
		module("/app/index.js", []string{"own"},
			star("s1", "./x", 1),
			star("s2", "./y", 2, "s1"),
			star("s3", "lodash", 3, "s1", "s2"),
		),
		withDefault(module("/app/x.js", []string{"a", "shared"})),
		module("/app/y.js", []string{"b", "shared", "own"}),
	)

	report, err := g.LinkExports("/app/index.js")
	require.NoError(t, err)

	assert.Equal(t, []models.ExportBinding{
		{Name: "a", Module: "/app/x.js", Via: "./x"},
		{Name: "b", Module: "/app/y.js", Via: "./y"},
		{Name: "own", Module: "/app/index.js"},
		{Name: "shared", Module: "/app/x.js", Via: "./x"},
	}, report.Exports)
	assert.Equal(t, []models.ExportConflict{
		{Name: "shared", Winner: "./x", Shadowed: []string{"./y"}},
	}, report.Conflicts)
	assert.Equal(t, []string{"lodash"}, report.Unresolved)
}

func TestLinkExportsNested(t *testing.T) {
	g := build(
		module("/app/outer.js", nil, star("o1", "./inner", 1)),
		module("/app/inner.js", []string{"i"}, star("i1", "./leaf", 1)),
		withDefault(module("/app/leaf.js", []string{"leaf"})),
	)

	report, err := g.LinkExports("/app/outer.js")
	require.NoError(t, err)
	assert.Equal(t, []models.ExportBinding{
		{Name: "i", Module: "/app/inner.js", Via: "./inner"},
		{Name: "leaf", Module: "/app/leaf.js", Via: "./inner"},
	}, report.Exports)
	assert.Empty(t, report.Conflicts)
}

func TestLinkExportsOwnDefault(t *testing.T) {
	g := build(
		withDefault(module("/app/index.js", nil, star("s1", "./a", 1))),
		withDefault(module("/app/a.js", []string{"x"})),
	)

	tests := []struct {
		path string
		want []models.ExportBinding
	}{
		{"/app/a.js", []models.ExportBinding{
			{Name: "default", Module: "/app/a.js"},
			{Name: "x", Module: "/app/a.js"},
		}},
		{"/app/index.js", []models.ExportBinding{
			{Name: "default", Module: "/app/index.js"},
			{Name: "x", Module: "/app/a.js", Via: "./a"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			report, err := g.LinkExports(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Exports)
		})
	}
}

func TestLinkExportsSameOriginIsNotAConflict(t *testing.T) {
	g := build(
		module("/app/m.js", nil, star("m1", "./x", 1), star("m2", "./w", 2, "m1")),
		module("/app/w.js", nil, star("w1", "./x", 1)),
		module("/app/x.js", []string{"a"}),
	)

	report, err := g.LinkExports("/app/m.js")
	require.NoError(t, err)
	assert.Equal(t, []models.ExportBinding{{Name: "a", Module: "/app/x.js", Via: "./x"}}, report.Exports)
	assert.Empty(t, report.Conflicts)
}

func TestLinkExportsStarCycle(t *testing.T) {
	g := build(
		module("/app/p.js", []string{"p1"}, star("p", "./q", 1)),
		module("/app/q.js", []string{"q1"}, star("q", "./p", 1)),
	)

	report, err := g.LinkExports("/app/p.js")
	require.NoError(t, err)
	assert.Equal(t, []models.ExportBinding{
		{Name: "p1", Module: "/app/p.js"},
		{Name: "q1", Module: "/app/q.js", Via: "./q"},
	}, report.Exports)
}

func TestLinkExportsUnknownModule(t *testing.T) {
	_, err := build().LinkExports("/nope.js")
	assert.True(t, errors.Is(err, ErrUnknownModule))
}
