// Package graph links extracted modules into a dependency graph and
// resolves the export names each module exposes through star re-exports.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/panbanda/esmdeps/pkg/javascript/parser"
	"github.com/panbanda/esmdeps/pkg/models"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrUnknownModule is returned for a path that is not part of the graph.
var ErrUnknownModule = errors.New("unknown module")

// externalPrefix keeps unresolved request nodes apart from module paths.
const externalPrefix = "external:"

// Graph is the module graph of one extraction run.
type Graph struct {
	modules map[string]*models.ModuleReport
	paths   []string
	// targets maps module -> request -> resolved module path.
	targets map[string]map[string]string

	model     *models.DependencyGraph
	directed  *simple.DirectedGraph
	ids       map[string]int64
	names     map[int64]string
	selfLoops []string
}

// Build links reports into a graph. Edges follow each module's requests
// in source order; requests the resolver cannot place become external
// nodes.
func Build(reports []models.ModuleReport, resolver Resolver) *Graph {
	g := &Graph{
		modules:  make(map[string]*models.ModuleReport, len(reports)),
		targets:  make(map[string]map[string]string, len(reports)),
		model:    models.NewDependencyGraph(),
		directed: simple.NewDirectedGraph(),
		ids:      make(map[string]int64),
		names:    make(map[int64]string),
	}

	for i := range reports {
		r := &reports[i]
		if _, dup := g.modules[r.Path]; dup {
			continue
		}
		g.modules[r.Path] = r
		g.paths = append(g.paths, r.Path)
	}
	sort.Strings(g.paths)

	for _, path := range g.paths {
		g.addNode(path, models.GraphNode{ID: path, Name: path, Type: models.NodeModule, File: path})
	}

	for _, path := range g.paths {
		report := g.modules[path]
		g.targets[path] = make(map[string]string)
		reexports := reexportRequests(report)

		for _, request := range report.Requests() {
			to, ok := resolver.Resolve(path, request)
			if ok {
				if _, known := g.modules[to]; !known {
					ok = false
				}
			}
			if ok {
				g.targets[path][request] = to
			} else {
				to = externalPrefix + request
				if _, seen := g.ids[to]; !seen {
					g.addNode(to, models.GraphNode{ID: to, Name: request, Type: models.NodeExternal})
				}
			}

			edgeType := models.EdgeImport
			if reexports[request] {
				edgeType = models.EdgeReexport
			}
			g.model.AddEdge(models.GraphEdge{
				From:        path,
				To:          to,
				Type:        edgeType,
				Request:     request,
				SourceOrder: sourceOrder(report, request),
			})

			if to == path {
				g.selfLoops = append(g.selfLoops, path)
				continue
			}
			g.directed.SetEdge(simple.Edge{F: simple.Node(g.ids[path]), T: simple.Node(g.ids[to])})
		}
	}

	return g
}

func (g *Graph) addNode(id string, node models.GraphNode) {
	nid := int64(len(g.ids))
	g.ids[id] = nid
	g.names[nid] = id
	g.directed.AddNode(simple.Node(nid))
	g.model.AddNode(node)
}

// reexportRequests returns the requests used by `export ... from`.
func reexportRequests(report *models.ModuleReport) map[string]bool {
	out := make(map[string]bool)
	for _, d := range report.Dependencies {
		if d.Kind == models.KindExportImportedSpecifier || d.Kind == models.KindExport {
			out[d.Request] = true
		}
	}
	return out
}

func sourceOrder(report *models.ModuleReport, request string) int {
	for _, d := range report.Dependencies {
		if d.Request == request {
			return d.SourceOrder
		}
	}
	return 0
}

// Model returns the serializable graph.
func (g *Graph) Model() *models.DependencyGraph {
	return g.model
}

// Modules returns the module paths in sorted order.
func (g *Graph) Modules() []string {
	return append([]string(nil), g.paths...)
}

// Target returns the module a request of from resolved to.
func (g *Graph) Target(from, request string) (string, bool) {
	to, ok := g.targets[from][request]
	return to, ok
}

// Cycles returns the import cycles among modules, each sorted, longest
// first. A module importing itself is a cycle of one.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, scc := range topo.TarjanSCC(g.directed) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]string, 0, len(scc))
		for _, n := range scc {
			cycle = append(cycle, g.names[n.ID()])
		}
		sort.Strings(cycle)
		cycles = append(cycles, cycle)
	}
	seen := make(map[string]bool)
	for _, path := range g.selfLoops {
		if !seen[path] {
			seen[path] = true
			cycles = append(cycles, []string{path})
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i]) != len(cycles[j]) {
			return len(cycles[i]) > len(cycles[j])
		}
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}

// Order returns the modules so that every module follows the modules it
// depends on. It fails when the graph has a cycle.
func (g *Graph) Order() ([]string, error) {
	sorted, err := topo.SortStabilized(g.directed, byID)
	if err != nil {
		var cyclic topo.Unorderable
		if errors.As(err, &cyclic) {
			return nil, fmt.Errorf("import cycle among %d module groups: %w", len(cyclic), err)
		}
		return nil, err
	}

	order := make([]string, 0, len(g.paths))
	for i := len(sorted) - 1; i >= 0; i-- {
		name := g.names[sorted[i].ID()]
		if _, ok := g.modules[name]; ok {
			order = append(order, name)
		}
	}
	return order, nil
}

func byID(nodes []gonum.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// Report runs the graph analyses and bundles the results.
func (g *Graph) Report() *models.GraphReport {
	report := &models.GraphReport{
		Graph:  g.model,
		Cycles: g.Cycles(),
	}
	if order, err := g.Order(); err == nil {
		report.Order = order
	}

	report.Stats.Modules = len(g.paths)
	report.Stats.External = len(g.model.Nodes) - len(g.paths)
	report.Stats.Edges = len(g.model.Edges)
	report.Stats.Cycles = len(report.Cycles)
	for _, e := range g.model.Edges {
		if e.Type == models.EdgeReexport {
			report.Stats.Reexports++
		}
	}
	return report
}

// origin is where an exported name is defined and how it was reached.
type origin struct {
	module string
	via    string
}

// LinkExports lists the names the module at path exposes. Own exports
// always win. A name reachable through several `export *` statements is
// taken from the earliest one: a star record skips every name that one of
// its prior star exports already provides. "default" is never star
// exported.
func (g *Graph) LinkExports(path string) (*models.ExportsReport, error) {
	if _, ok := g.modules[path]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, path)
	}

	report := &models.ExportsReport{Path: path, Exports: []models.ExportBinding{}}
	names, conflicts, unresolved := g.linkExports(path, map[string]bool{})

	for name, o := range names {
		report.Exports = append(report.Exports, models.ExportBinding{Name: name, Module: o.module, Via: o.via})
	}
	sort.Slice(report.Exports, func(i, j int) bool {
		return report.Exports[i].Name < report.Exports[j].Name
	})

	report.Conflicts = conflicts
	report.Unresolved = unresolved
	return report, nil
}

// linkExports resolves the export names of path. Conflicts and unresolved
// requests are only collected for path itself, not for the modules it
// re-exports from.
func (g *Graph) linkExports(path string, visiting map[string]bool) (map[string]origin, []models.ExportConflict, []string) {
	names := make(map[string]origin)
	if visiting[path] {
		return names, nil, nil
	}
	visiting[path] = true
	defer delete(visiting, path)

	report := g.modules[path]
	for _, name := range report.OwnExports() {
		names[name] = origin{module: path}
	}

	stars := report.StarExportRecords()
	provided := make(map[string]map[string]origin, len(stars))
	requestOf := make(map[string]string, len(stars))
	var unresolved []string

	for _, star := range stars {
		requestOf[star.ID] = star.Request
		target, ok := g.Target(path, star.Request)
		if !ok {
			unresolved = append(unresolved, star.Request)
			continue
		}
		inner, _, _ := g.linkExports(target, visiting)
		delete(inner, parser.JSDefaultKeyword)
		provided[star.ID] = inner
	}

	shadowed := make(map[string][]string)
	winner := make(map[string]string)

	for _, star := range stars {
		for name, o := range provided[star.ID] {
			if existing, ok := names[name]; ok && existing.via == "" {
				continue
			}
			earlier := ""
			for _, prior := range star.OtherStarExports {
				if po, ok := provided[prior][name]; ok {
					earlier = prior
					if po.module != o.module {
						shadowed[name] = append(shadowed[name], star.Request)
						winner[name] = requestOf[prior]
					}
					break
				}
			}
			if earlier != "" {
				continue
			}
			names[name] = origin{module: o.module, via: star.Request}
		}
	}

	var conflicts []models.ExportConflict
	for name, requests := range shadowed {
		conflicts = append(conflicts, models.ExportConflict{Name: name, Winner: winner[name], Shadowed: requests})
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Name < conflicts[j].Name })

	return names, conflicts, unresolved
}
