package models

import (
	"strings"
	"testing"
)

func TestNewDependencyGraph(t *testing.T) {
	g := NewDependencyGraph()

	if g == nil {
		t.Fatal("NewDependencyGraph() returned nil")
	}
	if g.Nodes == nil {
		t.Error("Nodes should be initialized")
	}
	if g.Edges == nil {
		t.Error("Edges should be initialized")
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("graph should be empty, got %d nodes %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestDependencyGraph_AddNodeAndEdge(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(GraphNode{ID: "src/a.js", Name: "src/a.js", Type: NodeModule})
	g.AddNode(GraphNode{ID: "react", Name: "react", Type: NodeExternal})
	g.AddEdge(GraphEdge{From: "src/a.js", To: "react", Type: EdgeImport, Request: "react"})

	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(g.Nodes))
	}
	if g.Nodes[1].Type != NodeExternal {
		t.Errorf("second node type = %s, want external", g.Nodes[1].Type)
	}
	if len(g.Edges) != 1 || g.Edges[0].Request != "react" {
		t.Errorf("unexpected edges %+v", g.Edges)
	}
}

func TestDependencyGraph_ToMermaid(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode(GraphNode{ID: "src/a.js", Name: "src/a.js", Type: NodeModule})
	g.AddNode(GraphNode{ID: "src/b.js", Type: NodeModule})
	g.AddNode(GraphNode{ID: "lodash", Name: "lodash", Type: NodeExternal})
	g.AddEdge(GraphEdge{From: "src/a.js", To: "src/b.js", Type: EdgeImport})
	g.AddEdge(GraphEdge{From: "src/b.js", To: "lodash", Type: EdgeReexport})

	got := g.ToMermaid()

	want := []string{
		"graph TD\n",
		`    src_a_js["src/a.js"]`,
		`    src_b_js["src/b.js"]`,
		`    lodash(["lodash"])`,
		"    src_a_js --> src_b_js",
		"    src_b_js -.->|reexports| lodash",
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("ToMermaid() missing %q in:\n%s", w, got)
		}
	}
}

func TestSanitizeMermaidID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"simple", "simple"},
		{"src/index.ts", "src_index_ts"},
		{"@scope/pkg", "_scope_pkg"},
		{"a-b c", "a_b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeMermaidID(tt.in); got != tt.want {
				t.Errorf("sanitizeMermaidID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
