package models

import "strings"

// GraphNode represents a module in the dependency graph.
type GraphNode struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type NodeType `json:"type"`
	// File is empty for requests that did not resolve to a scanned module.
	File string `json:"file,omitempty"`
}

// NodeType represents the type of graph node.
type NodeType string

const (
	NodeModule   NodeType = "module"
	NodeExternal NodeType = "external"
)

// GraphEdge represents a request from one module to another.
type GraphEdge struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Type        EdgeType `json:"type"`
	Request     string   `json:"request"`
	SourceOrder int      `json:"source_order"`
}

// EdgeType represents the type of dependency.
type EdgeType string

const (
	EdgeImport   EdgeType = "import"
	EdgeReexport EdgeType = "reexport"
)

// DependencyGraph represents the full graph structure.
type DependencyGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphReport is a dependency graph plus the analyses run over it.
type GraphReport struct {
	Graph *DependencyGraph `json:"graph"`
	// Order lists modules so that every module comes after its
	// dependencies. Empty when the graph has cycles.
	Order  []string     `json:"order,omitempty"`
	Cycles [][]string   `json:"cycles,omitempty"`
	Stats  GraphSummary `json:"summary"`
}

// GraphSummary provides aggregate graph statistics.
type GraphSummary struct {
	Modules   int `json:"modules"`
	External  int `json:"external"`
	Edges     int `json:"edges"`
	Reexports int `json:"reexports"`
	Cycles    int `json:"cycles"`
}

// ToMermaid generates Mermaid diagram syntax from the graph.
func (g *DependencyGraph) ToMermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		label := node.Name
		if label == "" {
			label = node.ID
		}
		open, closing := "[\"", "\"]"
		if node.Type == NodeExternal {
			open, closing = "([\"", "\"])"
		}
		b.WriteString("    " + sanitizeMermaidID(node.ID) + open + label + closing + "\n")
	}

	for _, edge := range g.Edges {
		arrow := "-->"
		if edge.Type == EdgeReexport {
			arrow = "-.->|reexports|"
		}
		b.WriteString("    " + sanitizeMermaidID(edge.From) + " " + arrow + " " + sanitizeMermaidID(edge.To) + "\n")
	}

	return b.String()
}

// sanitizeMermaidID makes an ID safe for Mermaid.
func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		Nodes: make([]GraphNode, 0),
		Edges: make([]GraphEdge, 0),
	}
}

// AddNode adds a node to the graph.
func (g *DependencyGraph) AddNode(node GraphNode) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the graph.
func (g *DependencyGraph) AddEdge(edge GraphEdge) {
	g.Edges = append(g.Edges, edge)
}

// ExportBinding says where an exported name of a module comes from.
type ExportBinding struct {
	Name string `json:"name"`
	// Module is the module that defines the binding, Via the star
	// re-export request it was reached through (empty for own exports).
	Module string `json:"module"`
	Via    string `json:"via,omitempty"`
}

// ExportConflict is a name provided by more than one star re-export.
// The earliest star export wins; Shadowed lists the others.
type ExportConflict struct {
	Name     string   `json:"name"`
	Winner   string   `json:"winner"`
	Shadowed []string `json:"shadowed"`
}

// ExportsReport lists the linked exports of one module.
type ExportsReport struct {
	Path       string           `json:"path"`
	Exports    []ExportBinding  `json:"exports"`
	Conflicts  []ExportConflict `json:"conflicts,omitempty"`
	Unresolved []string         `json:"unresolved,omitempty"`
}
