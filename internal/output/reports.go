package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/panbanda/esmdeps/pkg/models"
)

// PathFunc rewrites a module path for display.
type PathFunc func(string) string

// Apply rewrites path. A nil PathFunc leaves it unchanged.
func (p PathFunc) Apply(path string) string {
	if p == nil {
		return path
	}
	return p(path)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ExtractReport renders an extraction run. Verbose adds one dependency
// table per module.
func ExtractReport(r *models.ExtractReport, verbose bool, display PathFunc) *Report {
	s := r.Summary
	summary := NewTable("Summary", []string{"Metric", "Value"}, [][]string{
		{"Files", strconv.Itoa(s.TotalFiles)},
		{"ESM modules", strconv.Itoa(s.ESMModules)},
		{"Failed", strconv.Itoa(s.FailedFiles)},
		{"Dependencies", strconv.Itoa(s.Dependencies)},
		{"Presentational", strconv.Itoa(s.Presentational)},
		{"Named exports", strconv.Itoa(s.NamedExports)},
		{"Star exports", strconv.Itoa(s.StarExports)},
		{"Diagnostics", strconv.Itoa(s.Diagnostics)},
		{"From cache", strconv.Itoa(s.CachedFiles)},
	}, nil, s)

	rows := make([][]string, 0, len(r.Modules))
	var diagRows [][]string
	for _, m := range r.Modules {
		path := display.Apply(m.Path)
		rows = append(rows, []string{
			path,
			m.Language,
			yesNo(m.ESM),
			strconv.Itoa(len(m.Requests())),
			strconv.Itoa(len(m.NamedExports)),
			strconv.Itoa(len(m.StarExports)),
			strconv.Itoa(len(m.Diagnostics)),
		})
		for _, d := range m.Diagnostics {
			diagRows = append(diagRows, []string{
				fmt.Sprintf("%s:%d:%d", path, d.Line, d.Column), d.Severity, d.Message,
			})
		}
	}

	report := &Report{
		Title: "ESM Dependencies",
		Data:  r,
		Sections: []Renderable{
			summary,
			NewTable("Modules",
				[]string{"File", "Language", "ESM", "Requests", "Named", "Star", "Diagnostics"},
				rows, nil, r.Modules),
		},
	}

	if verbose {
		for i := range r.Modules {
			report.Sections = append(report.Sections, DependencyTable(&r.Modules[i], display))
		}
	}
	if len(diagRows) > 0 {
		report.Sections = append(report.Sections,
			NewTable("Diagnostics", []string{"Location", "Severity", "Message"}, diagRows, nil, nil))
	}
	if len(r.Errors) > 0 {
		errRows := make([][]string, len(r.Errors))
		for i, e := range r.Errors {
			errRows[i] = []string{display.Apply(e.Path), e.Error}
		}
		report.Sections = append(report.Sections,
			NewTable("Errors", []string{"File", "Error"}, errRows, nil, r.Errors))
	}
	return report
}

// DependencyTable lists the dependency records of one module.
func DependencyTable(m *models.ModuleReport, display PathFunc) *Table {
	rows := make([][]string, 0, len(m.Dependencies)+len(m.Presentational))
	add := func(d models.DependencyRecord, presentational bool) {
		detail := d.Name
		switch {
		case d.IsStarExport():
			detail = "*"
		case d.Value != "" && d.Value != d.Name:
			detail = d.Name + " = " + d.Value
		case d.Content != "":
			detail = strconv.Quote(d.Content)
		}
		kind := string(d.Kind)
		if presentational {
			kind += " (presentational)"
		}
		order := ""
		if d.SourceOrder > 0 {
			order = strconv.Itoa(d.SourceOrder)
		}
		line := ""
		if d.Line > 0 {
			line = fmt.Sprintf("%d:%d", d.Line, d.Column)
		}
		rows = append(rows, []string{kind, d.Request, order, detail, line, d.MissingExport})
	}
	for _, d := range m.Dependencies {
		add(d, false)
	}
	for _, d := range m.Presentational {
		add(d, true)
	}
	return NewTable(display.Apply(m.Path),
		[]string{"Kind", "Request", "Order", "Binding", "Position", "If Missing"},
		rows, nil, m)
}

// GraphReport renders a module graph with its analyses.
func GraphReport(r *models.GraphReport, display PathFunc) *Report {
	name := func(id string) string {
		for _, n := range r.Graph.Nodes {
			if n.ID == id && n.Type == models.NodeExternal {
				return n.Name
			}
		}
		return display.Apply(id)
	}

	s := r.Stats
	report := &Report{
		Title: "Module Graph",
		Data:  r,
		Sections: []Renderable{
			NewTable("Summary", []string{"Metric", "Value"}, [][]string{
				{"Modules", strconv.Itoa(s.Modules)},
				{"External", strconv.Itoa(s.External)},
				{"Edges", strconv.Itoa(s.Edges)},
				{"Re-exports", strconv.Itoa(s.Reexports)},
				{"Cycles", strconv.Itoa(s.Cycles)},
			}, nil, s),
		},
	}

	edges := make([][]string, len(r.Graph.Edges))
	for i, e := range r.Graph.Edges {
		edges[i] = []string{name(e.From), name(e.To), string(e.Type), e.Request}
	}
	report.Sections = append(report.Sections,
		NewTable("Edges", []string{"From", "To", "Type", "Request"}, edges, nil, r.Graph.Edges))

	if len(r.Cycles) > 0 {
		rows := make([][]string, len(r.Cycles))
		for i, c := range r.Cycles {
			members := make([]string, len(c))
			for j, m := range c {
				members[j] = display.Apply(m)
			}
			rows[i] = []string{strconv.Itoa(i + 1), strings.Join(members, " -> ")}
		}
		report.Sections = append(report.Sections,
			NewTable("Cycles", []string{"#", "Modules"}, rows, nil, r.Cycles))
	}

	if len(r.Order) > 0 {
		rows := make([][]string, len(r.Order))
		for i, m := range r.Order {
			rows[i] = []string{strconv.Itoa(i + 1), display.Apply(m)}
		}
		report.Sections = append(report.Sections,
			NewTable("Evaluation Order", []string{"#", "Module"}, rows, nil, r.Order))
	}

	report.Sections = append(report.Sections, &Mermaid{Title: "Diagram", Diagram: r.Graph.ToMermaid()})
	return report
}

// ExportsReport renders the linked exports of one module.
func ExportsReport(r *models.ExportsReport, display PathFunc) *Report {
	rows := make([][]string, len(r.Exports))
	for i, e := range r.Exports {
		rows[i] = []string{e.Name, display.Apply(e.Module), e.Via}
	}

	report := &Report{
		Title: "Exports of " + display.Apply(r.Path),
		Data:  r,
		Sections: []Renderable{
			NewTable("Exports", []string{"Name", "Module", "Via"}, rows,
				[]string{"Total", strconv.Itoa(len(r.Exports)), ""}, r.Exports),
		},
	}

	if len(r.Conflicts) > 0 {
		conflicts := make([][]string, len(r.Conflicts))
		for i, c := range r.Conflicts {
			conflicts[i] = []string{c.Name, c.Winner, strings.Join(c.Shadowed, ", ")}
		}
		report.Sections = append(report.Sections,
			NewTable("Conflicting Star Exports", []string{"Name", "Winner", "Shadowed"}, conflicts, nil, r.Conflicts))
	}
	if len(r.Unresolved) > 0 {
		report.Sections = append(report.Sections, &Section{
			Title:   "Unresolved Star Exports",
			Content: strings.Join(r.Unresolved, "\n"),
			Data:    r.Unresolved,
		})
	}
	return report
}
