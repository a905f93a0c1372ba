package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// heading writes title underlined with rule. Colored output applies attrs
// to the title only.
func heading(w io.Writer, title string, rule byte, colored bool, attrs ...color.Attribute) {
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(string(rule), len(title)))
}

func mdHeading(w io.Writer, level int, title string) {
	fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), title)
}

func mdRow(w io.Writer, cells []string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

// Table is a Renderable grid with an optional footer row. Data, when set,
// replaces the rows in structured output.
type Table struct {
	Title   string     `json:"-"`
	Headers []string   `json:"-"`
	Rows    [][]string `json:"-"`
	Footer  []string   `json:"-"`
	Data    any        `json:"data,omitempty"`
}

func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{Title: title, Headers: headers, Rows: rows, Footer: footer, Data: data}
}

// RenderData returns Data, or each row keyed by header.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]string, len(t.Headers))
		for i := 0; i < len(t.Headers) && i < len(row); i++ {
			record[t.Headers[i]] = row[i]
		}
		records = append(records, record)
	}
	return records
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		heading(w, t.Title, '=', colored, color.Bold)
		fmt.Fprintln(w)
	}

	left := tw.CellAlignment{Global: tw.AlignLeft}
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  left,
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row:    tw.CellConfig{Alignment: left},
			Footer: tw.CellConfig{Alignment: left},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders:  tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
		}),
	)

	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, cell := range t.Footer {
			footer[i] = cell
		}
		table.Footer(footer...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		mdHeading(w, 2, t.Title)
	}
	mdRow(w, t.Headers)
	rule := make([]string, len(t.Headers))
	for i := range rule {
		rule[i] = "---"
	}
	mdRow(w, rule)
	for _, row := range t.Rows {
		mdRow(w, row)
	}
	if len(t.Footer) > 0 {
		mdRow(w, t.Footer)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Section is a block of free text with nested subsections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.writeText(w, colored, '=')
	return nil
}

// writeText renders s and its subsections. Nested titles use a dashed rule.
func (s *Section) writeText(w io.Writer, colored bool, rule byte) {
	if s.Title != "" {
		heading(w, s.Title, rule, colored, color.Bold)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for i := range s.Sections {
		fmt.Fprintln(w)
		s.Sections[i].writeText(w, colored, '-')
	}
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	s.writeMarkdown(w, 2)
	return nil
}

func (s *Section) writeMarkdown(w io.Writer, level int) {
	if s.Title != "" {
		mdHeading(w, level, s.Title)
	}
	if s.Content != "" {
		fmt.Fprintf(w, "%s\n\n", s.Content)
	}
	for i := range s.Sections {
		s.Sections[i].writeMarkdown(w, level+1)
	}
}

// Report is a titled sequence of Renderables.
type Report struct {
	Title    string       `json:"title,omitempty"`
	Sections []Renderable `json:"-"`
	Data     any          `json:"data,omitempty"`
}

// RenderData returns Data, or the title with each section's data.
func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	sections := make([]any, 0, len(r.Sections))
	for _, s := range r.Sections {
		sections = append(sections, s.RenderData())
	}
	return map[string]any{"title": r.Title, "sections": sections}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		heading(w, r.Title, '=', colored, color.Bold, color.FgCyan)
		fmt.Fprintln(w)
	}
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		mdHeading(w, 1, r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

// Mermaid is a Renderable diagram. Markdown wraps it in a mermaid fence.
type Mermaid struct {
	Title   string
	Diagram string
}

func (m *Mermaid) RenderData() any {
	return map[string]string{"mermaid": m.Diagram}
}

func (m *Mermaid) RenderText(w io.Writer, colored bool) error {
	if m.Title != "" {
		heading(w, m.Title, '=', colored, color.Bold)
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprint(w, m.Diagram)
	return err
}

func (m *Mermaid) RenderMarkdown(w io.Writer) error {
	if m.Title != "" {
		mdHeading(w, 2, m.Title)
	}
	_, err := fmt.Fprintf(w, "```mermaid\n%s```\n\n", m.Diagram)
	return err
}
