// Package output renders reports as text tables, markdown, JSON, YAML or
// TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	toon "github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "yaml", "yml":
		return FormatYAML
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// IsStructured reports whether the format is a data serialization rather
// than a human-readable rendering.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML || f == FormatTOON
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the value serialized by the structured formats.
	RenderData() any
}

// Formatter writes reports and messages in one format.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter writing to stdout, or to the file at
// output when it is set. File output is never colored.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	if output == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}

	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	return &Formatter{format: format, writer: f, file: f}, nil
}

// NewWriterFormatter creates a formatter over an existing writer.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored returns whether colored output is enabled.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes data in the configured format. Values that are not
// Renderable are serialized; text output falls back to JSON for them.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	switch {
	case f.format.IsStructured() && ok:
		return f.encode(r.RenderData())
	case f.format.IsStructured():
		return f.encode(data)
	case !ok && f.format == FormatMarkdown:
		fmt.Fprintln(f.writer, "```json")
		if err := f.encodeJSON(data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(f.writer, "```")
		return err
	case !ok:
		return f.encodeJSON(data)
	case f.format == FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) encode(data any) error {
	switch f.format {
	case FormatYAML:
		return f.encodeYAML(data)
	case FormatTOON:
		return f.encodeTOON(data)
	default:
		return f.encodeJSON(data)
	}
}

func (f *Formatter) encodeJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// encodeYAML writes data as YAML using its JSON field names.
func (f *Formatter) encodeYAML(data any) error {
	generic, err := jsonValue(data)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return err
	}
	return encoder.Close()
}

// encodeTOON writes data as TOON using its JSON field names.
func (f *Formatter) encodeTOON(data any) error {
	generic, err := jsonValue(data)
	if err != nil {
		return err
	}
	out, err := toon.Marshal(generic, toon.WithIndent(2))
	if err != nil {
		return err
	}
	if _, err := f.writer.Write(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer)
	return err
}

// jsonValue round-trips data through JSON so every encoder sees the same
// field names and omissions.
func jsonValue(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// message writes one line. Plain output carries the prefix instead of
// the color.
func (f *Formatter) message(attr color.Attribute, prefix, format string, args ...any) {
	if f.colored {
		color.New(attr).Fprintf(f.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.writer, prefix+format+"\n", args...)
}

func (f *Formatter) Success(format string, args ...any) {
	f.message(color.FgGreen, "", format, args...)
}

func (f *Formatter) Warning(format string, args ...any) {
	f.message(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) Error(format string, args ...any) {
	f.message(color.FgRed, "ERROR: ", format, args...)
}

func (f *Formatter) Info(format string, args ...any) {
	f.message(color.FgCyan, "", format, args...)
}

// SeverityColor colors text by diagnostic severity.
func SeverityColor(severity, text string) string {
	switch strings.ToLower(severity) {
	case "error":
		return color.RedString(text)
	case "warning":
		return color.YellowString(text)
	case "ok":
		return color.GreenString(text)
	default:
		return text
	}
}
