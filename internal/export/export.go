// Package export renders analysis and lineage results as tables, JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Format is an export encoding.
type Format string

// Export formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "table":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected text, markdown, csv, json or yaml)", s)
	}
}

// Table is a rectangular result ready for rendering.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Append adds a row.
func (t *Table) Append(values ...string) {
	t.Rows = append(t.Rows, values)
}

func (t *Table) writer(w io.Writer, style table.Style) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(style)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		tw.AppendRow(row)
	}
	return tw
}

// plainHeaders keeps column names exactly as given.
func plainHeaders() table.Style {
	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	return style
}

// RenderText writes a boxed table followed by a row count.
func RenderText(w io.Writer, t *Table) error {
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	t.writer(w, table.StyleLight).Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(t.Rows))
	return nil
}

// RenderMarkdown writes a GitHub-flavored markdown table.
func RenderMarkdown(w io.Writer, t *Table) error {
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	t.writer(w, plainHeaders()).RenderMarkdown()
	return nil
}

// RenderCSV writes the header and rows as CSV.
func RenderCSV(w io.Writer, t *Table) error {
	t.writer(w, plainHeaders()).RenderCSV()
	return nil
}

// Render writes t in a tabular format.
func Render(w io.Writer, format Format, t *Table) error {
	switch format {
	case FormatText:
		return RenderText(w, t)
	case FormatMarkdown:
		return RenderMarkdown(w, t)
	case FormatCSV:
		return RenderCSV(w, t)
	default:
		return fmt.Errorf("format %q is not tabular", format)
	}
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders v in a structured format, or t in a tabular one.
func Write(w io.Writer, format Format, t *Table, v any) error {
	switch format {
	case FormatJSON:
		return JSON(w, v)
	case FormatYAML:
		return YAML(w, v)
	default:
		return Render(w, format, t)
	}
}
