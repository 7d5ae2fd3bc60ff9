package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects the rendering of a Table.
type Format int

const (
	JSON Format = iota
	CSV
	Markdown
)

// ParseFormat converts "json", "csv", "markdown". Unknown strings default
// to Markdown.
func ParseFormat(s string) Format {
	switch s {
	case "json":
		return JSON
	case "csv":
		return CSV
	default:
		return Markdown
	}
}

// Render writes one table in the given format.
func Render(w io.Writer, tab Table, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tab); err != nil {
			return fmt.Errorf("output: render json: %w", err)
		}
		return nil
	case CSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(tab.Columns); err != nil {
			return fmt.Errorf("output: render csv: %w", err)
		}
		for _, row := range tab.Rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("output: render csv: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("output: render csv: %w", err)
		}
		return nil
	default:
		return renderMarkdown(w, tab)
	}
}

func renderMarkdown(w io.Writer, tab Table) error {
	var b strings.Builder
	if tab.Title != "" {
		b.WriteString("### " + tab.Title + "\n\n")
	}
	widths := make([]int, len(tab.Columns))
	for i, c := range tab.Columns {
		widths[i] = len(c)
	}
	for _, row := range tab.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			b.WriteString(" " + pad(cell, widths[i]) + " |")
		}
		b.WriteString("\n")
	}
	writeRow(tab.Columns)
	b.WriteString("|")
	for _, wd := range widths {
		b.WriteString(strings.Repeat("-", wd+2) + "|")
	}
	b.WriteString("\n")
	for _, row := range tab.Rows {
		writeRow(row)
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("output: render markdown: %w", err)
	}
	return nil
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
