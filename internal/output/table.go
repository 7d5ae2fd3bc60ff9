package output

import (
	"fmt"
	"math"
	"strconv"
)

// Table is the unit every output writes: a titled grid of pre-formatted
// cells. Builders in the report package produce these from summaries,
// predictions, effects, and comparisons.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Append adds a row. The cell count must match the column count.
func (t *Table) Append(cells ...string) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("output: row has %d cells for %d columns in %q", len(cells), len(t.Columns), t.Title)
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// Num formats a numeric cell to 4 significant digits; NaN renders as NA.
func Num(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// Detail selects how many summary columns tables carry.
type Detail int

const (
	// Minimal: point estimate and interval only.
	Minimal Detail = iota
	// Standard: adds mean and sd.
	Standard
	// Full: adds convergence diagnostics.
	Full
)

// ParseDetail converts "minimal", "standard", "full". Unknown strings
// default to Standard.
func ParseDetail(s string) Detail {
	switch s {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}
