package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Table is an immutable tabular dataset: one row per subject observation,
// named numeric columns for exposure metrics, responses, and covariates.
// Derived columns are added with WithColumn, which returns a new Table and
// never touches the loaded data.
type Table struct {
	ids  []string
	cols []string
	data map[string][]float64
}

// New creates a Table from subject IDs and named columns. Column order is
// preserved for CSV output. All columns must have len(ids) values.
func New(ids []string, cols []string, data map[string][]float64) (*Table, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("dataset: empty table")
	}
	if len(cols) != len(data) {
		return nil, fmt.Errorf("dataset: %d column names for %d columns", len(cols), len(data))
	}
	for _, c := range cols {
		v, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("dataset: missing values for column %q", c)
		}
		if len(v) != len(ids) {
			return nil, fmt.Errorf("dataset: column %q has %d values, want %d", c, len(v), len(ids))
		}
	}
	return &Table{ids: ids, cols: cols, data: data}, nil
}

// N returns the number of rows.
func (t *Table) N() int { return len(t.ids) }

// IDs returns the subject identifiers.
func (t *Table) IDs() []string { return t.ids }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.cols }

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the values of the named column. The returned slice is a
// copy; mutating it does not affect the table.
func (t *Table) Column(name string) ([]float64, error) {
	v, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("dataset: no column %q", name)
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

// Value returns a single cell.
func (t *Table) Value(name string, row int) (float64, error) {
	v, ok := t.data[name]
	if !ok {
		return 0, fmt.Errorf("dataset: no column %q", name)
	}
	if row < 0 || row >= len(v) {
		return 0, fmt.Errorf("dataset: row %d out of range [0,%d)", row, len(v))
	}
	return v[row], nil
}

// WithColumn returns a new Table extended with a derived column. The
// receiver is unchanged. Replacing an existing column is an error; derived
// columns get their own names.
func (t *Table) WithColumn(name string, values []float64) (*Table, error) {
	if t.Has(name) {
		return nil, fmt.Errorf("dataset: column %q already exists", name)
	}
	if len(values) != t.N() {
		return nil, fmt.Errorf("dataset: column %q has %d values, want %d", name, len(values), t.N())
	}
	cols := make([]string, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	cols = append(cols, name)
	data := make(map[string][]float64, len(cols))
	for k, v := range t.data {
		data[k] = v
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	data[name] = vals
	return &Table{ids: t.ids, cols: cols, data: data}, nil
}

// Summary describes one column of a Table.
type Summary struct {
	Column string
	Mean   float64
	SD     float64
	Min    float64
	Median float64
	Max    float64
}

// Summarize computes per-column summaries in column order.
func (t *Table) Summarize() []Summary {
	out := make([]Summary, 0, len(t.cols))
	for _, c := range t.cols {
		v := t.data[c]
		s := make([]float64, len(v))
		copy(s, v)
		sort.Float64s(s)
		out = append(out, Summary{
			Column: c,
			Mean:   stat.Mean(s, nil),
			SD:     stat.StdDev(s, nil),
			Min:    s[0],
			Median: stat.Quantile(0.5, stat.Empirical, s, nil),
			Max:    s[len(s)-1],
		})
	}
	return out
}

// ReadCSV parses a CSV stream into a Table. The first record is the header;
// idColumn (if non-empty) names the subject-identifier column, which is kept
// as strings. All other columns must parse as floats.
func ReadCSV(r io.Reader, idColumn string) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	idIdx := -1
	var cols []string
	for i, h := range header {
		if h == idColumn && idColumn != "" {
			idIdx = i
			continue
		}
		cols = append(cols, h)
	}
	if idColumn != "" && idIdx < 0 {
		return nil, fmt.Errorf("dataset: id column %q not in header", idColumn)
	}
	data := make(map[string][]float64, len(cols))
	for _, c := range cols {
		data[c] = nil
	}
	var ids []string
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", row+1, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("dataset: row %d has %d fields, want %d", row+1, len(rec), len(header))
		}
		ci := 0
		for i, field := range rec {
			if i == idIdx {
				ids = append(ids, field)
				continue
			}
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: row %d column %q: %w", row+1, header[i], err)
			}
			c := cols[ci]
			data[c] = append(data[c], f)
			ci++
		}
		row++
	}
	if idIdx < 0 {
		ids = make([]string, row)
		for i := range ids {
			ids[i] = strconv.Itoa(i + 1)
		}
	}
	return New(ids, cols, data)
}

// ReadCSVFile opens and parses a CSV file.
func ReadCSVFile(path, idColumn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, idColumn)
}

// WriteCSV writes the table as CSV with an "id" column first.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"id"}, t.cols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}
	rec := make([]string, len(header))
	for i := 0; i < t.N(); i++ {
		rec[0] = t.ids[i]
		for j, c := range t.cols {
			rec[j+1] = strconv.FormatFloat(t.data[c][i], 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("dataset: write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
