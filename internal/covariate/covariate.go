package covariate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"

	"github.com/pkbridge/erlab/internal/dataset"
)

var titler = cases.Title(language.English)

// Row is one evaluation point for one covariate: the value to plug into the
// model, display metadata, and whether this is the reference level.
type Row struct {
	Covariate string  `json:"covariate"`
	Value     float64 `json:"value"`
	Label     string  `json:"label"`
	Reference bool    `json:"reference"`
	Order     int     `json:"order"`
}

// Spec is the covariate-effect specification: which values each covariate is
// evaluated at, with one reference row per covariate. Edited by replacing
// the rows of a single covariate; other covariates are untouched.
type Spec struct {
	rows []Row
}

// binaryLevels reports whether every value is 0 or 1.
func binaryLevels(v []float64) bool {
	for _, x := range v {
		if x != 0 && x != 1 {
			return false
		}
	}
	return true
}

// Default builds a specification from the data: binary covariates get their
// two levels with 0 as reference; continuous covariates are evaluated at the
// quartiles with the median as reference.
func Default(covariates []string, tab *dataset.Table) (*Spec, error) {
	s := &Spec{}
	order := 0
	for _, c := range covariates {
		v, err := tab.Column(c)
		if err != nil {
			return nil, fmt.Errorf("covariate: %w", err)
		}
		name := titler.String(strings.ReplaceAll(c, "_", " "))
		if binaryLevels(v) {
			s.rows = append(s.rows,
				Row{Covariate: c, Value: 0, Label: name + ": 0", Reference: true, Order: order},
				Row{Covariate: c, Value: 1, Label: name + ": 1", Order: order + 1},
			)
			order += 2
			continue
		}
		sorted := make([]float64, len(v))
		copy(sorted, v)
		sort.Float64s(sorted)
		q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q50 := stat.Quantile(0.5, stat.Empirical, sorted, nil)
		q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		s.rows = append(s.rows,
			Row{Covariate: c, Value: q25, Label: numLabel(name, q25), Order: order},
			Row{Covariate: c, Value: q50, Label: numLabel(name, q50) + " (ref)", Reference: true, Order: order + 1},
			Row{Covariate: c, Value: q75, Label: numLabel(name, q75), Order: order + 2},
		)
		order += 3
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func numLabel(name string, v float64) string {
	return name + ": " + strconv.FormatFloat(v, 'g', 4, 64)
}

// Rows returns the rows sorted by display order.
func (s *Spec) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Covariates returns the distinct covariate names in first-seen order.
func (s *Spec) Covariates() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range s.Rows() {
		if !seen[r.Covariate] {
			seen[r.Covariate] = true
			out = append(out, r.Covariate)
		}
	}
	return out
}

// Replace swaps out every row of one covariate for the given rows, leaving
// other covariates untouched. The replacement must keep the spec valid.
func (s *Spec) Replace(covariate string, rows []Row) (*Spec, error) {
	found := false
	next := &Spec{}
	for _, r := range s.rows {
		if r.Covariate == covariate {
			found = true
			continue
		}
		next.rows = append(next.rows, r)
	}
	if !found {
		return nil, fmt.Errorf("covariate: no rows for %q", covariate)
	}
	for _, r := range rows {
		if r.Covariate != covariate {
			return nil, fmt.Errorf("covariate: replacement row for %q in Replace(%q)", r.Covariate, covariate)
		}
		next.rows = append(next.rows, r)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// Validate checks that every covariate has rows and exactly one reference.
func (s *Spec) Validate() error {
	if len(s.rows) == 0 {
		return fmt.Errorf("covariate: empty specification")
	}
	refs := map[string]int{}
	for _, r := range s.rows {
		if r.Label == "" {
			return fmt.Errorf("covariate: row for %q value %g has no label", r.Covariate, r.Value)
		}
		if r.Reference {
			refs[r.Covariate]++
		} else if _, ok := refs[r.Covariate]; !ok {
			refs[r.Covariate] = 0
		}
	}
	for c, n := range refs {
		if n != 1 {
			return fmt.Errorf("covariate: %q has %d reference rows, want exactly 1", c, n)
		}
	}
	return nil
}

// reference returns the reference row for a covariate.
func (s *Spec) reference(covariate string) (Row, error) {
	for _, r := range s.rows {
		if r.Covariate == covariate && r.Reference {
			return r, nil
		}
	}
	return Row{}, fmt.Errorf("covariate: no reference row for %q", covariate)
}
