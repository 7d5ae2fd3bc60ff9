package covariate

import (
	"math"
	"testing"

	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
	"github.com/pkbridge/erlab/internal/predict"
)

func covTable(t *testing.T) *dataset.Table {
	t.Helper()
	n := 8
	ids := make([]string, n)
	auc := make([]float64, n)
	resp := make([]float64, n)
	age := make([]float64, n)
	sex := make([]float64, n)
	for i := 0; i < n; i++ {
		ids[i] = "s"
		auc[i] = float64(i + 1)
		if i%2 == 1 {
			resp[i] = 1
			sex[i] = 1
		}
		age[i] = float64(20 + 5*i)
	}
	tab, err := dataset.New(ids, []string{"auc", "resp", "age", "sex"}, map[string][]float64{
		"auc": auc, "resp": resp, "age": age, "sex": sex,
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tab
}

func TestDefaultSpec(t *testing.T) {
	tab := covTable(t)
	s, err := Default([]string{"age", "sex"}, tab)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	rows := s.Rows()
	// age: 3 quartile rows; sex: 2 level rows.
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Binary covariate: reference is level 0.
	ref, err := s.reference("sex")
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	if ref.Value != 0 {
		t.Fatalf("sex reference = %g, want 0", ref.Value)
	}
	// Labels are title-cased.
	if rows[0].Label[0] == 'a' {
		t.Fatalf("label %q not title-cased", rows[0].Label)
	}
}

func TestReplaceSubset(t *testing.T) {
	tab := covTable(t)
	s, err := Default([]string{"age", "sex"}, tab)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	repl := []Row{
		{Covariate: "age", Value: 30, Label: "Age: 30 (ref)", Reference: true, Order: 0},
		{Covariate: "age", Value: 60, Label: "Age: 60", Order: 1},
	}
	s2, err := s.Replace("age", repl)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// sex rows untouched, age rows swapped.
	var ageRows, sexRows int
	for _, r := range s2.Rows() {
		switch r.Covariate {
		case "age":
			ageRows++
		case "sex":
			sexRows++
		}
	}
	if ageRows != 2 || sexRows != 2 {
		t.Fatalf("age=%d sex=%d rows, want 2 and 2", ageRows, sexRows)
	}
	// Original spec unchanged.
	if len(s.Rows()) != 5 {
		t.Fatal("Replace mutated the original spec")
	}
}

func TestReplaceValidation(t *testing.T) {
	tab := covTable(t)
	s, _ := Default([]string{"sex"}, tab)
	if _, err := s.Replace("weight", nil); err == nil {
		t.Fatal("expected error replacing unknown covariate")
	}
	noRef := []Row{{Covariate: "sex", Value: 1, Label: "Sex: 1"}}
	if _, err := s.Replace("sex", noRef); err == nil {
		t.Fatal("expected error for replacement without reference row")
	}
	twoRef := []Row{
		{Covariate: "sex", Value: 0, Label: "a", Reference: true},
		{Covariate: "sex", Value: 1, Label: "b", Reference: true},
	}
	if _, err := s.Replace("sex", twoRef); err == nil {
		t.Fatal("expected error for two reference rows")
	}
}

func TestEffectsOddsRatio(t *testing.T) {
	tab := covTable(t)
	m, err := model.Build(model.Spec{
		Family: model.Logistic, Response: "resp", Exposure: "auc", Covariates: []string{"sex"},
	}, tab)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Fixed draws: b_sex = log(2) so the sex odds ratio is exactly 2.
	b := math.Log(2)
	chains := [][][]float64{{
		{-1, 0.5, b},
		{-1, 0.5, b},
	}}
	d, err := posterior.NewDraws(m.ParamNames(), chains)
	if err != nil {
		t.Fatalf("NewDraws: %v", err)
	}
	sim, err := predict.New(m, d)
	if err != nil {
		t.Fatalf("predict.New: %v", err)
	}
	spec, err := Default([]string{"sex"}, tab)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	effs, err := Effects(sim, spec, model.Logistic, 2.5, 0.9)
	if err != nil {
		t.Fatalf("Effects: %v", err)
	}
	if len(effs) != 2 {
		t.Fatalf("got %d effects, want 2", len(effs))
	}
	for _, e := range effs {
		if e.Reference {
			if e.Estimate != 1 {
				t.Fatalf("reference odds ratio = %g, want 1", e.Estimate)
			}
			continue
		}
		if math.Abs(e.Estimate-2) > 1e-9 {
			t.Fatalf("sex odds ratio = %g, want 2", e.Estimate)
		}
		if !e.Ratio {
			t.Fatal("logistic effect not flagged as ratio")
		}
	}
}
