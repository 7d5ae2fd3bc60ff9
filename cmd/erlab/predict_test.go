package main

import "testing"

func TestParseCovs(t *testing.T) {
	covs, err := parseCovs([]string{"age=60", "sex=1"})
	if err != nil {
		t.Fatalf("parseCovs: %v", err)
	}
	if covs["age"] != 60 || covs["sex"] != 1 {
		t.Fatalf("covs = %v", covs)
	}

	if covs, err := parseCovs(nil); err != nil || covs != nil {
		t.Fatalf("empty input: %v, %v", covs, err)
	}

	for _, bad := range []string{"age", "age=x", "=1"} {
		if _, err := parseCovs([]string{bad}); err == nil {
			t.Errorf("parseCovs(%q): expected error", bad)
		}
	}
}
