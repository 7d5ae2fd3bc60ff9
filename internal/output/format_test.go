package output

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func sampleTable(t *testing.T) Table {
	t.Helper()
	tab := Table{
		Title:   "Posterior summary",
		Columns: []string{"param", "median", "90% CI"},
	}
	if err := tab.Append("b_auc", "0.045", "[0.031, 0.059]"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return tab
}

func TestAppendMismatch(t *testing.T) {
	tab := Table{Columns: []string{"a", "b"}}
	if err := tab.Append("only one"); err == nil {
		t.Fatal("expected error for cell/column mismatch")
	}
}

func TestNum(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.123456, "0.1235"},
		{1234567, "1.235e+06"},
		{2, "2"},
	}
	for _, c := range cases {
		if got := Num(c.in); got != c.want {
			t.Errorf("Num(%g) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := Num(math.NaN()); got != "NA" {
		t.Errorf("Num(NaN) = %q, want NA", got)
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTable(t), JSON); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got Table
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Title != "Posterior summary" || len(got.Rows) != 1 {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTable(t), CSV); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "param,median") {
		t.Fatalf("header = %q", lines[0])
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleTable(t), Markdown); err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := buf.String()
	if !strings.Contains(s, "### Posterior summary") {
		t.Fatalf("missing title:\n%s", s)
	}
	if !strings.Contains(s, "| b_auc") {
		t.Fatalf("missing row:\n%s", s)
	}
	if !strings.Contains(s, "|---") {
		t.Fatalf("missing separator:\n%s", s)
	}
}

func TestParseDetail(t *testing.T) {
	if ParseDetail("minimal") != Minimal || ParseDetail("full") != Full {
		t.Fatal("known levels misparsed")
	}
	if ParseDetail("whatever") != Standard {
		t.Fatal("unknown level should default to Standard")
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != JSON || ParseFormat("csv") != CSV {
		t.Fatal("known formats misparsed")
	}
	if ParseFormat("whatever") != Markdown {
		t.Fatal("unknown format should default to Markdown")
	}
}
