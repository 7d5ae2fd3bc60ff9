package multi

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkbridge/erlab/internal/output"
)

type recorder struct {
	tables []output.Table
	closed bool
	fail   bool
}

func (r *recorder) Write(_ context.Context, tab output.Table) error {
	if r.fail {
		return fmt.Errorf("write failed")
	}
	r.tables = append(r.tables, tab)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMultiFanOut(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	m := New(a, b)

	tab := output.Table{Title: "t", Columns: []string{"x"}, Rows: [][]string{{"1"}}}
	if err := m.Write(context.Background(), tab); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(a.tables) != 1 || len(b.tables) != 1 {
		t.Fatalf("fan-out missed an output: %d, %d", len(a.tables), len(b.tables))
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("Close not propagated")
	}
}

func TestMultiContinuesPastFailure(t *testing.T) {
	bad := &recorder{fail: true}
	good := &recorder{}
	m := New(bad, good)

	err := m.Write(context.Background(), output.Table{Title: "t"})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(good.tables) != 1 {
		t.Fatal("failure in one output blocked the next")
	}
}
