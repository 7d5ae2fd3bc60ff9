package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkbridge/erlab/internal/dataset"
)

// Source loads a study dataset: a CSV file on disk or a built-in simulated
// study with known true parameters.
type Source interface {
	// Load produces the dataset. Tables are immutable once returned.
	Load(ctx context.Context, cfg Config) (*dataset.Table, error)

	// Describe returns a one-line description for logs and reports.
	Describe() string
}

// Config holds source-specific settings.
type Config struct {
	Name     string             // registered source name
	Path     string             // CSV path, for file sources
	IDColumn string             // subject identifier column, "" for none
	Subjects int                // simulated study size
	Seed     uint64             // simulation seed
	Params   map[string]float64 // true parameter overrides for simulators
}

// Constructor creates a new Source instance.
type Constructor func() Source

var registry = map[string]Constructor{}

// Register adds a source constructor under the given name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the source constructor for the given name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset source: %s", name)
	}
	return ctor, nil
}

// Names returns the registered source names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
