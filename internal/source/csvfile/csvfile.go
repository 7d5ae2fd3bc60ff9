// Package csvfile provides the "csv" dataset source: a study dataset read
// from a local CSV file.
package csvfile

import (
	"context"
	"fmt"

	"github.com/pkbridge/erlab/internal/dataset"
	"github.com/pkbridge/erlab/internal/source"
)

func init() {
	source.Register("csv", func() source.Source { return &CSV{} })
}

// CSV loads a dataset from a CSV file path.
type CSV struct{}

// Load reads cfg.Path, treating cfg.IDColumn as the subject identifier.
func (c *CSV) Load(_ context.Context, cfg source.Config) (*dataset.Table, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv source: no path configured")
	}
	tab, err := dataset.ReadCSVFile(cfg.Path, cfg.IDColumn)
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	return tab, nil
}

func (c *CSV) Describe() string { return "CSV file on disk" }
