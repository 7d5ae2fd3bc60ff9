package output

import "context"

// Output defines the interface for summary-table destinations.
type Output interface {
	Write(ctx context.Context, tab Table) error
	Close() error
}
