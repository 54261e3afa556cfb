package point

import (
	"context"
)

// Store defines durable storage for point sets. A store holds any number of
// datasets keyed by dataset id; each dataset is written once and read back
// as a whole.
type Store interface {
	// SavePoints writes the set under datasetID, replacing any previous
	// content of that dataset.
	SavePoints(ctx context.Context, datasetID string, set *Set) error

	// LoadPoints reads the dataset back in its original order.
	LoadPoints(ctx context.Context, datasetID string) (*Set, error)

	// Datasets lists the stored dataset ids.
	Datasets(ctx context.Context) ([]string, error)

	// Remove deletes a dataset.
	Remove(ctx context.Context, datasetID string) error
}
