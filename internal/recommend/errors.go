// Package recommend implements content-based product recommendations over a
// precomputed similarity artifact, plus the popularity fallback for
// customers with no history.
package recommend

import (
	"errors"
	"fmt"
)

// ErrNotPreprocessed means the similarity artifact does not exist yet.
// Recoverable: run the prepare step and retry.
var ErrNotPreprocessed = errors.New("similarity artifact not found; run prepare first")

// ErrNoNovelCandidate means the novelty step found no eligible candidate.
// The recommendation is still returned with the novel slot empty.
var ErrNoNovelCandidate = errors.New("no eligible novel candidate")

// ErrEmptyHistory means Recommend was called with zero purchase records.
// Callers must route customers without history to the cold-start path instead.
var ErrEmptyHistory = errors.New("empty purchase history; use the cold-start path")

// DataIntegrityError reports a purchase record referencing a product id that
// is not in the catalog the artifact was built from. This is an upstream
// data inconsistency, distinct from a missing artifact.
type DataIntegrityError struct {
	ProductID string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("purchase history references unknown product %s", e.ProductID)
}
