package similarity

import (
	"fmt"

	"github.com/hyperjump/susume/internal/models"
)

// Artifact bundles the similarity matrix, the product-id row mapping, and
// the exact product table the matrix was built from. The three always travel
// together: mixing a matrix with an index from a different build would pair
// rows with the wrong products. Read-only after Build.
type Artifact struct {
	matrix   [][]float64
	rows     map[string]int
	products []models.Product
}

// NewArtifact pairs a similarity matrix with the product table it was built
// from. The matrix must be square with one row per product, in table order.
func NewArtifact(matrix [][]float64, products []models.Product) (*Artifact, error) {
	if len(matrix) != len(products) {
		return nil, fmt.Errorf("matrix has %d rows for %d products", len(matrix), len(products))
	}
	for i, row := range matrix {
		if len(row) != len(products) {
			return nil, fmt.Errorf("matrix row %d has %d cells, want %d", i, len(row), len(products))
		}
	}
	rows := make(map[string]int, len(products))
	for i, p := range products {
		rows[p.ID] = i
	}
	return &Artifact{matrix: matrix, rows: rows, products: products}, nil
}

// Dimension returns N, the number of products (matrix is N x N).
func (a *Artifact) Dimension() int {
	return len(a.products)
}

// Row returns the matrix row index for a product id.
func (a *Artifact) Row(id string) (int, bool) {
	i, ok := a.rows[id]
	return i, ok
}

// Similarity returns the matrix cell (i, j).
func (a *Artifact) Similarity(i, j int) float64 {
	return a.matrix[i][j]
}

// RowSimilarities returns row i of the matrix. Callers must not modify it.
func (a *Artifact) RowSimilarities(i int) []float64 {
	return a.matrix[i]
}

// Products returns the product table in matrix row order. Callers must not
// modify the returned slice.
func (a *Artifact) Products() []models.Product {
	return a.products
}

// CheckFresh verifies the artifact still corresponds to a catalog with
// productCount rows. A mismatch means the catalog changed since the build
// and the artifact is stale.
func (a *Artifact) CheckFresh(productCount int) error {
	if productCount != a.Dimension() {
		return fmt.Errorf("stale artifact: matrix has %d rows but catalog has %d products; re-run prepare",
			a.Dimension(), productCount)
	}
	return nil
}
