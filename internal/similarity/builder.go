package similarity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/embedding"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/pkg/utils"
)

// ErrEmptyCatalog is returned when a build is attempted on zero products.
var ErrEmptyCatalog = errors.New("no products to encode")

// Builder computes the pairwise similarity artifact for a product catalog.
type Builder struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewBuilder creates a builder using the given embedder.
func NewBuilder(embedder embedding.Embedder, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{embedder: embedder, logger: logger}
}

// Build encodes every product in table order and computes the full N x N
// cosine similarity matrix. The returned artifact's row mapping uses the
// same order, so matrix and mapping always correspond to this one build.
func (b *Builder) Build(ctx context.Context, products []models.Product) (*Artifact, error) {
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = utils.CombineMetadata(p.Category, p.Description)
	}

	b.logger.Info("encoding product metadata", zap.Int("products", len(products)))
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode products: %w", err)
	}

	b.logger.Info("computing similarity matrix", zap.Int("dimension", len(products)))
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	// Compute the upper triangle once and mirror it, so the matrix is
	// exactly symmetric rather than symmetric up to rounding.
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := Cosine(vectors[i], vectors[j])
			matrix[i][j] = s
			matrix[j][i] = s
		}
	}

	return NewArtifact(matrix, products)
}
