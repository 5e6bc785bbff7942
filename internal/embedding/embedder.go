// Package embedding encodes product metadata into fixed-length vectors.
// Two interchangeable strategies are provided: semantic (ONNX sentence
// embeddings) and lexical (bag-of-words counts), selected by configuration.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations must be
// deterministic: identical text yields an identical vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
