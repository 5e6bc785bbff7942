package embedding

import (
	"fmt"

	"github.com/hyperjump/susume/internal/config"
)

// Strategy names accepted by NewEmbedder.
const (
	StrategySemantic = "semantic"
	StrategyLexical  = "lexical"
	StrategyMock     = "mock"
)

// NewEmbedder creates the embedder named by cfg.Strategy. corpus is the
// combined metadata of the full catalog; the lexical strategy fits its
// vocabulary on it, the others ignore it. The strategy choice happens here,
// once, so the recommendation logic never branches on it.
func NewEmbedder(cfg config.EmbeddingConfig, corpus []string) (Embedder, error) {
	switch cfg.Strategy {
	case StrategySemantic:
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case StrategyLexical:
		return NewLexicalEmbedder(corpus, cfg.VocabularySize)
	case StrategyMock:
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding strategy %q (valid: semantic, lexical, mock)", cfg.Strategy)
	}
}
