package embedding

import (
	"context"
	"fmt"
	"sort"
)

// LexicalEmbedder encodes text as a bag-of-words count vector over a
// vocabulary fitted on the catalog corpus. It only captures exact token
// overlap; the semantic strategy should be preferred for relevance, but
// this one needs no model file.
//
// The vocabulary keeps the maxFeatures most frequent corpus tokens (ties
// broken alphabetically) and assigns indices in alphabetical order, so the
// vector layout is deterministic for a given corpus.
type LexicalEmbedder struct {
	vocabulary map[string]int
}

// NewLexicalEmbedder fits a vocabulary on the corpus. maxFeatures caps the
// vocabulary size; values <= 0 default to 1000.
func NewLexicalEmbedder(corpus []string, maxFeatures int) (*LexicalEmbedder, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("lexical embedder needs a non-empty corpus to fit a vocabulary")
	}
	if maxFeatures <= 0 {
		maxFeatures = 1000
	}

	counts := make(map[string]int)
	for _, text := range corpus {
		for _, token := range WordTokens(text) {
			counts[token]++
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("corpus produced no tokens")
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > maxFeatures {
		tokens = tokens[:maxFeatures]
	}
	sort.Strings(tokens)

	vocabulary := make(map[string]int, len(tokens))
	for i, token := range tokens {
		vocabulary[token] = i
	}
	return &LexicalEmbedder{vocabulary: vocabulary}, nil
}

// Embed returns the token count vector for text. Tokens outside the fitted
// vocabulary are ignored.
func (e *LexicalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocabulary))
	for _, token := range WordTokens(text) {
		if i, ok := e.vocabulary[token]; ok {
			vec[i]++
		}
	}
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *LexicalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the fitted vocabulary size.
func (e *LexicalEmbedder) Dimensions() int {
	return len(e.vocabulary)
}

// Close is a no-op for LexicalEmbedder.
func (e *LexicalEmbedder) Close() error {
	return nil
}
