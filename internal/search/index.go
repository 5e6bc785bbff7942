// Package search provides keyword lookup over the product catalog.
package search

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/susume/internal/models"
)

// Hit is a single product search result.
type Hit struct {
	ProductID   string  `json:"product_id"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
}

// productDoc is the shape indexed into Bleve.
type productDoc struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ProductIndex is a Bleve-backed keyword index over the product catalog,
// for interactive lookup ("which id is the walnut bookshelf?"). It is not
// part of the recommendation path. IndexProducts may run concurrently with
// Search; the metadata map is swapped under mu.
type ProductIndex struct {
	index bleve.Index

	mu       sync.RWMutex
	products map[string]models.Product
}

func productMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "mug" matches
	// exactly what was indexed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", textFieldMapping)
	im.DefaultMapping = docMapping
	return im
}

// NewProductIndex creates or opens a Bleve index at path. An existing index
// is opened and reused; IndexProducts replaces its contents on the next
// catalog load.
func NewProductIndex(path string) (*ProductIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open product index: %w", err)
		}
		return &ProductIndex{index: index, products: make(map[string]models.Product)}, nil
	}
	index, err := bleve.New(path, productMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create product index: %w", err)
	}
	return &ProductIndex{index: index, products: make(map[string]models.Product)}, nil
}

// NewMemoryProductIndex creates an in-memory index, used by tests and
// one-shot CLI searches.
func NewMemoryProductIndex() (*ProductIndex, error) {
	index, err := bleve.NewMemOnly(productMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create product index: %w", err)
	}
	return &ProductIndex{index: index, products: make(map[string]models.Product)}, nil
}

// IndexProducts indexes the catalog, replacing any previously indexed
// product with the same id. The metadata map is built fresh and swapped in
// only after the batch applies, so concurrent searches see either the old
// or the new catalog, never a partial one.
func (pi *ProductIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	batch := pi.index.NewBatch()
	next := make(map[string]models.Product, len(products))
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := productDoc{Description: p.Description, Category: p.Category}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("failed to index product %s: %w", p.ID, err)
		}
		next[p.ID] = p
	}
	if err := pi.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}

	pi.mu.Lock()
	for id, p := range pi.products {
		if _, ok := next[id]; !ok {
			next[id] = p
		}
	}
	pi.products = next
	pi.mu.Unlock()
	return nil
}

// Search runs a match query over description and category and returns up to
// limit hits by score. When nothing matches, a fuzzy pass (edit distance 1)
// catches small typos.
func (pi *ProductIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	hits, err := pi.run(bleve.NewMatchQuery(query), limit)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits, nil
	}

	fq := bleve.NewMatchQuery(query)
	fq.SetFuzziness(1)
	return pi.run(fq, limit)
}

func (pi *ProductIndex) run(q blevequery.Query, limit int) ([]Hit, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := pi.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}
	pi.mu.RLock()
	products := pi.products
	pi.mu.RUnlock()

	out := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		p := products[hit.ID]
		out = append(out, Hit{
			ProductID:   hit.ID,
			Description: p.Description,
			Category:    p.Category,
			Score:       hit.Score,
		})
	}
	return out, nil
}

// DocCount returns the number of indexed products.
func (pi *ProductIndex) DocCount() (uint64, error) {
	return pi.index.DocCount()
}

// Close closes the underlying index.
func (pi *ProductIndex) Close() error {
	return pi.index.Close()
}
