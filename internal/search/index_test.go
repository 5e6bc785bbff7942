package search

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/hyperjump/susume/internal/models"
)

func indexedProducts(t *testing.T) *ProductIndex {
	t.Helper()
	pi, err := NewMemoryProductIndex()
	if err != nil {
		t.Fatalf("NewMemoryProductIndex error: %v", err)
	}
	t.Cleanup(func() { pi.Close() })

	products := []models.Product{
		{ID: "P1", Description: "walnut bookshelf", Category: "Furniture"},
		{ID: "P2", Description: "oak coffee table", Category: "Furniture"},
		{ID: "P3", Description: "ceramic coffee mug", Category: "Kitchen"},
		{ID: "P4", Description: "stainless water bottle", Category: "Kitchen"},
	}
	if err := pi.IndexProducts(context.Background(), products); err != nil {
		t.Fatalf("IndexProducts error: %v", err)
	}
	return pi
}

func TestSearchByDescription(t *testing.T) {
	pi := indexedProducts(t)

	hits, err := pi.Search(context.Background(), "walnut bookshelf", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("no hits for indexed description")
	}
	if hits[0].ProductID != "P1" {
		t.Errorf("top hit = %s, want P1", hits[0].ProductID)
	}
	if hits[0].Description != "walnut bookshelf" || hits[0].Category != "Furniture" {
		t.Errorf("hit metadata = %q/%q, want walnut bookshelf/Furniture",
			hits[0].Description, hits[0].Category)
	}
}

func TestSearchByCategory(t *testing.T) {
	pi := indexedProducts(t)

	hits, err := pi.Search(context.Background(), "kitchen", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits for category query, want 2: %v", len(hits), hits)
	}
	for _, h := range hits {
		if h.Category != "Kitchen" {
			t.Errorf("hit %s has category %s, want Kitchen", h.ProductID, h.Category)
		}
	}
}

func TestSearchFuzzyFallback(t *testing.T) {
	pi := indexedProducts(t)

	// One-letter typo: the exact match pass finds nothing, the fuzzy pass
	// should still surface the mug.
	hits, err := pi.Search(context.Background(), "cofee", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("no hits for near-miss query")
	}
	found := false
	for _, h := range hits {
		if h.ProductID == "P2" || h.ProductID == "P3" {
			found = true
		}
	}
	if !found {
		t.Errorf("hits %v do not include a coffee product", hits)
	}
}

func TestSearchNoMatch(t *testing.T) {
	pi := indexedProducts(t)

	hits, err := pi.Search(context.Background(), "zzzzzz", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits for nonsense query, want 0", len(hits))
	}
}

func TestSearchLimit(t *testing.T) {
	pi := indexedProducts(t)

	hits, err := pi.Search(context.Background(), "coffee", 1)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) > 1 {
		t.Errorf("got %d hits with limit 1", len(hits))
	}
}

// TestConcurrentReindexAndSearch exercises the server-mode pattern where the
// watch callback re-indexes the catalog while search requests are in flight.
// Run under the race detector.
func TestConcurrentReindexAndSearch(t *testing.T) {
	pi := indexedProducts(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			products := []models.Product{
				{ID: "P1", Description: "walnut bookshelf", Category: "Furniture"},
				{ID: fmt.Sprintf("P%d", 10+i), Description: "pine side table", Category: "Furniture"},
			}
			if err := pi.IndexProducts(ctx, products); err != nil {
				t.Errorf("IndexProducts error: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			hits, err := pi.Search(ctx, "walnut", 10)
			if err != nil {
				t.Errorf("Search error: %v", err)
				return
			}
			for _, h := range hits {
				if h.ProductID == "P1" && h.Description != "walnut bookshelf" {
					t.Errorf("hit P1 has stale metadata %q", h.Description)
				}
			}
		}
	}()
	wg.Wait()
}

func TestDocCount(t *testing.T) {
	pi := indexedProducts(t)

	n, err := pi.DocCount()
	if err != nil {
		t.Fatalf("DocCount error: %v", err)
	}
	if n != 4 {
		t.Errorf("DocCount = %d, want 4", n)
	}
}
