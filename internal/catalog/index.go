package catalog

import "github.com/hyperjump/susume/internal/models"

// Index provides immutable id-to-metadata lookups for a loaded catalog.
// It is built once per catalog load and shared by reference; nothing
// mutates it afterwards, so concurrent reads are safe.
type Index struct {
	products    []models.Product
	description map[string]string
	category    map[string]string
	categories  []string
}

// NewIndex builds an Index from the ordered product table.
func NewIndex(products []models.Product) *Index {
	idx := &Index{
		products:    products,
		description: make(map[string]string, len(products)),
		category:    make(map[string]string, len(products)),
	}
	seenCat := make(map[string]bool)
	for _, p := range products {
		idx.description[p.ID] = p.Description
		idx.category[p.ID] = p.Category
		if !seenCat[p.Category] {
			seenCat[p.Category] = true
			idx.categories = append(idx.categories, p.Category)
		}
	}
	return idx
}

// Products returns the catalog rows in table order. Callers must not modify
// the returned slice.
func (i *Index) Products() []models.Product {
	return i.products
}

// Description returns the description for a product id.
func (i *Index) Description(id string) (string, bool) {
	d, ok := i.description[id]
	return d, ok
}

// Category returns the category for a product id.
func (i *Index) Category(id string) (string, bool) {
	c, ok := i.category[id]
	return c, ok
}

// Contains reports whether the product id exists in the catalog.
func (i *Index) Contains(id string) bool {
	_, ok := i.category[id]
	return ok
}

// Categories returns the distinct categories in first-appearance order.
func (i *Index) Categories() []string {
	return i.categories
}

// Len returns the number of products in the catalog.
func (i *Index) Len() int {
	return len(i.products)
}
