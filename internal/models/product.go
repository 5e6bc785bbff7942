// Package models defines core data structures for products, purchases, and recommendations.
package models

import "time"

// Product is one row of the product catalog. Immutable after catalog load.
type Product struct {
	ID          string `json:"product_id"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// PurchaseRecord is one purchase transaction. Description and Category are
// denormalized from the product catalog; the engine only reads these rows.
type PurchaseRecord struct {
	PurchaseID  string    `json:"purchase_id"`
	CustomerID  string    `json:"customer_id"`
	ProductID   string    `json:"product_id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

// TopSeller is a product ranked by global transaction count, used for the
// cold-start fallback.
type TopSeller struct {
	ProductID        string `json:"product_id"`
	Description      string `json:"description"`
	TransactionCount int    `json:"transaction_count"`
}
