// Package storage defines the persistence interface for the product catalog
// and purchase history.
package storage

import (
	"context"

	"github.com/hyperjump/susume/internal/models"
)

// ProductRevenue is a product with its summed purchase amount.
type ProductRevenue struct {
	ProductID   string
	Description string
	Revenue     float64
}

// CategoryRevenue is a category with its summed purchase amount.
type CategoryRevenue struct {
	Category string
	Revenue  float64
}

// CustomerSpend is a customer with their summed purchase amount.
type CustomerSpend struct {
	CustomerID string
	Total      float64
}

// MonthlySale is the summed purchase amount for one calendar month.
type MonthlySale struct {
	Month int
	Total float64
}

// Storage defines catalog and purchase persistence operations.
type Storage interface {
	// Import operations replace the stored table with the given rows.
	ImportProducts(ctx context.Context, products []models.Product) error
	ImportPurchases(ctx context.Context, purchases []models.PurchaseRecord) error

	// Catalog operations. ListProducts preserves import order, which is the
	// row order of the similarity matrix.
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)

	// Purchase operations. PurchasesByCustomer preserves import order.
	PurchasesByCustomer(ctx context.Context, customerID string) ([]models.PurchaseRecord, error)
	CustomerIDs(ctx context.Context) ([]string, error)

	// TopSellers ranks products by global transaction count descending,
	// ties by product id. Used by the cold-start path.
	TopSellers(ctx context.Context, limit int) ([]models.TopSeller, error)

	// Analytics aggregates.
	MonthlySales(ctx context.Context) ([]MonthlySale, error)
	TopProductsByRevenue(ctx context.Context, limit int) ([]ProductRevenue, error)
	TopProductsByCount(ctx context.Context, limit int) ([]models.TopSeller, error)
	RevenueByCategory(ctx context.Context) ([]CategoryRevenue, error)
	TopCustomersBySpend(ctx context.Context, limit int) ([]CustomerSpend, error)

	// Stats
	CountProducts(ctx context.Context) (int64, error)
	CountPurchases(ctx context.Context) (int64, error)

	Close() error
}
