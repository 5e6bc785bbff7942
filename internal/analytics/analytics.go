// Package analytics summarizes the purchase history into a sales report.
package analytics

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/susume/internal/storage"
)

// Summary holds the aggregates shown in the sales report.
type Summary struct {
	Products     int64                     `json:"products"`
	Purchases    int64                     `json:"purchases"`
	Monthly      []storage.MonthlySale     `json:"monthly_sales"`
	TopByRevenue []storage.ProductRevenue  `json:"top_products_by_revenue"`
	TopByCount   []topCount                `json:"top_products_by_count"`
	ByCategory   []storage.CategoryRevenue `json:"revenue_by_category"`
	TopCustomers []storage.CustomerSpend   `json:"top_customers_by_spend"`
}

type topCount struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Analyzer computes sales summaries from storage.
type Analyzer struct {
	storage storage.Storage
	limit   int
}

// NewAnalyzer creates an analyzer; limit caps each top-N listing.
func NewAnalyzer(st storage.Storage, limit int) *Analyzer {
	if limit <= 0 {
		limit = 5
	}
	return &Analyzer{storage: st, limit: limit}
}

// Summarize runs all aggregates against storage.
func (a *Analyzer) Summarize(ctx context.Context) (*Summary, error) {
	s := &Summary{}
	var err error

	if s.Products, err = a.storage.CountProducts(ctx); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if s.Purchases, err = a.storage.CountPurchases(ctx); err != nil {
		return nil, fmt.Errorf("count purchases: %w", err)
	}
	if s.Monthly, err = a.storage.MonthlySales(ctx); err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}
	if s.TopByRevenue, err = a.storage.TopProductsByRevenue(ctx, a.limit); err != nil {
		return nil, fmt.Errorf("top products by revenue: %w", err)
	}
	sellers, err := a.storage.TopProductsByCount(ctx, a.limit)
	if err != nil {
		return nil, fmt.Errorf("top products by count: %w", err)
	}
	for _, t := range sellers {
		s.TopByCount = append(s.TopByCount, topCount{
			ProductID:   t.ProductID,
			Description: t.Description,
			Count:       t.TransactionCount,
		})
	}
	if s.ByCategory, err = a.storage.RevenueByCategory(ctx); err != nil {
		return nil, fmt.Errorf("revenue by category: %w", err)
	}
	if s.TopCustomers, err = a.storage.TopCustomersBySpend(ctx, a.limit); err != nil {
		return nil, fmt.Errorf("top customers by spend: %w", err)
	}
	return s, nil
}

// Render writes the summary as a plain-text report.
func (a *Analyzer) Render(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "Sales report\n")
	fmt.Fprintf(w, "  Products:  %d\n", s.Products)
	fmt.Fprintf(w, "  Purchases: %d\n\n", s.Purchases)

	fmt.Fprintf(w, "Sales by month\n")
	for _, m := range s.Monthly {
		fmt.Fprintf(w, "  %-10s %12.2f\n", time.Month(m.Month), m.Total)
	}

	fmt.Fprintf(w, "\nTop products by revenue\n")
	for i, p := range s.TopByRevenue {
		fmt.Fprintf(w, "  %d. %-8s %-32s %12.2f\n", i+1, p.ProductID, p.Description, p.Revenue)
	}

	fmt.Fprintf(w, "\nTop products by transaction count\n")
	for i, p := range s.TopByCount {
		fmt.Fprintf(w, "  %d. %-8s %-32s %6d\n", i+1, p.ProductID, p.Description, p.Count)
	}

	fmt.Fprintf(w, "\nRevenue by category\n")
	for _, c := range s.ByCategory {
		fmt.Fprintf(w, "  %-16s %12.2f\n", c.Category, c.Revenue)
	}

	fmt.Fprintf(w, "\nTop customers by spend\n")
	for i, c := range s.TopCustomers {
		fmt.Fprintf(w, "  %d. %-8s %12.2f\n", i+1, c.CustomerID, c.Total)
	}
}
