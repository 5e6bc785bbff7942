// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	CREATE TABLE IF NOT EXISTS purchases (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		amount REAL NOT NULL,
		purchase_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_customer ON purchases(customer_id);
	CREATE INDEX IF NOT EXISTS idx_purchases_product ON purchases(product_id);
	`
	_, err := db.Exec(schema)
	return err
}

// ImportProducts replaces the products table with the given rows, preserving order.
func (s *SQLiteStorage) ImportProducts(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (id, description, category) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Description, p.Category); err != nil {
			return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ImportPurchases replaces the purchases table with the given rows, preserving order.
func (s *SQLiteStorage) ImportPurchases(ctx context.Context, purchases []models.PurchaseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM purchases`); err != nil {
		return fmt.Errorf("failed to clear purchases: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO purchases (id, customer_id, product_id, description, category, amount, purchase_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range purchases {
		if _, err := stmt.ExecContext(ctx,
			p.PurchaseID, p.CustomerID, p.ProductID, p.Description, p.Category,
			p.Amount, p.Date.Format(catalog.DateLayout),
		); err != nil {
			return fmt.Errorf("failed to insert purchase %s: %w", p.PurchaseID, err)
		}
	}
	return tx.Commit()
}

// ListProducts returns all products in import order.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, category FROM products ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Description, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct returns a product by id.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, category FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Description, &p.Category)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PurchasesByCustomer returns all purchases for one customer in import order.
func (s *SQLiteStorage) PurchasesByCustomer(ctx context.Context, customerID string) ([]models.PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, product_id, description, category, amount, purchase_date
		 FROM purchases WHERE customer_id = ? ORDER BY seq`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func scanPurchases(rows *sql.Rows) ([]models.PurchaseRecord, error) {
	var purchases []models.PurchaseRecord
	for rows.Next() {
		var p models.PurchaseRecord
		var date string
		if err := rows.Scan(&p.PurchaseID, &p.CustomerID, &p.ProductID,
			&p.Description, &p.Category, &p.Amount, &date); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(catalog.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("bad purchase date %q: %w", date, err)
		}
		p.Date = parsed
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// CustomerIDs returns all distinct customer ids, sorted.
func (s *SQLiteStorage) CustomerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT customer_id FROM purchases ORDER BY customer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TopSellers returns products ranked by transaction count descending,
// ties broken by product id ascending.
func (s *SQLiteStorage) TopSellers(ctx context.Context, limit int) ([]models.TopSeller, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, description, COUNT(*) AS cnt
		 FROM purchases
		 GROUP BY product_id, description
		 ORDER BY cnt DESC, product_id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sellers []models.TopSeller
	for rows.Next() {
		var ts models.TopSeller
		if err := rows.Scan(&ts.ProductID, &ts.Description, &ts.TransactionCount); err != nil {
			return nil, err
		}
		sellers = append(sellers, ts)
	}
	return sellers, rows.Err()
}

// MonthlySales returns summed purchase amounts per calendar month, ascending by month.
func (s *SQLiteStorage) MonthlySales(ctx context.Context) ([]MonthlySale, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CAST(strftime('%m', purchase_date) AS INTEGER) AS month, SUM(amount)
		 FROM purchases GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []MonthlySale
	for rows.Next() {
		var m MonthlySale
		if err := rows.Scan(&m.Month, &m.Total); err != nil {
			return nil, err
		}
		sales = append(sales, m)
	}
	return sales, rows.Err()
}

// TopProductsByRevenue returns products ranked by summed purchase amount descending.
func (s *SQLiteStorage) TopProductsByRevenue(ctx context.Context, limit int) ([]ProductRevenue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, description, SUM(amount) AS revenue
		 FROM purchases
		 GROUP BY product_id, description
		 ORDER BY revenue DESC, product_id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProductRevenue
	for rows.Next() {
		var pr ProductRevenue
		if err := rows.Scan(&pr.ProductID, &pr.Description, &pr.Revenue); err != nil {
			return nil, err
		}
		result = append(result, pr)
	}
	return result, rows.Err()
}

// TopProductsByCount returns products ranked by transaction count descending.
func (s *SQLiteStorage) TopProductsByCount(ctx context.Context, limit int) ([]models.TopSeller, error) {
	return s.TopSellers(ctx, limit)
}

// RevenueByCategory returns summed purchase amounts per category, descending.
func (s *SQLiteStorage) RevenueByCategory(ctx context.Context) ([]CategoryRevenue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount) AS revenue
		 FROM purchases GROUP BY category ORDER BY revenue DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryRevenue
	for rows.Next() {
		var cr CategoryRevenue
		if err := rows.Scan(&cr.Category, &cr.Revenue); err != nil {
			return nil, err
		}
		result = append(result, cr)
	}
	return result, rows.Err()
}

// TopCustomersBySpend returns customers ranked by summed purchase amount descending.
func (s *SQLiteStorage) TopCustomersBySpend(ctx context.Context, limit int) ([]CustomerSpend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id, SUM(amount) AS total
		 FROM purchases GROUP BY customer_id ORDER BY total DESC, customer_id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CustomerSpend
	for rows.Next() {
		var cs CustomerSpend
		if err := rows.Scan(&cs.CustomerID, &cs.Total); err != nil {
			return nil, err
		}
		result = append(result, cs)
	}
	return result, rows.Err()
}

// CountProducts returns the number of catalog products.
func (s *SQLiteStorage) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

// CountPurchases returns the number of purchase records.
func (s *SQLiteStorage) CountPurchases(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
