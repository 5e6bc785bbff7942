// Package catalog loads the product and purchase tables and provides
// immutable id lookups over the catalog.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/susume/internal/models"
)

// DateLayout is the purchase date format used in the purchase table.
const DateLayout = "2006-01-02"

// LoadProducts reads the product table from path, preserving row order.
// CSV and XLSX files are supported, chosen by file extension. The expected
// columns are ProductID, ProductDescription, ProductCategory.
func LoadProducts(path string) ([]models.Product, error) {
	rows, err := loadRows(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load product table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("product table %s is empty", path)
	}

	products := make([]models.Product, 0, len(rows)-1)
	seen := make(map[string]bool)
	for i, row := range rows[1:] {
		if len(row) < 3 {
			return nil, fmt.Errorf("product table row %d: expected 3 columns, got %d", i+2, len(row))
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			return nil, fmt.Errorf("product table row %d: empty product id", i+2)
		}
		if seen[id] {
			return nil, fmt.Errorf("product table row %d: duplicate product id %s", i+2, id)
		}
		seen[id] = true
		products = append(products, models.Product{
			ID:          id,
			Description: strings.TrimSpace(row[1]),
			Category:    strings.TrimSpace(row[2]),
		})
	}
	return products, nil
}

// LoadPurchases reads the purchase table from path. CSV and XLSX files are
// supported. The expected columns are PurchaseID, CustomerID, ProductID,
// ProductDescription, ProductCategory, PurchaseAmount, PurchaseDate.
func LoadPurchases(path string) ([]models.PurchaseRecord, error) {
	rows, err := loadRows(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("purchase table %s is empty", path)
	}

	purchases := make([]models.PurchaseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 7 {
			return nil, fmt.Errorf("purchase table row %d: expected 7 columns, got %d", i+2, len(row))
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return nil, fmt.Errorf("purchase table row %d: bad amount %q: %w", i+2, row[5], err)
		}
		date, err := time.Parse(DateLayout, strings.TrimSpace(row[6]))
		if err != nil {
			return nil, fmt.Errorf("purchase table row %d: bad date %q: %w", i+2, row[6], err)
		}
		purchases = append(purchases, models.PurchaseRecord{
			PurchaseID:  strings.TrimSpace(row[0]),
			CustomerID:  strings.TrimSpace(row[1]),
			ProductID:   strings.TrimSpace(row[2]),
			Description: strings.TrimSpace(row[3]),
			Category:    strings.TrimSpace(row[4]),
			Amount:      amount,
			Date:        date,
		})
	}
	return purchases, nil
}

func loadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadExcelRows(path)
	default:
		return loadCSVRows(path)
	}
}

func loadCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// loadExcelRows reads all rows of the first sheet of an XLSX workbook.
func loadExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
