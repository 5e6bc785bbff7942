package analytics

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/storage"
)

func seededAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "susume.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	products := []models.Product{
		{ID: "P1", Description: "wireless keyboard", Category: "Tech"},
		{ID: "P2", Description: "ceramic vase", Category: "Home"},
	}
	if err := st.ImportProducts(ctx, products); err != nil {
		t.Fatalf("ImportProducts error: %v", err)
	}

	day := func(m time.Month) time.Time { return time.Date(2024, m, 10, 0, 0, 0, 0, time.UTC) }
	purchases := []models.PurchaseRecord{
		{PurchaseID: "T1", CustomerID: "C001", ProductID: "P1", Description: "wireless keyboard", Category: "Tech", Amount: 100, Date: day(time.January)},
		{PurchaseID: "T2", CustomerID: "C001", ProductID: "P1", Description: "wireless keyboard", Category: "Tech", Amount: 100, Date: day(time.February)},
		{PurchaseID: "T3", CustomerID: "C002", ProductID: "P2", Description: "ceramic vase", Category: "Home", Amount: 50, Date: day(time.February)},
	}
	if err := st.ImportPurchases(ctx, purchases); err != nil {
		t.Fatalf("ImportPurchases error: %v", err)
	}
	return NewAnalyzer(st, 5)
}

func TestSummarize(t *testing.T) {
	a := seededAnalyzer(t)

	s, err := a.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if s.Products != 2 || s.Purchases != 3 {
		t.Errorf("counts = %d products / %d purchases, want 2/3", s.Products, s.Purchases)
	}

	if len(s.Monthly) != 2 {
		t.Fatalf("Monthly = %v, want 2 months", s.Monthly)
	}
	if s.Monthly[0].Month != 1 || s.Monthly[0].Total != 100 {
		t.Errorf("January = %+v, want month 1 total 100", s.Monthly[0])
	}
	if s.Monthly[1].Month != 2 || s.Monthly[1].Total != 150 {
		t.Errorf("February = %+v, want month 2 total 150", s.Monthly[1])
	}

	if len(s.TopByRevenue) == 0 || s.TopByRevenue[0].ProductID != "P1" || s.TopByRevenue[0].Revenue != 200 {
		t.Errorf("TopByRevenue = %v, want P1 with 200", s.TopByRevenue)
	}
	if len(s.TopByCount) == 0 || s.TopByCount[0].ProductID != "P1" || s.TopByCount[0].Count != 2 {
		t.Errorf("TopByCount = %v, want P1 with 2", s.TopByCount)
	}
	if len(s.ByCategory) == 0 || s.ByCategory[0].Category != "Tech" || s.ByCategory[0].Revenue != 200 {
		t.Errorf("ByCategory = %v, want Tech first with 200", s.ByCategory)
	}
	if len(s.TopCustomers) == 0 || s.TopCustomers[0].CustomerID != "C001" || s.TopCustomers[0].Total != 200 {
		t.Errorf("TopCustomers = %v, want C001 with 200", s.TopCustomers)
	}
}

func TestRender(t *testing.T) {
	a := seededAnalyzer(t)
	s, err := a.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}

	var buf bytes.Buffer
	a.Render(&buf, s)
	out := buf.String()
	for _, want := range []string{"Sales report", "January", "February", "wireless keyboard", "Tech", "C001"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
