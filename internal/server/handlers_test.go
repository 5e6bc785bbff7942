package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/search"
	"github.com/hyperjump/susume/internal/similarity"
	"github.com/hyperjump/susume/internal/storage"
)

var testProducts = []models.Product{
	{ID: "P1", Description: "wireless keyboard", Category: "Tech"},
	{ID: "P2", Description: "usb hub", Category: "Tech"},
	{ID: "P3", Description: "ceramic vase", Category: "Home"},
	{ID: "P4", Description: "table lamp", Category: "Home"},
}

func testHandler(t *testing.T, withArtifact bool) http.Handler {
	t.Helper()
	dir := t.TempDir()

	st, err := storage.NewSQLiteStorage(filepath.Join(dir, "susume.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	if err := st.ImportProducts(ctx, testProducts); err != nil {
		t.Fatalf("ImportProducts error: %v", err)
	}
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	purchases := []models.PurchaseRecord{
		{PurchaseID: "T1", CustomerID: "C001", ProductID: "P1", Description: "wireless keyboard", Category: "Tech", Amount: 80, Date: date},
		{PurchaseID: "T2", CustomerID: "C001", ProductID: "P3", Description: "ceramic vase", Category: "Home", Amount: 25, Date: date},
		{PurchaseID: "T3", CustomerID: "C002", ProductID: "P1", Description: "wireless keyboard", Category: "Tech", Amount: 80, Date: date},
	}
	if err := st.ImportPurchases(ctx, purchases); err != nil {
		t.Fatalf("ImportPurchases error: %v", err)
	}

	artifactPath := filepath.Join(dir, "similarity.bin")
	if withArtifact {
		n := len(testProducts)
		matrix := make([][]float64, n)
		for i := range matrix {
			matrix[i] = make([]float64, n)
			for j := range matrix[i] {
				if i == j {
					matrix[i][j] = 1
				} else {
					d := i - j
					if d < 0 {
						d = -d
					}
					matrix[i][j] = 1 / float64(1+d)
				}
			}
		}
		art, err := similarity.NewArtifact(matrix, testProducts)
		if err != nil {
			t.Fatalf("NewArtifact error: %v", err)
		}
		if err := similarity.Save(artifactPath, art); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	index, err := search.NewMemoryProductIndex()
	if err != nil {
		t.Fatalf("NewMemoryProductIndex error: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	if err := index.IndexProducts(ctx, testProducts); err != nil {
		t.Fatalf("IndexProducts error: %v", err)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Data.DatabasePath = filepath.Join(dir, "susume.db")
	cfg.Data.ArtifactPath = artifactPath

	svc := recommend.NewService(st, artifactPath, cfg.Recommend, zap.NewNop())
	srv := NewServer(svc, st, index, cfg, zap.NewNop())
	return srv.routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/recommendations",
		recommendRequest{CustomerID: "C001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res recommend.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Recommendation == nil {
		t.Fatal("expected a similarity recommendation")
	}
	if res.Recommendation.CustomerID != "C001" {
		t.Errorf("customer = %s, want C001", res.Recommendation.CustomerID)
	}
	if len(res.Recommendation.Familiar) == 0 {
		t.Error("familiar picks are empty")
	}
}

func TestRecommendEndpointColdStart(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/recommendations",
		recommendRequest{CustomerID: "C999"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res recommend.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.ColdStart == nil {
		t.Fatal("expected a cold-start result for unknown customer")
	}
	if len(res.ColdStart.TopSellers) == 0 {
		t.Error("cold-start result has no top sellers")
	}
}

func TestRecommendEndpointValidation(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/recommendations", recommendRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendEndpointNotPreprocessed(t *testing.T) {
	h := testHandler(t, false)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/recommendations",
		recommendRequest{CustomerID: "C001"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503: %s", rec.Code, rec.Body.String())
	}
}

func TestGetProductEndpoint(t *testing.T) {
	h := testHandler(t, true)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products/P1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var p models.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if p.ID != "P1" || p.Description != "wireless keyboard" {
		t.Errorf("product = %+v, want P1 wireless keyboard", p)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products/NOPE", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := testHandler(t, true)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products/search?q=vase", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Hits []search.Hit `json:"hits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Hits) == 0 || res.Hits[0].ProductID != "P3" {
		t.Errorf("hits = %v, want P3 first", res.Hits)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status without q = %d, want 400", rec.Code)
	}
}

func TestCustomerPurchasesEndpoint(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/customers/C001/purchases", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		CustomerID string                  `json:"customer_id"`
		Purchases  []models.PurchaseRecord `json:"purchases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Purchases) != 2 {
		t.Errorf("got %d purchases, want 2", len(res.Purchases))
	}
}

func TestTopSellersEndpoint(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/topsellers?limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		TopSellers []models.TopSeller `json:"topsellers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.TopSellers) != 1 || res.TopSellers[0].ProductID != "P1" {
		t.Errorf("topsellers = %v, want [P1]", res.TopSellers)
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := testHandler(t, true)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		Products      int64 `json:"products"`
		Purchases     int64 `json:"purchases"`
		ArtifactReady bool  `json:"artifact_ready"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Products != 4 || res.Purchases != 3 {
		t.Errorf("counts = %d/%d, want 4/3", res.Products, res.Purchases)
	}
	if !res.ArtifactReady {
		t.Error("artifact_ready = false, want true")
	}
}
