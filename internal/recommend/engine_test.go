package recommend

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/similarity"
)

// scenarioArtifact builds a 3-category x 5-product catalog with a
// handcrafted similarity rule: sim(i,j) = 1 for i == j, else 1/(1+|i-j|).
// Closer rows are more similar, so expected rankings can be read off the
// row distances.
func scenarioArtifact(t *testing.T) *similarity.Artifact {
	t.Helper()
	var products []models.Product
	add := func(cat, prefix string) {
		for i := 1; i <= 5; i++ {
			products = append(products, models.Product{
				ID:          prefix + string(rune('0'+i)),
				Description: prefix,
				Category:    cat,
			})
		}
	}
	add("Tech", "T")
	add("Home", "H")
	add("Books", "B")
	return artifactWithDistanceRule(t, products)
}

func artifactWithDistanceRule(t *testing.T, products []models.Product) *similarity.Artifact {
	t.Helper()
	n := len(products)
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
	art, err := similarity.NewArtifact(matrix, products)
	if err != nil {
		t.Fatalf("NewArtifact error: %v", err)
	}
	return art
}

func purchase(cid, pid, category string) models.PurchaseRecord {
	return models.PurchaseRecord{
		PurchaseID: "PU-" + pid,
		CustomerID: cid,
		ProductID:  pid,
		Category:   category,
		Amount:     10,
		Date:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// scenarioHistory: 4 Tech purchases (one product twice), 1 Home purchase.
func scenarioHistory() []models.PurchaseRecord {
	return []models.PurchaseRecord{
		purchase("C001", "T1", "Tech"),
		purchase("C001", "T2", "Tech"),
		purchase("C001", "T1", "Tech"),
		purchase("C001", "T3", "Tech"),
		purchase("C001", "T4", "Tech"),
		purchase("C001", "H1", "Home"),
	}
}

func TestRecommendScenarioFamiliarOrder(t *testing.T) {
	art := scenarioArtifact(t)
	rec, err := Recommend(scenarioHistory(), art, 2, 2)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}

	// Tech ranks first (5 purchases vs 1), but only T5 is unpurchased, so
	// Tech contributes one item; Home contributes its two closest-to-history
	// candidates H2 then H3.
	want := []string{"T5", "H2", "H3"}
	if len(rec.Familiar) != len(want) {
		t.Fatalf("Familiar = %v, want %v", rec.Familiar, want)
	}
	for i := range want {
		if rec.Familiar[i] != want[i] {
			t.Errorf("Familiar[%d] = %s, want %s", i, rec.Familiar[i], want[i])
		}
	}
}

func TestRecommendScenarioNovel(t *testing.T) {
	art := scenarioArtifact(t)
	rec, err := Recommend(scenarioHistory(), art, 2, 2)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	// Books is the only unfamiliar category; B1 (row 10) is closest to the
	// purchased H1 (row 5).
	if rec.Novel != "B1" {
		t.Errorf("Novel = %s, want B1", rec.Novel)
	}
}

func TestRecommendExcludesPurchased(t *testing.T) {
	art := scenarioArtifact(t)
	rec, err := Recommend(scenarioHistory(), art, 2, 5)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	purchased := make(map[string]bool)
	for _, pid := range rec.Purchased {
		purchased[pid] = true
	}
	for _, pid := range rec.Familiar {
		if purchased[pid] {
			t.Errorf("familiar contains purchased product %s", pid)
		}
	}
	if purchased[rec.Novel] {
		t.Errorf("novel %s is a purchased product", rec.Novel)
	}
}

func TestRecommendFamiliarLengthBound(t *testing.T) {
	art := scenarioArtifact(t)
	history := scenarioHistory()

	var prev int
	for topN := 1; topN <= 6; topN++ {
		rec, err := Recommend(history, art, 2, topN)
		if err != nil {
			t.Fatalf("Recommend(topN=%d) error: %v", topN, err)
		}
		if len(rec.Familiar) > 2*topN {
			t.Errorf("len(Familiar) = %d with topN=%d, want <= %d", len(rec.Familiar), topN, 2*topN)
		}
		if len(rec.Familiar) < prev {
			t.Errorf("len(Familiar) decreased from %d to %d as topN grew", prev, len(rec.Familiar))
		}
		prev = len(rec.Familiar)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	art := scenarioArtifact(t)
	a, err := Recommend(scenarioHistory(), art, 2, 2)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	b, err := Recommend(scenarioHistory(), art, 2, 2)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(a.Familiar) != len(b.Familiar) || a.Novel != b.Novel {
		t.Fatalf("results differ across identical calls: %v/%v vs %v/%v",
			a.Familiar, a.Novel, b.Familiar, b.Novel)
	}
	for i := range a.Familiar {
		if a.Familiar[i] != b.Familiar[i] {
			t.Fatalf("Familiar[%d] differs: %s vs %s", i, a.Familiar[i], b.Familiar[i])
		}
	}
}

func TestRecommendCategoryCountNotDistinctProducts(t *testing.T) {
	art := scenarioArtifact(t)
	// Two distinct Home products once each vs one Tech product bought three
	// times: Tech must rank first because counts are per purchase.
	history := []models.PurchaseRecord{
		purchase("C002", "H1", "Home"),
		purchase("C002", "H2", "Home"),
		purchase("C002", "T1", "Tech"),
		purchase("C002", "T1", "Tech"),
		purchase("C002", "T1", "Tech"),
	}
	rec, err := Recommend(history, art, 1, 1)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(rec.Familiar) != 1 {
		t.Fatalf("Familiar = %v, want exactly one item", rec.Familiar)
	}
	if got, _ := categoryOf(art, rec.Familiar[0]); got != "Tech" {
		t.Errorf("top familiar category = %s, want Tech", got)
	}
}

func TestRecommendAllCategoriesPurchasedFallback(t *testing.T) {
	// 4 categories x 2 products; the customer has bought from every one.
	products := []models.Product{
		{ID: "T1", Category: "Tech"}, {ID: "T2", Category: "Tech"},
		{ID: "H1", Category: "Home"}, {ID: "H2", Category: "Home"},
		{ID: "B1", Category: "Books"}, {ID: "B2", Category: "Books"},
		{ID: "Y1", Category: "Toys"}, {ID: "Y2", Category: "Toys"},
	}
	art := artifactWithDistanceRule(t, products)
	history := []models.PurchaseRecord{
		purchase("C003", "T1", "Tech"),
		purchase("C003", "T2", "Tech"),
		purchase("C003", "H1", "Home"),
		purchase("C003", "B1", "Books"),
		purchase("C003", "Y1", "Toys"),
	}
	rec, err := Recommend(history, art, 2, 2)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if rec.Novel == "" {
		t.Fatal("expected a novel pick from the least-purchased fallback")
	}
	// Tech has 2 purchases, the other three have 1: the fallback set is
	// {Home, Books, Toys}, so the novel pick cannot be Tech.
	if cat, _ := categoryOf(art, rec.Novel); cat == "Tech" {
		t.Errorf("novel %s is from Tech, the most-purchased category", rec.Novel)
	}
}

func TestRecommendEmptyCandidatePool(t *testing.T) {
	// One category, fully purchased: the novelty pool is empty.
	products := []models.Product{
		{ID: "T1", Category: "Tech"},
		{ID: "T2", Category: "Tech"},
	}
	art := artifactWithDistanceRule(t, products)
	history := []models.PurchaseRecord{
		purchase("C004", "T1", "Tech"),
		purchase("C004", "T2", "Tech"),
	}
	rec, err := Recommend(history, art, 1, 1)
	if !errors.Is(err, ErrNoNovelCandidate) {
		t.Fatalf("err = %v, want ErrNoNovelCandidate", err)
	}
	if rec == nil {
		t.Fatal("expected a result alongside ErrNoNovelCandidate")
	}
	if rec.Novel != "" {
		t.Errorf("Novel = %s, want empty", rec.Novel)
	}
}

func TestRecommendUnknownProductID(t *testing.T) {
	art := scenarioArtifact(t)
	history := []models.PurchaseRecord{purchase("C005", "P99", "Tech")}
	_, err := Recommend(history, art, 2, 2)
	var integrity *DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("err = %v, want DataIntegrityError", err)
	}
	if integrity.ProductID != "P99" {
		t.Errorf("ProductID = %s, want P99", integrity.ProductID)
	}
}

func TestRecommendEmptyHistory(t *testing.T) {
	art := scenarioArtifact(t)
	if _, err := Recommend(nil, art, 2, 2); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("err = %v, want ErrEmptyHistory", err)
	}
}

func TestRecommendInvalidParams(t *testing.T) {
	art := scenarioArtifact(t)
	if _, err := Recommend(scenarioHistory(), art, 0, 2); err == nil {
		t.Error("expected error for topCategories = 0")
	}
	if _, err := Recommend(scenarioHistory(), art, 2, 0); err == nil {
		t.Error("expected error for topN = 0")
	}
}

func categoryOf(art *similarity.Artifact, pid string) (string, bool) {
	for _, p := range art.Products() {
		if p.ID == pid {
			return p.Category, true
		}
	}
	return "", false
}
