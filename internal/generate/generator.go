// Package generate produces a synthetic product catalog and purchase history
// for demos and tests.
package generate

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/models"
)

// categoryTemplate describes one category's product names and price range.
type categoryTemplate struct {
	name     string
	min, max float64
	items    []string
}

var templates = []categoryTemplate{
	{"Electronics", 20, 900, []string{
		"wireless keyboard", "bluetooth speaker", "noise cancelling headphones",
		"usb-c hub", "mechanical keyboard", "4k webcam", "portable ssd",
		"smart light bulb", "fitness tracker", "wireless mouse",
	}},
	{"Home", 10, 250, []string{
		"ceramic vase", "table lamp", "scented candle set", "throw blanket",
		"picture frame", "wall clock", "area rug", "plant pot",
		"storage basket", "desk organizer",
	}},
	{"Kitchen", 8, 300, []string{
		"cast iron skillet", "chef knife", "ceramic coffee mug", "french press",
		"cutting board", "mixing bowl set", "electric kettle", "spice rack",
		"glass food containers", "stand mixer",
	}},
	{"Books", 6, 45, []string{
		"mystery novel", "science fiction anthology", "cookbook", "travel guide",
		"biography", "poetry collection", "history of art", "programming manual",
		"graphic novel", "self help book",
	}},
	{"Sports", 12, 400, []string{
		"yoga mat", "running shoes", "dumbbell set", "tennis racket",
		"cycling helmet", "resistance bands", "water bottle", "hiking backpack",
		"jump rope", "foam roller",
	}},
	{"Toys", 5, 120, []string{
		"building blocks", "plush bear", "puzzle 1000 pieces", "remote control car",
		"board game", "craft kit", "toy train set", "dollhouse",
		"science experiment kit", "card game",
	}},
	{"Beauty", 7, 150, []string{
		"face moisturizer", "vitamin c serum", "shampoo and conditioner set",
		"electric razor", "perfume", "makeup brush set", "hair dryer",
		"nail polish kit", "lip balm trio", "sheet mask pack",
	}},
	{"Garden", 9, 350, []string{
		"pruning shears", "garden hose", "flower seeds mix", "watering can",
		"bird feeder", "outdoor string lights", "planter box", "garden gloves",
		"compost bin", "lawn sprinkler",
	}},
}

// Customer segments. High spenders buy often and at the top of the price
// range; occasional buyers rarely; lost customers stop buying after the
// first quarter and should end up with stale histories.
type segment int

const (
	segmentRegular segment = iota
	segmentHighSpender
	segmentOccasional
	segmentLost
)

var segmentWeights = map[segment]int{
	segmentRegular:     3,
	segmentHighSpender: 8,
	segmentOccasional:  1,
	segmentLost:        1,
}

// Dataset is one generated catalog plus purchase history.
type Dataset struct {
	RunID     string
	Products  []models.Product
	Purchases []models.PurchaseRecord
}

// Generator produces synthetic datasets. The same seed yields the same
// dataset, which keeps demo runs and tests reproducible.
type Generator struct {
	cfg    config.GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a generator from config.
func NewGenerator(cfg config.GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate builds the catalog and purchase history.
func (g *Generator) Generate() (*Dataset, error) {
	if g.cfg.NumProducts <= 0 || g.cfg.NumCustomers <= 0 || g.cfg.NumEntries <= 0 {
		return nil, fmt.Errorf("generator needs positive counts, got products=%d customers=%d entries=%d",
			g.cfg.NumProducts, g.cfg.NumCustomers, g.cfg.NumEntries)
	}

	rng := rand.New(rand.NewSource(g.cfg.Seed))
	ds := &Dataset{RunID: uuid.NewString()}

	ds.Products = g.buildCatalog(rng)
	segments := g.assignSegments(rng)
	ds.Purchases = g.buildPurchases(rng, ds.Products, segments)

	g.logger.Info("dataset generated",
		zap.String("run", ds.RunID),
		zap.Int("products", len(ds.Products)),
		zap.Int("purchases", len(ds.Purchases)))
	return ds, nil
}

// buildCatalog round-robins over the category templates so every category is
// represented even for small catalogs.
func (g *Generator) buildCatalog(rng *rand.Rand) []models.Product {
	products := make([]models.Product, 0, g.cfg.NumProducts)
	counters := make([]int, len(templates))
	for i := 0; i < g.cfg.NumProducts; i++ {
		t := templates[i%len(templates)]
		n := counters[i%len(templates)]
		counters[i%len(templates)]++

		desc := t.items[n%len(t.items)]
		if n >= len(t.items) {
			desc = fmt.Sprintf("%s v%d", desc, n/len(t.items)+1)
		}
		products = append(products, models.Product{
			ID:          fmt.Sprintf("P%03d", i+1),
			Description: desc,
			Category:    t.name,
		})
	}
	return products
}

func (g *Generator) assignSegments(rng *rand.Rand) []segment {
	segments := make([]segment, g.cfg.NumCustomers)
	high := int(float64(g.cfg.NumCustomers) * g.cfg.HighSpenderRatio)
	occasional := int(float64(g.cfg.NumCustomers) * g.cfg.OccasionalRatio)
	lost := int(float64(g.cfg.NumCustomers) * g.cfg.LostRatio)

	i := 0
	for ; i < high && i < len(segments); i++ {
		segments[i] = segmentHighSpender
	}
	for ; i < high+occasional && i < len(segments); i++ {
		segments[i] = segmentOccasional
	}
	for ; i < high+occasional+lost && i < len(segments); i++ {
		segments[i] = segmentLost
	}
	rng.Shuffle(len(segments), func(a, b int) {
		segments[a], segments[b] = segments[b], segments[a]
	})
	return segments
}

func (g *Generator) buildPurchases(rng *rand.Rand, products []models.Product, segments []segment) []models.PurchaseRecord {
	ranges := make(map[string]categoryTemplate, len(templates))
	for _, t := range templates {
		ranges[t.name] = t
	}

	// Weighted customer pool so segment sizes shape purchase frequency.
	var pool []int
	for c, seg := range segments {
		for w := 0; w < segmentWeights[seg]; w++ {
			pool = append(pool, c)
		}
	}

	year := time.Now().Year() - 1
	purchases := make([]models.PurchaseRecord, 0, g.cfg.NumEntries)
	for i := 0; i < g.cfg.NumEntries; i++ {
		c := pool[rng.Intn(len(pool))]
		seg := segments[c]
		date := g.purchaseDate(rng, seg, year)

		p := products[rng.Intn(len(products))]
		t := ranges[p.Category]
		amount := t.min + rng.Float64()*(t.max-t.min)
		if seg == segmentHighSpender {
			// High spenders skew toward the top of the range.
			amount = t.min + (0.5+0.5*rng.Float64())*(t.max-t.min)
		}

		purchases = append(purchases, models.PurchaseRecord{
			PurchaseID:  fmt.Sprintf("T%06d", i+1),
			CustomerID:  fmt.Sprintf("C%04d", c+1),
			ProductID:   p.ID,
			Description: p.Description,
			Category:    p.Category,
			Amount:      float64(int(amount*100)) / 100,
			Date:        date,
		})
	}
	return purchases
}

// purchaseDate picks a date in the given year. November and December are
// twice as likely, giving the history a holiday peak. Lost customers only
// buy in the first quarter.
func (g *Generator) purchaseDate(rng *rand.Rand, seg segment, year int) time.Time {
	var month time.Month
	if seg == segmentLost {
		month = time.Month(1 + rng.Intn(3))
	} else {
		m := rng.Intn(14)
		if m >= 12 {
			month = time.Month(11 + (m - 12)) // extra Nov/Dec tickets
		} else {
			month = time.Month(m + 1)
		}
	}
	day := 1 + rng.Intn(28)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WriteCSV writes products.csv and dataset.csv into dir in the layout the
// catalog loader expects.
func (ds *Dataset) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := writeCSVFile(filepath.Join(dir, "products.csv"),
		[]string{"ProductID", "ProductDescription", "ProductCategory"},
		len(ds.Products), func(i int) []string {
			p := ds.Products[i]
			return []string{p.ID, p.Description, p.Category}
		}); err != nil {
		return err
	}

	return writeCSVFile(filepath.Join(dir, "dataset.csv"),
		[]string{"PurchaseID", "CustomerID", "ProductID", "ProductDescription", "ProductCategory", "PurchaseAmount", "PurchaseDate"},
		len(ds.Purchases), func(i int) []string {
			r := ds.Purchases[i]
			return []string{
				r.PurchaseID, r.CustomerID, r.ProductID, r.Description, r.Category,
				strconv.FormatFloat(r.Amount, 'f', 2, 64),
				r.Date.Format(catalog.DateLayout),
			}
		})
}

func writeCSVFile(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			_ = f.Close()
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
