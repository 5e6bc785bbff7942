// Package report renders recommendation results for the console and as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/pkg/utils"
)

// maxConsoleDesc caps product descriptions in console output. CSV output is
// never truncated.
const maxConsoleDesc = 60

// Reporter formats recommendation results. Product descriptions are resolved
// through the catalog index so output shows names, not just ids.
type Reporter struct {
	idx *catalog.Index
}

// NewReporter creates a reporter resolving descriptions from products.
func NewReporter(products []models.Product) *Reporter {
	return &Reporter{idx: catalog.NewIndex(products)}
}

func (r *Reporter) describe(pid string) string {
	if d, ok := r.idx.Description(pid); ok && d != "" {
		return d
	}
	return pid
}

func (r *Reporter) category(pid string) string {
	c, _ := r.idx.Category(pid)
	return c
}

// Print writes a human-readable report for one result to w.
func (r *Reporter) Print(w io.Writer, res *recommend.Result) {
	if res.ColdStart != nil {
		r.printColdStart(w, res.ColdStart)
		return
	}
	rec := res.Recommendation

	fmt.Fprintf(w, "Customer %s\n", rec.CustomerID)
	fmt.Fprintf(w, "  Purchased (%d):\n", len(rec.Purchased))
	for _, pid := range rec.Purchased {
		fmt.Fprintf(w, "    %-8s %s\n", pid, utils.Truncate(r.describe(pid), maxConsoleDesc))
	}
	fmt.Fprintf(w, "  Familiar picks:\n")
	if len(rec.Familiar) == 0 {
		fmt.Fprintf(w, "    (none)\n")
	}
	for _, pid := range rec.Familiar {
		fmt.Fprintf(w, "    %-8s %s [%s]\n", pid, utils.Truncate(r.describe(pid), maxConsoleDesc), r.category(pid))
	}
	if rec.HasNovel() {
		fmt.Fprintf(w, "  Something new: %s %s [%s]\n",
			rec.Novel, r.describe(rec.Novel), r.category(rec.Novel))
	} else {
		fmt.Fprintf(w, "  Something new: (no candidate)\n")
	}
}

func (r *Reporter) printColdStart(w io.Writer, cold *models.ColdStartRecommendation) {
	fmt.Fprintf(w, "Customer %s has no purchase history. Current top sellers:\n", cold.CustomerID)
	for i, s := range cold.TopSellers {
		fmt.Fprintf(w, "  %d. %-8s %s (%d transactions)\n", i+1, s.ProductID, s.Description, s.TransactionCount)
	}
}

// PrintBatch writes the per-customer reports followed by a failure summary.
func (r *Reporter) PrintBatch(w io.Writer, batch *recommend.BatchResult) {
	for _, res := range batch.Results {
		r.Print(w, res)
		fmt.Fprintln(w)
	}
	if len(batch.Failures) > 0 {
		fmt.Fprintf(w, "%d customer(s) failed:\n", len(batch.Failures))
		for _, f := range batch.Failures {
			fmt.Fprintf(w, "  %s: %v\n", f.CustomerID, f.Err)
		}
	}
}

// WriteCSV writes recommendations as CSV: CustomerID, then familiarCols
// RecID{i}/RecDesc{i} pairs, then NovelRecID/NovelRecDesc. familiarCols is
// the configured top_categories*top_n, so every batch emits the same field
// count regardless of how many picks each customer got; shorter rows are
// padded with empty cells. familiarCols <= 0 sizes the header to the widest
// familiar list instead.
func (r *Reporter) WriteCSV(w io.Writer, recs []*models.Recommendation, familiarCols int) error {
	maxFamiliar := familiarCols
	for _, rec := range recs {
		if len(rec.Familiar) > maxFamiliar {
			maxFamiliar = len(rec.Familiar)
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"CustomerID"}
	for i := 1; i <= maxFamiliar; i++ {
		header = append(header, "RecID"+strconv.Itoa(i), "RecDesc"+strconv.Itoa(i))
	}
	header = append(header, "NovelRecID", "NovelRecDesc")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range recs {
		row := []string{rec.CustomerID}
		for i := 0; i < maxFamiliar; i++ {
			if i < len(rec.Familiar) {
				row = append(row, rec.Familiar[i], r.describe(rec.Familiar[i]))
			} else {
				row = append(row, "", "")
			}
		}
		if rec.HasNovel() {
			row = append(row, rec.Novel, r.describe(rec.Novel))
		} else {
			row = append(row, "", "")
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", rec.CustomerID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveBatch writes one CSV per customer plus a combined recommendations.csv
// into dir, all with the field count fixed by familiarCols. Cold-start
// results have no similarity output and are skipped.
func (r *Reporter) SaveBatch(dir string, batch *recommend.BatchResult, familiarCols int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var recs []*models.Recommendation
	for _, res := range batch.Results {
		if res.Recommendation != nil {
			recs = append(recs, res.Recommendation)
		}
	}

	for _, rec := range recs {
		path := filepath.Join(dir, "recommendation_"+rec.CustomerID+".csv")
		if err := r.writeFile(path, []*models.Recommendation{rec}, familiarCols); err != nil {
			return err
		}
	}
	return r.writeFile(filepath.Join(dir, "recommendations.csv"), recs, familiarCols)
}

func (r *Reporter) writeFile(path string, recs []*models.Recommendation, familiarCols int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := r.WriteCSV(f, recs, familiarCols); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
