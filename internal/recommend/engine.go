package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/similarity"
)

// leastPurchasedFallback is how many of the customer's least-purchased
// categories count as "unfamiliar" when they have bought from every
// catalog category.
const leastPurchasedFallback = 3

// Recommend produces familiar and novel recommendations for one customer
// from their purchase history and the similarity artifact.
//
// Familiar: the customer's topCategories most-purchased categories are
// ranked by purchase count (one count per purchase, ties keep
// first-purchase order). For each purchased product, similarity to every
// unpurchased product in those categories is summed per candidate; each
// category contributes its topN highest-scoring candidates, concatenated in
// category rank order. Equal scores keep catalog row order.
//
// Novel: one product from a category the customer has never bought (or,
// when they have bought from every category, from their
// leastPurchasedFallback least-purchased ones), chosen by highest
// similarity to any purchased product. When no eligible candidate exists
// the result is returned with the novel slot empty alongside
// ErrNoNovelCandidate.
//
// Pure and stateless: the artifact is only read, so concurrent calls for
// different customers are safe.
func Recommend(history []models.PurchaseRecord, art *similarity.Artifact, topCategories, topN int) (*models.Recommendation, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	if topCategories < 1 || topN < 1 {
		return nil, fmt.Errorf("topCategories and topN must be >= 1, got %d and %d", topCategories, topN)
	}

	purchased, purchasedSet := distinctProducts(history)
	catCounts, catOrder := categoryCounts(history)

	rows := make([]int, len(purchased))
	for i, pid := range purchased {
		row, ok := art.Row(pid)
		if !ok {
			return nil, &DataIntegrityError{ProductID: pid}
		}
		rows[i] = row
	}

	topCats := rankTopCategories(catOrder, catCounts, topCategories)
	familiar := familiarRecommendations(art, rows, purchasedSet, topCats, topN)

	rec := &models.Recommendation{
		CustomerID: history[0].CustomerID,
		Purchased:  purchased,
		Familiar:   familiar,
	}

	novel, found := novelRecommendation(art, rows, purchasedSet, catCounts, catOrder)
	if !found {
		return rec, ErrNoNovelCandidate
	}
	rec.Novel = novel
	return rec, nil
}

// distinctProducts returns the customer's purchased product ids in
// first-purchase order, plus a membership set.
func distinctProducts(history []models.PurchaseRecord) ([]string, map[string]bool) {
	var ids []string
	set := make(map[string]bool)
	for _, rec := range history {
		if !set[rec.ProductID] {
			set[rec.ProductID] = true
			ids = append(ids, rec.ProductID)
		}
	}
	return ids, set
}

// categoryCounts counts purchases per category (one per purchase, not per
// distinct product) and records first-purchase order for tie-breaking.
func categoryCounts(history []models.PurchaseRecord) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, rec := range history {
		if counts[rec.Category] == 0 {
			order = append(order, rec.Category)
		}
		counts[rec.Category]++
	}
	return counts, order
}

// rankTopCategories returns up to limit categories by purchase count
// descending; the stable sort keeps first-purchase order on ties.
func rankTopCategories(order []string, counts map[string]int, limit int) []string {
	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// familiarRecommendations accumulates similarity scores for every
// unpurchased product in the top categories, summed across all purchased
// products, then takes the topN per category in category rank order.
// Candidates are tracked in catalog row order so equal scores resolve
// deterministically.
func familiarRecommendations(art *similarity.Artifact, rows []int, purchasedSet map[string]bool, topCats []string, topN int) []string {
	products := art.Products()
	topCatSet := make(map[string]bool, len(topCats))
	for _, c := range topCats {
		topCatSet[c] = true
	}

	scores := make([]float64, len(products))
	eligible := make([]bool, len(products))
	for _, row := range rows {
		sims := art.RowSimilarities(row)
		for j, p := range products {
			if purchasedSet[p.ID] || !topCatSet[p.Category] {
				continue
			}
			scores[j] += sims[j]
			eligible[j] = true
		}
	}

	var familiar []string
	for _, c := range topCats {
		var cands []int
		for j, p := range products {
			if eligible[j] && p.Category == c {
				cands = append(cands, j)
			}
		}
		sort.SliceStable(cands, func(a, b int) bool {
			return scores[cands[a]] > scores[cands[b]]
		})
		for k := 0; k < topN && k < len(cands); k++ {
			familiar = append(familiar, products[cands[k]].ID)
		}
	}
	return familiar
}

// novelRecommendation picks the single unpurchased product from an
// unfamiliar category with the highest similarity to any purchased product.
// Unfamiliar categories are those never purchased; when none exist, the
// customer's least-purchased categories are used instead. Ties keep the
// earlier purchased product and, within one row, the lower catalog row.
func novelRecommendation(art *similarity.Artifact, rows []int, purchasedSet map[string]bool, catCounts map[string]int, catOrder []string) (string, bool) {
	products := art.Products()

	unfamiliar := make(map[string]bool)
	for _, p := range products {
		if catCounts[p.Category] == 0 {
			unfamiliar[p.Category] = true
		}
	}
	if len(unfamiliar) == 0 {
		least := append([]string(nil), catOrder...)
		sort.SliceStable(least, func(i, j int) bool {
			return catCounts[least[i]] < catCounts[least[j]]
		})
		if len(least) > leastPurchasedFallback {
			least = least[:leastPurchasedFallback]
		}
		for _, c := range least {
			unfamiliar[c] = true
		}
	}

	best := ""
	bestScore := math.Inf(-1)
	for _, row := range rows {
		sims := art.RowSimilarities(row)
		order := descendingOrder(sims)
		// The first eligible candidate in descending order is this row's
		// maximum; later ones cannot strictly beat it.
		for _, j := range order {
			p := products[j]
			if purchasedSet[p.ID] || !unfamiliar[p.Category] {
				continue
			}
			if sims[j] > bestScore {
				best = p.ID
				bestScore = sims[j]
			}
			break
		}
	}
	return best, best != ""
}

// descendingOrder returns column indices sorted by similarity descending,
// ties by index ascending.
func descendingOrder(sims []float64) []int {
	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})
	return order
}
