package models

// Recommendation is the result of one similarity-based recommendation call.
// Familiar holds up to topCategories*topN product ids, grouped by the
// customer's top categories in rank order. Novel is empty when no eligible
// candidate exists outside the customer's categories.
type Recommendation struct {
	CustomerID string   `json:"customer_id"`
	Purchased  []string `json:"purchased_products"`
	Familiar   []string `json:"familiar"`
	Novel      string   `json:"novel,omitempty"`
}

// HasNovel reports whether a novel recommendation was found.
func (r *Recommendation) HasNovel() bool {
	return r.Novel != ""
}

// ColdStartRecommendation is the popularity-based fallback for customers
// with no purchase history. It never uses the similarity matrix.
type ColdStartRecommendation struct {
	CustomerID string      `json:"customer_id"`
	TopSellers []TopSeller `json:"top_sellers"`
}
