// internal/workers/quote/generate-quote/models.go
package generatequote

import "renewal-workers/internal/models"

type Input struct {
	Asset     models.Asset `json:"asset"`
	Priority  string       `json:"priority"`
	Expansion string       `json:"expansion"`

	// Set by the negotiation agent when re-quoting after a rejection.
	RevisedDiscountPct *float64 `json:"revisedDiscountPct,omitempty"`
	DiscountReason     string   `json:"discountReason,omitempty"`
	ParentQuoteID      string   `json:"parentQuoteId,omitempty"`
}

type Output struct {
	Quote   models.Quote `json:"quote"`
	QuoteID string       `json:"quoteId"`
	Version int          `json:"version"`
}

// LatestQuoteCacheKeyPrefix caches the newest quote per asset.
const LatestQuoteCacheKeyPrefix = "renewal:quote:latest:"
