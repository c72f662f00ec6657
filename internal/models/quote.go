// internal/models/quote.go
package models

// QuoteLine is a single line item on a quote.
type QuoteLine struct {
	SKU   string  `json:"sku"`
	Item  string  `json:"item"`
	Price float64 `json:"price"`
}

// Quote is one version in an asset's quote chain. A new version supersedes,
// never mutates, its parent.
type Quote struct {
	QuoteID        string      `json:"quoteId"`
	Version        int         `json:"version"`
	ParentQuoteID  string      `json:"parentQuoteId,omitempty"`
	AssetID        string      `json:"assetId"`
	Customer       string      `json:"customer"`
	Lines          []QuoteLine `json:"lines"`
	Subtotal       float64     `json:"subtotal"`
	DiscountPct    float64     `json:"discountPct"`
	DiscountAmt    float64     `json:"discountAmt"`
	DiscountReason string      `json:"discountReason,omitempty"`
	DiscountSource string      `json:"discountSource"`
	Total          float64     `json:"total"`
	TermStart      string      `json:"termStart"`
	TermEnd        string      `json:"termEnd"`
	ServiceLevel   string      `json:"serviceLevel"`
	Status         string      `json:"status"`
	Decision       string      `json:"decision,omitempty"`
	DecisionReason string      `json:"decisionReason,omitempty"`
	DecidedAt      string      `json:"decidedAt,omitempty"`
	CreatedAt      string      `json:"createdAt"`
}

// Quote statuses
const (
	QuoteStatusPending  = "PENDING"
	QuoteStatusAccepted = "ACCEPTED"
	QuoteStatusRejected = "REJECTED"
)

// Discount sources
const (
	DiscountSourceRules       = "rules_engine"
	DiscountSourceNegotiation = "negotiation_agent"
)
