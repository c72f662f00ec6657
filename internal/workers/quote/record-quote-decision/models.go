// internal/workers/quote/record-quote-decision/models.go
package recordquotedecision

type Input struct {
	QuoteID  string `json:"quoteId"`
	Decision string `json:"decision"` // ACCEPTED or REJECTED
	Reason   string `json:"reason,omitempty"`
}

type Output struct {
	QuoteID             string `json:"quoteId"`
	AssetID             string `json:"assetId"`
	Status              string `json:"status"`
	DecidedAt           string `json:"decidedAt"`
	NegotiationRequired bool   `json:"negotiationRequired"`
}
