// internal/workers/negotiation/classify-rejection-intent/models.go
package classifyrejectionintent

type Input struct {
	QuoteID         string `json:"quoteId"`
	AssetID         string `json:"assetId,omitempty"`
	RejectionReason string `json:"rejectionReason"`
}

type Output struct {
	QuoteID string `json:"quoteId"`
	Intent  string `json:"intent"`
	Source  string `json:"intentSource"`
}

// Intent sources
const (
	SourceGenAI        = "genai"
	SourceKeywordRules = "keyword_rules"
)
