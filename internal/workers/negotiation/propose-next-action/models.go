// internal/workers/negotiation/propose-next-action/models.go
package proposenextaction

type Input struct {
	QuoteID            string  `json:"quoteId"`
	AssetID            string  `json:"assetId"`
	Customer           string  `json:"customer,omitempty"`
	Product            string  `json:"product,omitempty"`
	Intent             string  `json:"intent"`
	Priority           string  `json:"priority"`
	CurrentDiscountPct float64 `json:"currentDiscountPct"`
	ContractValue      float64 `json:"contractValue,omitempty"`
}

type Output struct {
	QuoteID            string  `json:"quoteId"`
	AssetID            string  `json:"assetId"`
	Action             string  `json:"action"`
	RevisedDiscountPct float64 `json:"revisedDiscountPct,omitempty"`
	LeadID             string  `json:"leadId,omitempty"`
	Rationale          string  `json:"rationale"`
}
