// internal/models/negotiation.go
package models

// Rejection intents produced by classify-rejection-intent.
const (
	IntentPrice          = "price"
	IntentHardwareChange = "hardware_change"
	IntentTiming         = "timing"
	IntentUnclear        = "unclear"
)

// Next actions proposed by the negotiation agent.
const (
	ActionNewQuote          = "new_quote"
	ActionCreateLead        = "create_lead"
	ActionOnHold            = "on_hold"
	ActionSalesIntervention = "sales_intervention"
)

// NegotiationOutcome captures what the agent decided for a rejected quote.
type NegotiationOutcome struct {
	QuoteID         string  `json:"quoteId"`
	AssetID         string  `json:"assetId"`
	Intent          string  `json:"intent"`
	Action          string  `json:"action"`
	RevisedDiscount float64 `json:"revisedDiscount,omitempty"`
	LeadID          string  `json:"leadId,omitempty"`
	Rationale       string  `json:"rationale"`
}
