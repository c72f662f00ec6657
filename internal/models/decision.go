// internal/models/decision.go
package models

// RenewalDecision is the immutable outcome of one pipeline run for an asset.
type RenewalDecision struct {
	AssetID               string  `json:"assetId"`
	Priority              string  `json:"priority"`
	Status                string  `json:"status"`
	Expansion             string  `json:"expansion"`
	ExpectedRevenueImpact float64 `json:"expectedRevenueImpact"`
	ProbabilityToClose    int     `json:"probabilityToClose"`
	ProbabilityBand       string  `json:"probabilityBand"`
	Explanation           string  `json:"explanation"`
	ExplanationSource     string  `json:"explanationSource"`
	DecidedAt             string  `json:"decidedAt"`
}

// Priority bands
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Urgency labels shown alongside priority
const (
	StatusActNow    = "Act Now"
	StatusGoodToAct = "Good to Act"
	StatusOnHold    = "On Hold"
)

// Expansion recommendations
const (
	ExpansionUpsell      = "Upsell"
	ExpansionCrossSell   = "Cross-sell"
	ExpansionRenewalOnly = "Renewal Only"
)

// Explanation sources
const (
	ExplanationSourceRules = "rules_engine"
	ExplanationSourceGenAI = "genai"
)
