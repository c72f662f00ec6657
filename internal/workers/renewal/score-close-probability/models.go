// internal/workers/renewal/score-close-probability/models.go
package scorecloseprobability

import "renewal-workers/internal/models"

type Input struct {
	Asset     models.Asset `json:"asset"`
	Priority  string       `json:"priority"`
	Expansion string       `json:"expansion"`
}

type Output struct {
	AssetID            string `json:"assetId"`
	ProbabilityToClose int    `json:"probabilityToClose"`
	ProbabilityBand    string `json:"probabilityBand"`
	BaseScore          int    `json:"baseScore"`
	Adjustment         string `json:"adjustment"`
}

// GenAI adjustment directions
const (
	AdjustHigher    = "higher"
	AdjustLower     = "lower"
	AdjustUnchanged = "unchanged"
)

// Probability bands
const (
	BandHigh   = "High"
	BandMedium = "Medium"
	BandLow    = "Low"
)
