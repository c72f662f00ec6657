// internal/workers/renewal/record-renewal-decision/models.go
package recordrenewaldecision

type Input struct {
	AssetID               string  `json:"assetId"`
	Product               string  `json:"product,omitempty"`
	Priority              string  `json:"priority"`
	Status                string  `json:"status"`
	Expansion             string  `json:"expansion"`
	ExpectedRevenueImpact float64 `json:"expectedRevenueImpact"`
	ProbabilityToClose    int     `json:"probabilityToClose"`
	ProbabilityBand       string  `json:"probabilityBand"`
	Explanation           string  `json:"explanation"`
	ExplanationSource     string  `json:"explanationSource"`
}

type Output struct {
	AssetID          string `json:"assetId"`
	DecisionRecorded bool   `json:"decisionRecorded"`
	Indexed          bool   `json:"indexed"`
	DecidedAt        string `json:"decidedAt"`
}
