// internal/workers/renewal/explain-priority/models.go
package explainpriority

import "renewal-workers/internal/models"

type Input struct {
	Asset    models.Asset `json:"asset"`
	Priority string       `json:"priority"`
	Status   string       `json:"status"`
}

type Output struct {
	AssetID           string `json:"assetId"`
	Explanation       string `json:"explanation"`
	ExplanationSource string `json:"explanationSource"`
}

// MaxBullets caps the explanation length regardless of source.
const MaxBullets = 2
