// internal/workers/renewal/classify-renewal-priority/models.go
package classifyrenewalpriority

import "renewal-workers/internal/models"

type Input struct {
	Asset models.Asset `json:"asset"`
}

type Output struct {
	AssetID               string   `json:"assetId"`
	Priority              string   `json:"priority"`
	Status                string   `json:"status"`
	Expansion             string   `json:"expansion"`
	ExpectedRevenueImpact float64  `json:"expectedRevenueImpact"`
	FactorsFired          []string `json:"factorsFired"`
}

// Rule thresholds
const (
	ExpiryWindowDays     = 30
	DeclineThresholdPct  = 40
	HighValueThreshold   = 25000
	UpsellUsageThreshold = 80
	CrossSellAgeYears    = 3
)
