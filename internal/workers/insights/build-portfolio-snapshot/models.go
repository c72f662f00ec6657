// internal/workers/insights/build-portfolio-snapshot/models.go
package buildportfoliosnapshot

type Input struct {
	// Index override, defaults to the configured decision index.
	Index string `json:"index,omitempty"`
}

type ProductBreakdown struct {
	Product               string  `json:"product"`
	AssetCount            int     `json:"assetCount"`
	ExpectedImpact        float64 `json:"expectedImpact"`
	AvgProbabilityToClose float64 `json:"avgProbabilityToClose"`
}

type Output struct {
	TotalDecisions        int                `json:"totalDecisions"`
	CountsByPriority      map[string]int     `json:"countsByPriority"`
	TotalExpectedImpact   float64            `json:"totalExpectedImpact"`
	AvgProbabilityToClose float64            `json:"avgProbabilityToClose"`
	Products              []ProductBreakdown `json:"products"`
	Source                string             `json:"source"`
	GeneratedAt           string             `json:"generatedAt"`
}

// Snapshot sources
const (
	SourceElasticsearch = "elasticsearch"
	SourcePostgres      = "postgres"
)
