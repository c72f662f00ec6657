// internal/workers/intake/load-renewal-portfolio/models.go
package loadrenewalportfolio

import "renewal-workers/internal/models"

type Input struct {
	// When set, only that asset is loaded; otherwise the whole portfolio.
	AssetID string `json:"assetId,omitempty"`
}

type Output struct {
	Asset         *models.Asset  `json:"asset,omitempty"`
	Assets        []models.Asset `json:"assets,omitempty"`
	PortfolioSize int            `json:"portfolioSize"`
	LoadedAt      string         `json:"loadedAt"`
	CacheHit      bool           `json:"cacheHit"`
}

// Redis cache keys
const (
	PortfolioCacheKey   = "renewal:portfolio"
	AssetCacheKeyPrefix = "renewal:asset:"
)
