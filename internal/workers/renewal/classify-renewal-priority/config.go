// internal/workers/renewal/classify-renewal-priority/config.go
package classifyrenewalpriority

import "time"

type Config struct {
	// Discount assumptions used for expected revenue impact, keyed by
	// priority band.
	DiscountByPriority map[string]float64
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DiscountByPriority: map[string]float64{
			"High":   0.15,
			"Medium": 0.07,
			"Low":    0.02,
		},
		Timeout: 10 * time.Second,
	}
}
