// internal/workers/negotiation/propose-next-action/config.go
package proposenextaction

import "time"

type Config struct {
	// Discount ceilings by priority band.
	MaxDiscountByPriority map[string]float64
	// How much one concession step adds, in percentage points.
	DiscountStep float64
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxDiscountByPriority: map[string]float64{
			"High":   25,
			"Medium": 15,
			"Low":    5,
		},
		DiscountStep: 5,
		Timeout:      30 * time.Second,
	}
}
