// internal/workers/quote/generate-quote/config.go
package generatequote

import "time"

type Config struct {
	BaseSKU         string
	BaseItem        string
	AddOnSKU        string
	AddOnItem       string
	AddOnPrice      float64
	RenewalTermDays int
	ServiceLevel    string
	CacheTTL        time.Duration
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		BaseSKU:         "SUP-PREM-01",
		BaseItem:        "Premium Support Renewal",
		AddOnSKU:        "ANL-ADV-02",
		AddOnItem:       "Advanced Analytics Add-on",
		AddOnPrice:      5000,
		RenewalTermDays: 365,
		ServiceLevel:    "Premium Support",
		CacheTTL:        30 * time.Minute,
		Timeout:         30 * time.Second,
	}
}
