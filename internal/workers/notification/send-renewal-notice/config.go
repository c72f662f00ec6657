// internal/workers/notification/send-renewal-notice/config.go
package sendrenewalnotice

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "renewals@example.com",
		Timeout:      30 * time.Second,
	}
}
