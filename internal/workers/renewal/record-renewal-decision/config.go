// internal/workers/renewal/record-renewal-decision/config.go
package recordrenewaldecision

import "time"

type Config struct {
	DecisionIndex string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DecisionIndex: "renewal-decisions",
		Timeout:       30 * time.Second,
	}
}
