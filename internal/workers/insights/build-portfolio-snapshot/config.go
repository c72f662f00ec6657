// internal/workers/insights/build-portfolio-snapshot/config.go
package buildportfoliosnapshot

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
