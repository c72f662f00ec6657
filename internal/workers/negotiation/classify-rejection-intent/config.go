// internal/workers/negotiation/classify-rejection-intent/config.go
package classifyrejectionintent

import "time"

type Config struct {
	GenAIBaseURL string
	GenAIEnabled bool
	GenAITimeout time.Duration
	MaxRetries   int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		GenAITimeout: 5 * time.Second,
		MaxRetries:   1,
		Timeout:      15 * time.Second,
	}
}
