// internal/workers/renewal/explain-priority/config.go
package explainpriority

import "time"

type Config struct {
	GenAIBaseURL string
	GenAIEnabled bool
	GenAITimeout time.Duration
	MaxRetries   int
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		GenAITimeout: 5 * time.Second,
		MaxRetries:   1,
		MaxTokens:    120,
		Temperature:  0.2,
		Timeout:      15 * time.Second,
	}
}
