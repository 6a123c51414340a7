// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string

	ChatModel  string
	ImageModel string

	Timeout time.Duration

	// Interpretation parameters
	MaxTokens   int
	Temperature float32

	// Summaries are short and deterministic
	SummaryMaxTokens   int
	SummaryTemperature float32

	HistoryLimit int
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("chat model is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxTokens <= 0 || c.SummaryMaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		ChatModel:          "gpt-3.5-turbo",
		ImageModel:         "dall-e-3",
		Timeout:            60 * time.Second,
		MaxTokens:          1000,
		Temperature:        0.7,
		SummaryMaxTokens:   150,
		SummaryTemperature: 0.3,
		HistoryLimit:       8,
	}
}
