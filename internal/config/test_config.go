package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			BaseURL: "https://zenn.dev",
		},
		Feed: FeedConfig{
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "zpost-test/1.0",
			MaxEntries:  100,
			MaxPages:    5,
			Enrich:      false,
		},
		Ranking: defaultConfig().Ranking,
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "test-model",
			MaxTokens: 100,
			Stream:    true,
		},
		Log: defaultConfig().Log,
	}
}
