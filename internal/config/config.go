package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Platform PlatformConfig `mapstructure:"platform"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Log      LogConfig      `mapstructure:"log"`
}

type PlatformConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type FeedConfig struct {
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	MaxEntries        int           `mapstructure:"max_entries"`
	MaxPages          int           `mapstructure:"max_pages"`
	Enrich            bool          `mapstructure:"enrich"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type RankingConfig struct {
	Strategy string `mapstructure:"strategy"`
	PoolSize int    `mapstructure:"pool_size"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	Stream      bool    `mapstructure:"stream"`
	PromptsFile string  `mapstructure:"prompts_file"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			BaseURL: "https://zenn.dev",
		},
		Feed: FeedConfig{
			HTTPTimeout:       30 * time.Second,
			UserAgent:         "zpost/1.0 (https://github.com/pders01/zpost)",
			MaxEntries:        100,
			MaxPages:          5,
			Enrich:            true,
			RequestsPerSecond: 0,
		},
		Ranking: RankingConfig{
			Strategy: "likes",
			PoolSize: 20,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "chatgpt-4o-latest",
			MaxTokens:   500,
			Temperature: 0.7,
			Stream:      true,
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

// DefaultModel returns the model used when llm.model is left empty for a
// provider.
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-haiku-4-5-20251001"
	case "openrouter":
		return "openai/gpt-4o-mini"
	default:
		return "chatgpt-4o-latest"
	}
}

// Dir returns the per-user configuration directory.
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "zpost")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ZPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.LLM.Model == "" {
		config.LLM.Model = DefaultModel(config.LLM.Provider)
	}

	expandPaths(&config)

	return &config, nil
}

// setDefaults registers every leaf key so partial config files keep the
// remaining defaults and AutomaticEnv can resolve nested keys.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("platform.base_url", cfg.Platform.BaseURL)

	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.max_entries", cfg.Feed.MaxEntries)
	v.SetDefault("feed.max_pages", cfg.Feed.MaxPages)
	v.SetDefault("feed.enrich", cfg.Feed.Enrich)
	v.SetDefault("feed.requests_per_second", cfg.Feed.RequestsPerSecond)

	v.SetDefault("ranking.strategy", cfg.Ranking.Strategy)
	v.SetDefault("ranking.pool_size", cfg.Ranking.PoolSize)

	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.stream", cfg.LLM.Stream)
	v.SetDefault("llm.prompts_file", cfg.LLM.PromptsFile)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// APIKey returns the configured credential for the LLM provider, falling
// back to the provider's conventional environment variable.
func (c *Config) APIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch c.LLM.Provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.LLM.PromptsFile = expandPath(cfg.LLM.PromptsFile)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings for TOML readability
	feedCfg := map[string]interface{}{
		"http_timeout":        config.Feed.HTTPTimeout.String(),
		"user_agent":          config.Feed.UserAgent,
		"max_entries":         config.Feed.MaxEntries,
		"max_pages":           config.Feed.MaxPages,
		"enrich":              config.Feed.Enrich,
		"requests_per_second": config.Feed.RequestsPerSecond,
	}

	// api_key is left out on purpose: credentials belong in the environment
	llmCfg := map[string]interface{}{
		"provider":     config.LLM.Provider,
		"model":        config.LLM.Model,
		"base_url":     config.LLM.BaseURL,
		"max_tokens":   config.LLM.MaxTokens,
		"temperature":  config.LLM.Temperature,
		"stream":       config.LLM.Stream,
		"prompts_file": config.LLM.PromptsFile,
	}

	v.Set("platform", map[string]interface{}{"base_url": config.Platform.BaseURL})
	v.Set("feed", feedCfg)
	v.Set("ranking", map[string]interface{}{
		"strategy":  config.Ranking.Strategy,
		"pool_size": config.Ranking.PoolSize,
	})
	v.Set("llm", llmCfg)
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
