package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Platform.BaseURL != "https://zenn.dev" {
		t.Errorf("Platform.BaseURL = %s, want https://zenn.dev", cfg.Platform.BaseURL)
	}

	if cfg.Feed.HTTPTimeout != 30*time.Second {
		t.Errorf("Feed.HTTPTimeout = %v, want 30s", cfg.Feed.HTTPTimeout)
	}
	if cfg.Feed.MaxEntries != 100 {
		t.Errorf("Feed.MaxEntries = %d, want 100", cfg.Feed.MaxEntries)
	}
	if cfg.Feed.MaxPages != 5 {
		t.Errorf("Feed.MaxPages = %d, want 5", cfg.Feed.MaxPages)
	}
	if !cfg.Feed.Enrich {
		t.Error("Feed.Enrich should default to true")
	}
	if cfg.Feed.UserAgent == "" {
		t.Error("Feed.UserAgent should not be empty")
	}

	if cfg.Ranking.Strategy != "likes" {
		t.Errorf("Ranking.Strategy = %s, want likes", cfg.Ranking.Strategy)
	}
	if cfg.Ranking.PoolSize != 20 {
		t.Errorf("Ranking.PoolSize = %d, want 20", cfg.Ranking.PoolSize)
	}

	if cfg.LLM.MaxTokens != 500 {
		t.Errorf("LLM.MaxTokens = %d, want 500", cfg.LLM.MaxTokens)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want off", cfg.Log.Level)
	}
}

func TestDefaultModel(t *testing.T) {
	tests := map[string]string{
		"openai":     "chatgpt-4o-latest",
		"anthropic":  "claude-haiku-4-5-20251001",
		"openrouter": "openai/gpt-4o-mini",
		"":           "chatgpt-4o-latest",
	}
	for provider, want := range tests {
		if got := DefaultModel(provider); got != want {
			t.Errorf("DefaultModel(%q) = %s, want %s", provider, got, want)
		}
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "test-config.toml")
	configContent := `
[platform]
base_url = "http://127.0.0.1:9000"

[feed]
http_timeout = "60s"
max_pages = 2
user_agent = "test-agent"

[llm]
provider = "anthropic"
prompts_file = "/tmp/prompts.toml"
`

	if writeErr := os.WriteFile(configPath, []byte(configContent), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Platform.BaseURL != "http://127.0.0.1:9000" {
		t.Errorf("Platform.BaseURL = %s", cfg.Platform.BaseURL)
	}
	if cfg.Feed.HTTPTimeout != 60*time.Second {
		t.Errorf("Feed.HTTPTimeout = %v, want 60s", cfg.Feed.HTTPTimeout)
	}
	if cfg.Feed.MaxPages != 2 {
		t.Errorf("Feed.MaxPages = %d, want 2", cfg.Feed.MaxPages)
	}
	if cfg.Feed.UserAgent != "test-agent" {
		t.Errorf("Feed.UserAgent = %s, want 'test-agent'", cfg.Feed.UserAgent)
	}
	// untouched keys in a partially specified section keep their defaults
	if cfg.Feed.MaxEntries != 100 {
		t.Errorf("Feed.MaxEntries = %d, want default 100", cfg.Feed.MaxEntries)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("LLM.Provider = %s, want anthropic", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("LLM.Model = %s, want provider default", cfg.LLM.Model)
	}
	if cfg.LLM.PromptsFile != "/tmp/prompts.toml" {
		t.Errorf("LLM.PromptsFile = %s", cfg.LLM.PromptsFile)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(configPath, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ZPOST_RANKING_STRATEGY", "recency")
	t.Setenv("ZPOST_FEED_MAX_ENTRIES", "7")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ranking.Strategy != "recency" {
		t.Errorf("Ranking.Strategy = %s, want recency", cfg.Ranking.Strategy)
	}
	if cfg.Feed.MaxEntries != 7 {
		t.Errorf("Feed.MaxEntries = %d, want 7", cfg.Feed.MaxEntries)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configPath, []byte("[feed\nmax_pages = "), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-anthropic")
	t.Setenv("OPENROUTER_API_KEY", "sk-router")

	cfg := TestConfig()
	if got := cfg.APIKey(); got != "sk-openai" {
		t.Errorf("APIKey() = %s, want sk-openai", got)
	}

	cfg.LLM.Provider = "anthropic"
	if got := cfg.APIKey(); got != "sk-anthropic" {
		t.Errorf("APIKey() = %s, want sk-anthropic", got)
	}

	cfg.LLM.Provider = "openrouter"
	if got := cfg.APIKey(); got != "sk-router" {
		t.Errorf("APIKey() = %s, want sk-router", got)
	}

	cfg.LLM.APIKey = "explicit"
	if got := cfg.APIKey(); got != "explicit" {
		t.Errorf("APIKey() = %s, want explicit", got)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := defaultConfig()
	cfg.Feed.UserAgent = "test-save-agent"
	cfg.Feed.HTTPTimeout = 45 * time.Second
	cfg.Ranking.Strategy = "recency"
	cfg.LLM.APIKey = "must-not-be-written"

	savePath := filepath.Join(tmpDir, "nested", "saved-config.toml")
	if saveErr := Save(cfg, savePath); saveErr != nil {
		t.Fatalf("Save() error = %v", saveErr)
	}

	data, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatalf("Save() did not create config file: %v", err)
	}
	if strings.Contains(string(data), "must-not-be-written") {
		t.Error("Save() wrote the API key to disk")
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Feed.UserAgent != cfg.Feed.UserAgent {
		t.Errorf("Loaded Feed.UserAgent = %s, want %s", loaded.Feed.UserAgent, cfg.Feed.UserAgent)
	}
	if loaded.Feed.HTTPTimeout != cfg.Feed.HTTPTimeout {
		t.Errorf("Loaded Feed.HTTPTimeout = %v, want %v", loaded.Feed.HTTPTimeout, cfg.Feed.HTTPTimeout)
	}
	if loaded.Ranking.Strategy != "recency" {
		t.Errorf("Loaded Ranking.Strategy = %s, want recency", loaded.Ranking.Strategy)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := GenerateDefaultConfig(path); err != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := expandPath("~/zpost.log"); got != filepath.Join(home, "zpost.log") {
		t.Errorf("expandPath(~/zpost.log) = %s", got)
	}
	if got := expandPath("/tmp/zpost.log"); got != "/tmp/zpost.log" {
		t.Errorf("expandPath(/tmp/zpost.log) = %s", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %s", got)
	}
}
