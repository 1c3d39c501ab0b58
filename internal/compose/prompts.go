package compose

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/zpost/internal/config"
)

//go:embed prompts.toml
var promptsTOML []byte

const articlesPlaceholder = "{articles}"

// TonePrompt is the instruction pair used for one tone.
type TonePrompt struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

// PromptsConfig is the layout of prompts.toml.
type PromptsConfig struct {
	Tones map[string]TonePrompt `toml:"tones"`
}

// PromptRegistry holds the prompts for every tone, built-in definitions
// overlaid with the user's.
type PromptRegistry struct {
	tones map[string]TonePrompt
}

// NewPromptRegistry loads the embedded prompts and merges the user file on
// top. An explicit path must exist; without one, prompts.toml in the config
// directory is used when present.
func NewPromptRegistry(userPath string) (*PromptRegistry, error) {
	var builtin PromptsConfig
	if err := toml.Unmarshal(promptsTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parsing prompts.toml: %w", err)
	}

	registry := &PromptRegistry{tones: builtin.Tones}

	explicit := userPath != ""
	if !explicit {
		userPath = filepath.Join(config.Dir(), "prompts.toml")
	}

	data, err := os.ReadFile(userPath)
	switch {
	case err == nil:
		if err := registry.merge(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", userPath, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}

	return registry, nil
}

func (r *PromptRegistry) merge(data []byte) error {
	var user PromptsConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return err
	}

	for tone, prompt := range user.Tones {
		current := r.tones[tone]
		if strings.TrimSpace(prompt.System) != "" {
			current.System = prompt.System
		}
		if strings.TrimSpace(prompt.User) != "" {
			current.User = prompt.User
		}
		r.tones[tone] = current
	}
	return nil
}

// Messages returns the system and user instructions for tone with the
// rendered article block substituted. Unknown tones use the personal prompts.
func (r *PromptRegistry) Messages(tone Tone, articles string) (system, user string) {
	prompt, ok := r.tones[string(tone)]
	if !ok {
		prompt = r.tones[string(Personal)]
	}

	user = prompt.User
	if strings.Contains(user, articlesPlaceholder) {
		user = strings.ReplaceAll(user, articlesPlaceholder, articles)
	} else {
		user = user + "\n\n" + articles
	}

	return strings.TrimSpace(prompt.System), strings.TrimSpace(user)
}
