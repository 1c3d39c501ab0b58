package compose

import (
	"fmt"
	"strings"
)

// Tone selects the voice of the generated post.
type Tone string

const (
	Personal  Tone = "personal"
	Corporate Tone = "corporate"
)

func ParseTone(s string) (Tone, error) {
	switch Tone(strings.ToLower(strings.TrimSpace(s))) {
	case Personal, "":
		return Personal, nil
	case Corporate:
		return Corporate, nil
	default:
		return "", fmt.Errorf("unknown tone %q (want personal or corporate)", s)
	}
}
