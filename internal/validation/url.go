package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ArticleURLValidator canonicalizes article links scraped or parsed from
// the platform into absolute http(s) URLs.
type ArticleURLValidator struct {
	// Base is the platform origin relative links are resolved against
	Base *url.URL
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewArticleURLValidator creates a validator rooted at the given origin.
func NewArticleURLValidator(base string) (*ArticleURLValidator, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https protocol")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL must have a valid hostname")
	}

	return &ArticleURLValidator{
		Base:      &url.URL{Scheme: parsed.Scheme, Host: parsed.Host},
		MaxLength: 2048,
	}, nil
}

// Canonicalize resolves raw against the base origin and returns the absolute
// form without fragment. Inputs that cannot become an absolute http(s) URL
// are rejected.
func (v *ArticleURLValidator) Canonicalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(raw) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(raw, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if !parsed.IsAbs() {
		if parsed.Host != "" {
			// protocol-relative
			parsed.Scheme = v.Base.Scheme
		} else {
			parsed = v.Base.ResolveReference(parsed)
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if err := validateQuerySecurity(parsed); err != nil {
		return "", err
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String(), nil
}

// IsArticlePath reports whether a link target points at an article page.
func IsArticlePath(href string) bool {
	return strings.Contains(href, "/articles/")
}

// ArticleSlug returns the last path segment after /articles/, or "".
func ArticleSlug(href string) string {
	if parsed, err := url.Parse(href); err == nil {
		href = parsed.Path
	}
	_, after, found := strings.Cut(href, "/articles/")
	if !found {
		return ""
	}
	after = strings.Trim(after, "/")
	if after == "" || strings.Contains(after, "/") {
		return ""
	}
	return after
}

func validateQuerySecurity(parsedURL *url.URL) error {
	query := strings.ToLower(parsedURL.RawQuery)
	if strings.Contains(query, "<script") || strings.Contains(query, "javascript:") {
		return fmt.Errorf("suspicious query parameters detected")
	}
	return nil
}
