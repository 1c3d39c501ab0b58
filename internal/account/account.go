// Package account turns free-form user input into a platform account and
// the set of URLs every downstream read is built from.
package account

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrUnresolvable is returned when no account can be identified in the input.
var ErrUnresolvable = errors.New("no account identifiable")

// URLs is the frozen set of endpoints derived from an account.
type URLs struct {
	Profile   string
	Listing   string
	Feed      string
	DetailAPI string
}

// Account is an immutable handle/organization pair together with its URL
// bundle. Changing either identity field means building a new Account.
type Account struct {
	handle         string
	isOrganization bool
	urls           URLs
}

// New builds an account rooted at the platform base URL.
func New(baseURL, handle string, isOrganization bool) Account {
	base := strings.TrimRight(baseURL, "/")

	profile := base + "/" + url.PathEscape(handle)
	if isOrganization {
		profile = base + "/p/" + url.PathEscape(handle)
	}

	return Account{
		handle:         handle,
		isOrganization: isOrganization,
		urls: URLs{
			Profile:   profile,
			Listing:   profile + "/articles",
			Feed:      profile + "/feed",
			DetailAPI: base + "/api/articles",
		},
	}
}

func (a Account) Handle() string { return a.handle }

func (a Account) IsOrganization() bool { return a.isOrganization }

func (a Account) URLs() URLs { return a.urls }

// IsZero reports whether the account was never resolved.
func (a Account) IsZero() bool { return a.handle == "" }

func (a Account) String() string {
	if a.isOrganization {
		return "p/" + a.handle
	}
	return a.handle
}

const handlePattern = `[a-zA-Z0-9_-]+`

type rule struct {
	name           string
	pattern        *regexp.Regexp
	isOrganization bool
}

// Resolver matches input against an ordered rule list; the first rule that
// matches decides the handle and account kind.
type Resolver struct {
	baseURL string
	rules   []rule
}

// NewResolver creates a resolver for the platform at baseURL. Only the host
// of baseURL takes part in matching.
func NewResolver(baseURL string) (*Resolver, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}
	host := regexp.QuoteMeta(parsed.Host)

	return &Resolver{
		baseURL: baseURL,
		rules: []rule{
			{
				name:           "organization url",
				pattern:        regexp.MustCompile(`https?://` + host + `/p/(` + handlePattern + `)(?:/.*)?$`),
				isOrganization: true,
			},
			{
				name:    "personal url",
				pattern: regexp.MustCompile(`https?://` + host + `/(` + handlePattern + `)(?:/.*)?$`),
			},
			{
				name:    "mention",
				pattern: regexp.MustCompile(`@(` + handlePattern + `)`),
			},
			{
				name:    "bare handle",
				pattern: regexp.MustCompile(`^(` + handlePattern + `)$`),
			},
		},
	}, nil
}

// Resolve identifies the account named by input. Matching is purely
// syntactic; no request is made and case is preserved.
func (r *Resolver) Resolve(input string) (Account, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Account{}, ErrUnresolvable
	}

	for _, rl := range r.rules {
		if m := rl.pattern.FindStringSubmatch(input); m != nil {
			return New(r.baseURL, m[1], rl.isOrganization), nil
		}
	}

	return Account{}, fmt.Errorf("%w: %q", ErrUnresolvable, input)
}

// Rule returns the name of the rule that would resolve input, or "".
func (r *Resolver) Rule(input string) string {
	input = strings.TrimSpace(input)
	for _, rl := range r.rules {
		if rl.pattern.MatchString(input) {
			return rl.name
		}
	}
	return ""
}
