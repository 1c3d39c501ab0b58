package article

import (
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Record is a single article as it flows from acquisition through ranking
// into post composition. Fields that could not be extracted are left at
// their zero value, never omitted.
type Record struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Likes       int       `json:"likes"`
	PublishedAt string    `json:"published_at"`
	Published   time.Time `json:"-"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	GUID        string    `json:"guid,omitempty"`
}

// Normalize enforces the record invariants that do not depend on the
// platform origin: likes are never negative, tags are trimmed and unique,
// and Published is filled from PublishedAt (falling back to now).
func (r *Record) Normalize(now time.Time) {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.PublishedAt = strings.TrimSpace(r.PublishedAt)
	if r.Likes < 0 {
		r.Likes = 0
	}
	r.Tags = UniqueTags(r.Tags)
	if r.Published.IsZero() {
		r.Published = ParsePublished(r.PublishedAt, now)
	}
}

// AddTags merges tags into the record, keeping the first occurrence of each.
func (r *Record) AddTags(tags ...string) {
	r.Tags = UniqueTags(append(r.Tags, tags...))
}

// ParsePublished parses a raw publish string. RFC 822 style dates from
// feeds are tried first, then anything dateparse understands (zoneless input is read as UTC). Unparseable
// or empty input yields now.
func ParsePublished(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if t, err := mail.ParseDate(raw); err == nil {
		return t
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t
	}
	return now
}

// UniqueTags trims tags and drops empties and duplicates. The result is
// never nil.
func UniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// HasLikes reports whether any record carries a nonzero like count.
func HasLikes(records []Record) bool {
	for _, r := range records {
		if r.Likes > 0 {
			return true
		}
	}
	return false
}
