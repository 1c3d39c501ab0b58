package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/validation"
)

// APISource reads the platform's article detail endpoint.
type APISource struct {
	endpoint string
}

func NewAPISource(endpoint string) *APISource {
	return &APISource{endpoint: strings.TrimRight(endpoint, "/")}
}

func (s *APISource) Name() string { return "detail-api" }

func (s *APISource) Priority() int { return 100 }

func (s *APISource) CanHandle(url string) bool {
	return s.endpoint != "" && validation.ArticleSlug(url) != ""
}

type detailResponse struct {
	Article struct {
		LikedCount *int `json:"liked_count"`
		Topics     []struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
		} `json:"topics"`
	} `json:"article"`
}

func (s *APISource) Enrich(ctx context.Context, record *article.Record, getter Getter) error {
	url := s.endpoint + "/" + validation.ArticleSlug(record.URL)

	body, err := getter.Get(ctx, url, "application/json")
	if err != nil {
		return err
	}

	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decoding detail response: %w", err)
	}
	if resp.Article.LikedCount == nil {
		return fmt.Errorf("detail response has no liked_count")
	}

	tags := make([]string, 0, len(resp.Article.Topics))
	for _, topic := range resp.Article.Topics {
		if topic.DisplayName != "" {
			tags = append(tags, topic.DisplayName)
		} else {
			tags = append(tags, topic.Name)
		}
	}

	record.Likes = max(0, *resp.Article.LikedCount)
	record.AddTags(tags...)
	return nil
}

var (
	likedCountPattern  = regexp.MustCompile(`"liked_?[cC]ount"\s*:\s*(\d+)`)
	topicsPattern      = regexp.MustCompile(`(?s)"topics"\s*:\s*\[(.*?)\]`)
	topicObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)
	displayNamePattern = regexp.MustCompile(`"display_?[nN]ame"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	namePattern        = regexp.MustCompile(`"name"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// PageSource reads the article page itself and pattern-matches the inline
// data embedded in it, without parsing the HTML.
type PageSource struct{}

func NewPageSource() *PageSource {
	return &PageSource{}
}

func (s *PageSource) Name() string { return "page" }

func (s *PageSource) Priority() int { return 50 }

func (s *PageSource) CanHandle(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (s *PageSource) Enrich(ctx context.Context, record *article.Record, getter Getter) error {
	body, err := getter.Get(ctx, record.URL, "text/html")
	if err != nil {
		return err
	}

	likes, likesFound := ExtractLikes(body)
	tags := ExtractTopics(body)
	if !likesFound && len(tags) == 0 {
		return fmt.Errorf("no inline popularity data in %s", record.URL)
	}

	record.Likes = likes
	record.AddTags(tags...)
	return nil
}

// ExtractLikes finds the first embedded like count in a page body.
func ExtractLikes(body []byte) (int, bool) {
	m := likedCountPattern.FindSubmatch(body)
	if m == nil {
		return 0, false
	}
	likes, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, false
	}
	return likes, true
}

// ExtractTopics returns the topic names from the first embedded topic list.
// Each topic contributes its display name, or its name when the display name
// is missing or empty.
func ExtractTopics(body []byte) []string {
	block := topicsPattern.FindSubmatch(body)
	if block == nil {
		return nil
	}

	objects := topicObjectPattern.FindAll(block[1], -1)
	tags := make([]string, 0, len(objects))
	for _, object := range objects {
		if m := displayNamePattern.FindSubmatch(object); m != nil && len(m[1]) > 0 {
			tags = append(tags, unescape(string(m[1])))
			continue
		}
		if m := namePattern.FindSubmatch(object); m != nil {
			tags = append(tags, unescape(string(m[1])))
		}
	}
	return article.UniqueTags(tags)
}

func unescape(s string) string {
	if unquoted, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return unquoted
	}
	return s
}
