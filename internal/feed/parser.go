package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pders01/zpost/internal/article"
)

type Parser struct {
	parser *gofeed.Parser
	titler cases.Caser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
		titler: cases.Title(language.Und),
	}
}

// Parse reads a syndication document and returns at most maxEntries
// records. Entries without a link are skipped but still count against the
// bound. An entry without a title is named after its URL slug. A
// non-positive maxEntries means no bound.
func (p *Parser) Parse(reader io.Reader, maxEntries int) ([]article.Record, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := feed.Items
	if maxEntries > 0 && len(items) > maxEntries {
		items = items[:maxEntries]
	}

	records := make([]article.Record, 0, len(items))
	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = slugTitle(p.titler, link)
		}

		record := article.Record{
			Title:       title,
			URL:         link,
			PublishedAt: item.Published,
			Description: strings.TrimSpace(item.Description),
			Tags:        article.UniqueTags(item.Categories),
			GUID:        item.GUID,
		}

		if item.PublishedParsed != nil {
			record.Published = *item.PublishedParsed
		}

		records = append(records, record)
	}

	return records, nil
}
