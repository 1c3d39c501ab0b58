package feed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/validation"
)

// Selectors tried, in order, to locate article cards on a listing page.
var cardSelectors = []string{
	"article",
	".ArticleCard",
	"div[role='article']",
	"div.article",
	"div.post",
	"div.card",
	"div.relative",
}

var (
	titleSelectors       = []string{"h3 a", "h2 a", "a[href*='/articles/']"}
	likesSelectors       = []string{"[data-test='likes-count']", "span:contains('Likes')", "span.likes", ".likes", "[aria-label*='いいね']"}
	dateSelectors        = []string{"time", "[datetime]", ".date"}
	descriptionSelectors = []string{"p", ".description", ".summary"}
	tagSelectors         = []string{"a[href*='/topics/']", ".tag", ".topic"}
	headingSelector      = "h2, h3, h4, .title, .heading"
	nextPageSelector     = "button[aria-label='Next page'], a[rel='next']"

	digitsPattern = regexp.MustCompile(`\d[\d,]*`)
)

// maxContextDepth bounds how far up the tree the link strategy looks for a
// container carrying likes, date, description or tags.
const maxContextDepth = 4

// Strategy is one way of extracting records from a listing page. Matched
// reports whether the strategy recognized the page structure at all; the
// first matching strategy wins even when it yields no records.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) (records []article.Record, matched bool)
}

// Scraper runs an ordered strategy chain over listing pages.
type Scraper struct {
	strategies []Strategy
	titler     cases.Caser
}

func NewScraper() *Scraper {
	s := &Scraper{titler: cases.Title(language.Und)}

	for _, selector := range cardSelectors {
		s.strategies = append(s.strategies, s.cardStrategy(selector))
	}
	s.strategies = append(s.strategies, Strategy{Name: "links", Extract: s.extractLinks})

	return s
}

// Strategies returns the chain in the order it is tried.
func (s *Scraper) Strategies() []Strategy {
	return append([]Strategy(nil), s.strategies...)
}

// ScrapePage returns the records found by the first matching strategy and
// that strategy's name. Both are empty when nothing matched.
func (s *Scraper) ScrapePage(doc *goquery.Document) ([]article.Record, string) {
	for _, strategy := range s.strategies {
		if records, matched := strategy.Extract(doc); matched {
			return records, strategy.Name
		}
	}
	return nil, ""
}

// HasNextPage reports whether the page exposes an enabled next-page control.
func HasNextPage(doc *goquery.Document) bool {
	next := doc.Find(nextPageSelector).First()
	if next.Length() == 0 {
		return false
	}
	if _, disabled := next.Attr("disabled"); disabled {
		return false
	}
	if strings.EqualFold(next.AttrOr("aria-disabled", ""), "true") {
		return false
	}
	return !next.HasClass("disabled")
}

func (s *Scraper) cardStrategy(selector string) Strategy {
	return Strategy{
		Name: selector,
		Extract: func(doc *goquery.Document) ([]article.Record, bool) {
			cards := doc.Find(selector)
			if cards.Length() == 0 {
				return nil, false
			}

			records := make([]article.Record, 0, cards.Length())
			cards.Each(func(_ int, card *goquery.Selection) {
				if record, ok := s.parseCard(card); ok {
					records = append(records, record)
				}
			})
			return records, true
		},
	}
}

func (s *Scraper) parseCard(card *goquery.Selection) (article.Record, bool) {
	link := firstMatch(card, titleSelectors...)
	if link.Length() == 0 {
		return article.Record{}, false
	}

	href := strings.TrimSpace(link.AttrOr("href", ""))
	if href == "" {
		return article.Record{}, false
	}

	title := cleanText(link.Text())
	if title == "" {
		title = s.titleFromSlug(href)
	}

	return article.Record{
		Title:       title,
		URL:         href,
		Likes:       extractLikes(firstMatch(card, likesSelectors...)),
		PublishedAt: extractDate(firstMatch(card, dateSelectors...)),
		Description: cleanText(firstMatch(card, descriptionSelectors...).Text()),
		Tags:        collectTags(firstMatch(card, tagSelectors...)),
	}, true
}

func (s *Scraper) extractLinks(doc *goquery.Document) ([]article.Record, bool) {
	var records []article.Record
	index := make(map[string]int)

	doc.Find("a[href*='/articles/']").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if !validation.IsArticlePath(href) || validation.ArticleSlug(href) == "" {
			return
		}

		title := cleanText(link.Find(headingSelector).First().Text())
		if title == "" {
			title = cleanText(link.Text())
		}

		if i, seen := index[href]; seen {
			// image and title links often point at the same article
			if title != "" && records[i].Title == s.titleFromSlug(href) {
				records[i].Title = title
			}
			return
		}
		if title == "" {
			title = s.titleFromSlug(href)
		}

		record := article.Record{Title: title, URL: href}
		fillMissing(&record, link, nil)
		if missingMetadata(record) {
			if container := contextContainer(link); container != nil {
				fillMissing(&record, container, link)
			}
		}

		index[href] = len(records)
		records = append(records, record)
	})

	return records, len(records) > 0
}

// contextContainer returns the nearest ancestor of link that carries any
// article metadata, or nil.
func contextContainer(link *goquery.Selection) *goquery.Selection {
	hints := strings.Join([]string{
		strings.Join(likesSelectors, ", "),
		strings.Join(dateSelectors, ", "),
		strings.Join(descriptionSelectors, ", "),
		strings.Join(tagSelectors, ", "),
	}, ", ")

	href := link.AttrOr("href", "")
	ancestor := link.Parent()
	for depth := 0; depth < maxContextDepth && ancestor.Length() > 0; depth++ {
		if goquery.NodeName(ancestor) == "body" || sharedContainer(ancestor, href) {
			return nil
		}
		if outside(ancestor.Find(hints), link).Length() > 0 {
			return ancestor
		}
		ancestor = ancestor.Parent()
	}
	return nil
}

// sharedContainer reports whether sel also holds links to other articles,
// in which case its metadata cannot be attributed to href.
func sharedContainer(sel *goquery.Selection, href string) bool {
	shared := false
	sel.Find("a[href*='/articles/']").EachWithBreak(func(_ int, other *goquery.Selection) bool {
		otherHref := strings.TrimSpace(other.AttrOr("href", ""))
		if validation.ArticleSlug(otherHref) != "" && otherHref != strings.TrimSpace(href) {
			shared = true
			return false
		}
		return true
	})
	return shared
}

// fillMissing sets the metadata fields of record that are still empty from
// the first matches under root. Nodes inside exclude are ignored.
func fillMissing(record *article.Record, root, exclude *goquery.Selection) {
	find := func(selectors []string) *goquery.Selection {
		sel := root.Find(strings.Join(selectors, ", "))
		if exclude != nil {
			sel = outside(sel, exclude)
		}
		return sel
	}

	if record.Likes == 0 {
		record.Likes = extractLikes(find(likesSelectors).First())
	}
	if record.PublishedAt == "" {
		record.PublishedAt = extractDate(find(dateSelectors).First())
	}
	if record.Description == "" {
		record.Description = cleanText(find(descriptionSelectors).First().Text())
	}
	if len(record.Tags) == 0 {
		record.Tags = collectTags(find(tagSelectors))
	}
}

func missingMetadata(record article.Record) bool {
	return record.Likes == 0 || record.PublishedAt == "" || record.Description == "" || len(record.Tags) == 0
}

// outside drops nodes that are link itself or nested inside it.
func outside(sel, link *goquery.Selection) *goquery.Selection {
	linkNode := link.Get(0)
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		node := s.Get(0)
		return node != linkNode && !link.Contains(node)
	})
}

func firstMatch(root *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if found := root.Find(selector); found.Length() > 0 {
			return found
		}
	}
	return root.Slice(0, 0)
}

func extractLikes(sel *goquery.Selection) int {
	if sel.Length() == 0 {
		return 0
	}
	match := digitsPattern.FindString(sel.First().Text())
	if match == "" {
		return 0
	}
	likes, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil || likes < 0 {
		return 0
	}
	return likes
}

func extractDate(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	first := sel.First()
	if datetime := strings.TrimSpace(first.AttrOr("datetime", "")); datetime != "" {
		return datetime
	}
	return cleanText(first.Text())
}

func collectTags(sel *goquery.Selection) []string {
	var tags []string
	sel.Each(func(_ int, tag *goquery.Selection) {
		tags = append(tags, cleanText(tag.Text()))
	})
	return article.UniqueTags(tags)
}

func (s *Scraper) titleFromSlug(href string) string {
	return slugTitle(s.titler, href)
}

// slugTitle turns the article slug of href into a title, so
// "my-first-post" becomes "My First Post".
func slugTitle(titler cases.Caser, href string) string {
	slug := validation.ArticleSlug(href)
	if slug == "" {
		return ""
	}
	return titler.String(strings.ReplaceAll(slug, "-", " "))
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
