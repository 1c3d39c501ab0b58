package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pders01/zpost/internal/account"
	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/config"
	"github.com/pders01/zpost/internal/debuglog"
	"github.com/pders01/zpost/internal/enrich"
	"github.com/pders01/zpost/internal/validation"
)

// ErrNextStage reports that a stage produced no usable document and the
// next stage should be tried.
var ErrNextStage = errors.New("no usable document")

type stage struct {
	name string
	run  func(ctx context.Context, acct account.Account, maxEntries int) ([]article.Record, error)
}

// Manager acquires the article list of one account, trying the feed first
// and the listing pages after it.
type Manager struct {
	fetcher *Fetcher
	parser  *Parser
	scraper *Scraper
	config  *config.Config
	now     func() time.Time
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		fetcher: NewFetcher(cfg),
		parser:  NewParser(),
		scraper: NewScraper(),
		config:  cfg,
		now:     time.Now,
	}
}

// Fetch returns up to maxEntries records for acct. When every path fails the
// result is empty and the failure is only logged; the returned error is
// non-nil only when ctx ends.
func (m *Manager) Fetch(ctx context.Context, acct account.Account, maxEntries int) ([]article.Record, error) {
	if maxEntries <= 0 || maxEntries > m.config.Feed.MaxEntries {
		maxEntries = m.config.Feed.MaxEntries
	}

	logger := debuglog.WithFields(map[string]interface{}{"account": acct.String()})

	validator, err := validation.NewArticleURLValidator(acct.URLs().Profile)
	if err != nil {
		logger.Errorf("invalid profile URL: %v", err)
		return []article.Record{}, nil
	}

	stages := []stage{
		{name: "feed", run: m.fetchFeed},
		{name: "scrape", run: m.scrapeListing},
	}

	for _, st := range stages {
		records, err := st.run(ctx, acct, maxEntries)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			logger.With("stage", st.name).Warnf("stage failed: %v", err)
			continue
		}

		records = m.finalize(records, validator, maxEntries)
		if st.name == "feed" && m.config.Feed.Enrich {
			if err := m.enrich(ctx, acct, records); err != nil {
				return nil, err
			}
		}

		logger.With("stage", st.name).With("count", len(records)).Infof("fetched records")
		return records, nil
	}

	logger.Errorf("all acquisition paths failed")
	return []article.Record{}, nil
}

func (m *Manager) fetchFeed(ctx context.Context, acct account.Account, maxEntries int) ([]article.Record, error) {
	body, err := m.fetcher.Get(ctx, acct.URLs().Feed, acceptFeed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNextStage, err)
	}

	records, err := m.parser.Parse(bytes.NewReader(body), maxEntries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNextStage, err)
	}
	return records, nil
}

func (m *Manager) scrapeListing(ctx context.Context, acct account.Account, maxEntries int) ([]article.Record, error) {
	var records []article.Record
	logger := debuglog.WithFields(map[string]interface{}{"account": acct.String(), "stage": "scrape"})

	for page := 1; page <= m.config.Feed.MaxPages; page++ {
		pageURL := acct.URLs().Listing + "?page=" + strconv.Itoa(page)

		body, err := m.fetcher.Get(ctx, pageURL, acceptHTML)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: %w", ErrNextStage, err)
			}
			logger.With("page", page).Warnf("stopping pagination: %v", err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: parsing listing page: %w", ErrNextStage, err)
			}
			logger.With("page", page).Warnf("stopping pagination: %v", err)
			break
		}

		found, strategy := m.scraper.ScrapePage(doc)
		logger.With("page", page).With("strategy", strategy).Debugf("scraped %d records", len(found))
		records = append(records, found...)

		if len(records) >= maxEntries || !HasNextPage(doc) {
			break
		}
	}

	return records, nil
}

// finalize canonicalizes URLs, dropping records whose URL cannot be made
// absolute, removes duplicates, caps the list and normalizes every record.
func (m *Manager) finalize(records []article.Record, validator *validation.ArticleURLValidator, maxEntries int) []article.Record {
	now := m.now()
	seen := make(map[string]bool, len(records))
	result := make([]article.Record, 0, min(len(records), maxEntries))

	for _, record := range records {
		if len(result) >= maxEntries {
			break
		}

		canonical, err := validator.Canonicalize(record.URL)
		if err != nil {
			debuglog.Debugf("discarding record %q: %v", record.Title, err)
			continue
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true

		record.URL = canonical
		record.Normalize(now)
		result = append(result, record)
	}

	return result
}

// enrich fills in likes and tags per record. A record that cannot be
// enriched keeps its zero values.
func (m *Manager) enrich(ctx context.Context, acct account.Account, records []article.Record) error {
	chain := enrich.NewPlatformChain(m.fetcher, acct.URLs().DetailAPI)

	for i := range records {
		source, err := chain.Enrich(ctx, &records[i])
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			debuglog.WithFields(map[string]interface{}{"url": records[i].URL}).Warnf("enrichment failed: %v", err)
			continue
		}
		debuglog.WithFields(map[string]interface{}{"url": records[i].URL, "source": source}).Debugf("enriched")
		records[i].Normalize(m.now())
	}
	return nil
}
