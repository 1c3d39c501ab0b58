// Package enrich fills in popularity data (like counts and topic tags) that
// the syndication feed does not carry, by reading each article's detail
// data from the platform.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/pders01/zpost/internal/article"
)

// Getter performs a single upstream read and returns the response body.
type Getter interface {
	Get(ctx context.Context, url, accept string) ([]byte, error)
}

// Source is one way of obtaining popularity data for an article.
type Source interface {
	// Name identifies the source in logs
	Name() string

	// CanHandle returns true if this source can enrich the given article URL
	CanHandle(url string) bool

	// Enrich reads popularity data for record. It must leave record
	// untouched when it returns an error.
	Enrich(ctx context.Context, record *article.Record, getter Getter) error

	// Priority orders sources; higher is tried first
	Priority() int
}

// Chain tries its sources in priority order until one succeeds.
type Chain struct {
	sources []Source
	getter  Getter
}

func NewChain(getter Getter) *Chain {
	return &Chain{getter: getter}
}

// NewPlatformChain returns the chain used for platform articles: the
// detail API first, then the inline data of the article page.
func NewPlatformChain(getter Getter, detailAPI string) *Chain {
	c := NewChain(getter)
	c.Register(NewAPISource(detailAPI))
	c.Register(NewPageSource())
	return c
}

func (c *Chain) Register(source Source) {
	c.sources = append(c.sources, source)
	sort.SliceStable(c.sources, func(i, j int) bool {
		return c.sources[i].Priority() > c.sources[j].Priority()
	})
}

// Sources returns the registered sources in the order they are tried.
func (c *Chain) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Enrich runs the chain for a single record and returns the name of the
// source that succeeded. When every source fails the record is unchanged
// and the joined errors are returned.
func (c *Chain) Enrich(ctx context.Context, record *article.Record) (string, error) {
	var errs []error
	for _, source := range c.sources {
		if !source.CanHandle(record.URL) {
			continue
		}

		err := source.Enrich(ctx, record, c.getter)
		if err == nil {
			return source.Name(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
	}

	if len(errs) == 0 {
		return "", fmt.Errorf("no enrichment source for %s", record.URL)
	}
	return "", errors.Join(errs...)
}
