// Package recommend ties account resolution, article acquisition, ranking
// and post composition into the operations exposed to the command line.
package recommend

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/pders01/zpost/internal/account"
	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/compose"
	"github.com/pders01/zpost/internal/config"
	"github.com/pders01/zpost/internal/debuglog"
	"github.com/pders01/zpost/internal/feed"
	"github.com/pders01/zpost/internal/rank"
)

type Service struct {
	config   *config.Config
	resolver *account.Resolver
	manager  *feed.Manager
	composer *compose.Composer
	strategy rank.Strategy
}

func NewService(cfg *config.Config) (*Service, error) {
	resolver, err := account.NewResolver(cfg.Platform.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	strategy, err := rank.ParseStrategy(cfg.Ranking.Strategy)
	if err != nil {
		return nil, err
	}

	backend, err := compose.NewBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating backend: %w", err)
	}

	prompts, err := compose.NewPromptRegistry(cfg.LLM.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	return &Service{
		config:   cfg,
		resolver: resolver,
		manager:  feed.NewManager(cfg),
		composer: compose.NewComposer(cfg, backend, prompts),
		strategy: strategy,
	}, nil
}

func (s *Service) Resolve(input string) (account.Account, error) {
	return s.resolver.Resolve(input)
}

// FetchPopular acquires the account's articles and returns a seeded sample
// of limit articles from the most popular ones, in ranked order.
func (s *Service) FetchPopular(ctx context.Context, acct account.Account, limit int, seed int64) ([]article.Record, error) {
	if acct.IsZero() {
		return nil, account.ErrUnresolvable
	}

	logger := debuglog.WithFields(map[string]interface{}{
		"run":     uuid.NewString(),
		"account": acct.String(),
	})

	records, err := s.manager.Fetch(ctx, acct, s.config.Feed.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}
	if len(records) == 0 {
		logger.Warnf("%s", NoArticlesMessage(acct))
		return records, nil
	}

	selected := rank.SelectPool(records, limit, s.config.Ranking.PoolSize, seed, s.strategy)
	logger.With("fetched", len(records)).With("selected", len(selected)).With("seed", seed).
		Infof("selected articles by %s", s.strategy)
	return selected, nil
}

func (s *Service) Compose(ctx context.Context, articles []article.Record, tone compose.Tone, template string) string {
	return s.composer.Compose(ctx, articles, tone, template)
}

func (s *Service) Stream(ctx context.Context, articles []article.Record, tone compose.Tone, template string) iter.Seq[string] {
	return s.composer.Stream(ctx, articles, tone, template)
}

// NoArticlesMessage is the status shown when an account yields no articles.
func NoArticlesMessage(acct account.Account) string {
	return fmt.Sprintf("no articles found for %s", acct.Handle())
}
