package recommend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/zpost/internal/account"
	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/compose"
	"github.com/pders01/zpost/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	return config.TestConfig()
}

func TestNewService(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		service, err := NewService(testConfig(t))
		require.NoError(t, err)
		assert.NotNil(t, service)
	})

	t.Run("unknown ranking strategy", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Ranking.Strategy = "random"
		_, err := NewService(cfg)
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM.Provider = "cohere"
		_, err := NewService(cfg)
		assert.Error(t, err)
	})
}

func TestService_Resolve(t *testing.T) {
	service, err := NewService(testConfig(t))
	require.NoError(t, err)

	acct, err := service.Resolve("https://zenn.dev/p/acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", acct.Handle())
	assert.True(t, acct.IsOrganization())

	_, err = service.Resolve("not a handle!")
	assert.ErrorIs(t, err, account.ErrUnresolvable)

	_, err = service.FetchPopular(context.Background(), account.Account{}, 5, 1)
	assert.ErrorIs(t, err, account.ErrUnresolvable)
}

func TestService_FetchPopular(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bob/feed" {
			http.NotFound(w, r)
			return
		}
		var items strings.Builder
		for i := range 25 {
			fmt.Fprintf(&items, `<item><title>Post %d</title><link>%s/bob/articles/post-%d</link><pubDate>Wed, 01 Jan 2025 %02d:00:00 GMT</pubDate></item>`, i, server.URL, i, i%24)
		}
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>bob</title>%s</channel></rss>`, items.String())
	}))
	defer server.Close()

	cfg := testConfig(t)
	service, err := NewService(cfg)
	require.NoError(t, err)

	acct := account.New(server.URL, "bob", false)

	first, err := service.FetchPopular(context.Background(), acct, 3, 11)
	require.NoError(t, err)
	require.Len(t, first, 3)

	again, err := service.FetchPopular(context.Background(), acct, 3, 11)
	require.NoError(t, err)
	require.Len(t, again, len(first))
	for i := range first {
		assert.Equal(t, first[i].URL, again[i].URL)
	}

	all, err := service.FetchPopular(context.Background(), acct, 100, 11)
	require.NoError(t, err)
	assert.Len(t, all, cfg.Ranking.PoolSize)
}

func TestService_FetchPopularNoArticles(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	service, err := NewService(testConfig(t))
	require.NoError(t, err)

	acct := account.New(server.URL, "ghost", false)
	records, err := service.FetchPopular(context.Background(), acct, 5, 1)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "no articles found for ghost", NoArticlesMessage(acct))
}

func TestService_ComposeWithoutCredential(t *testing.T) {
	service, err := NewService(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, compose.NoticeNoArticles, service.Compose(context.Background(), nil, compose.Personal, ""))

	articles := []article.Record{{Title: "One", URL: "https://zenn.dev/bob/articles/one", Tags: []string{}}}
	got := service.Compose(context.Background(), articles, compose.Corporate, "Today: {url}")
	assert.Equal(t, "Today: https://zenn.dev/bob/articles/one\n\n"+compose.NoticeMissingCredential, got)
}
