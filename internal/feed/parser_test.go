package feed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/zpost/internal/article"
)

func rssDocument(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>alice's articles</title>
		<link>https://zenn.dev/alice</link>
		<description>Test Description</description>
		` + strings.Join(items, "\n") + `
	</channel>
</rss>`
}

func rssItem(n int) string {
	return fmt.Sprintf(`<item>
			<title>Article %d</title>
			<link>https://zenn.dev/alice/articles/article-%d</link>
			<description>Description %d</description>
			<guid>https://zenn.dev/alice/articles/article-%d</guid>
			<pubDate>Wed, 0%d Jan 2025 12:00:00 GMT</pubDate>
		</item>`, n, n, n, n, n)
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name          string
		feedContent   string
		maxEntries    int
		expectError   bool
		expectedCount int
		validateFunc  func(t *testing.T, records []article.Record)
	}{
		{
			name:          "valid RSS feed",
			feedContent:   rssDocument(rssItem(1), rssItem(2)),
			maxEntries:    100,
			expectedCount: 2,
			validateFunc: func(t *testing.T, records []article.Record) {
				first := records[0]
				assert.Equal(t, "Article 1", first.Title)
				assert.Equal(t, "https://zenn.dev/alice/articles/article-1", first.URL)
				assert.Equal(t, "Description 1", first.Description)
				assert.Equal(t, "https://zenn.dev/alice/articles/article-1", first.GUID)
				assert.Equal(t, "Wed, 01 Jan 2025 12:00:00 GMT", first.PublishedAt)
				assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), first.Published.UTC())
				assert.Equal(t, 0, first.Likes)
				assert.Empty(t, first.Tags)
			},
		},
		{
			name:          "bounded by max entries",
			feedContent:   rssDocument(rssItem(1), rssItem(2), rssItem(3), rssItem(4)),
			maxEntries:    3,
			expectedCount: 3,
		},
		{
			name:          "unbounded when max is zero",
			feedContent:   rssDocument(rssItem(1), rssItem(2), rssItem(3), rssItem(4)),
			maxEntries:    0,
			expectedCount: 4,
		},
		{
			name: "item without link skipped",
			feedContent: rssDocument(rssItem(1), `<item>
			<title>Draft</title>
			<guid>draft</guid>
		</item>`),
			maxEntries:    100,
			expectedCount: 1,
		},
		{
			name: "categories become tags",
			feedContent: rssDocument(`<item>
			<title>Tagged</title>
			<link>https://zenn.dev/alice/articles/tagged</link>
			<category>go</category>
			<category>go</category>
			<category>testing</category>
		</item>`),
			maxEntries:    100,
			expectedCount: 1,
			validateFunc: func(t *testing.T, records []article.Record) {
				assert.Equal(t, []string{"go", "testing"}, records[0].Tags)
			},
		},
		{
			name: "untitled entry named after its slug",
			feedContent: rssDocument(`<item>
			<title></title>
			<link>https://zenn.dev/alice/articles/my-first-post</link>
		</item>`, `<item>
			<title>   </title>
			<link>https://zenn.dev/alice/articles/solo?utm_source=feed</link>
		</item>`),
			maxEntries:    100,
			expectedCount: 2,
			validateFunc: func(t *testing.T, records []article.Record) {
				assert.Equal(t, "My First Post", records[0].Title)
				assert.Equal(t, "Solo", records[1].Title)
			},
		},
		{
			name: "valid Atom feed",
			feedContent: `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Test Atom Feed</title>
	<updated>2025-01-01T12:00:00Z</updated>
	<entry>
		<title>Atom Entry 1</title>
		<link href="https://zenn.dev/alice/articles/atom-1"/>
		<id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
		<published>2025-01-01T12:00:00Z</published>
		<summary>Entry summary</summary>
	</entry>
</feed>`,
			maxEntries:    100,
			expectedCount: 1,
			validateFunc: func(t *testing.T, records []article.Record) {
				assert.Equal(t, "Atom Entry 1", records[0].Title)
				assert.Equal(t, "https://zenn.dev/alice/articles/atom-1", records[0].URL)
			},
		},
		{
			name:          "invalid XML",
			feedContent:   "not valid XML",
			maxEntries:    100,
			expectError:   true,
			expectedCount: 0,
		},
		{
			name:          "empty feed",
			feedContent:   `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel></channel></rss>`,
			maxEntries:    100,
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := parser.Parse(strings.NewReader(tt.feedContent), tt.maxEntries)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Len(t, records, tt.expectedCount)

			if tt.validateFunc != nil && len(records) > 0 {
				tt.validateFunc(t, records)
			}
		})
	}
}

func TestParser_ParseMinOfItemsAndBound(t *testing.T) {
	parser := NewParser()

	for n := 0; n <= 5; n++ {
		for m := 1; m <= 5; m++ {
			items := make([]string, 0, n)
			for i := 1; i <= n; i++ {
				items = append(items, rssItem(i))
			}

			records, err := parser.Parse(strings.NewReader(rssDocument(items...)), m)
			require.NoError(t, err)
			assert.Len(t, records, min(n, m), "n=%d m=%d", n, m)
			for _, r := range records {
				assert.NotEmpty(t, r.URL)
				assert.NotEmpty(t, r.Title)
			}
		}
	}
}
