package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/pders01/zpost/internal/article"
)

// RenderArticles formats articles as the structured block handed to the
// generator. Order is preserved.
func RenderArticles(articles []article.Record) string {
	var b strings.Builder
	b.WriteString("[Popular articles]\n")

	for i, a := range articles {
		published := a.PublishedAt
		if published == "" && !a.Published.IsZero() {
			published = a.Published.Format(time.RFC3339)
		}

		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "   URL: %s\n", a.URL)
		fmt.Fprintf(&b, "   Likes: %d\n", a.Likes)
		fmt.Fprintf(&b, "   Published: %s\n", published)
		fmt.Fprintf(&b, "   Description: %s\n", a.Description)
		fmt.Fprintf(&b, "   Tags: %s\n\n", strings.Join(a.Tags, ", "))
	}

	return b.String()
}
