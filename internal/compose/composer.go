// Package compose turns a ranked article list into a short social media
// post using a text-generation backend.
package compose

import (
	"context"
	"iter"
	"strings"

	"github.com/pders01/zpost/internal/article"
	"github.com/pders01/zpost/internal/config"
	"github.com/pders01/zpost/internal/debuglog"
)

const urlPlaceholder = "{url}"

const (
	NoticeMissingCredential = "No API key is configured for the text generation backend, so no post was generated."
	NoticeNoArticles        = "No articles were found to write about."
	noticeGenerationFailed  = "Post generation failed: "
)

type Composer struct {
	backend     Backend
	prompts     *PromptRegistry
	maxTokens   int
	temperature float32
	stream      bool
}

func NewComposer(cfg *config.Config, backend Backend, prompts *PromptRegistry) *Composer {
	return &Composer{
		backend:     backend,
		prompts:     prompts,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
		stream:      cfg.LLM.Stream,
	}
}

// Compose returns the complete post. Failures are reported inside the
// returned text.
func (c *Composer) Compose(ctx context.Context, articles []article.Record, tone Tone, template string) string {
	var text string
	for text = range c.Stream(ctx, articles, tone, template) {
	}
	return text
}

// Stream yields the post as it grows; every value extends the previous one
// and the last is the full post. The rendered template, if any, comes first
// and is never sent to the backend.
func (c *Composer) Stream(ctx context.Context, articles []article.Record, tone Tone, template string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(articles) == 0 {
			yield(NoticeNoArticles)
			return
		}

		var text strings.Builder
		if prefix := RenderTemplate(template, articles[0].URL); prefix != "" {
			text.WriteString(prefix)
			if !yield(text.String()) {
				return
			}
		}

		if !c.backend.Configured() {
			text.WriteString(NoticeMissingCredential)
			yield(text.String())
			return
		}

		system, user := c.prompts.Messages(tone, RenderArticles(articles))
		req := Request{
			System:      system,
			User:        user,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Stream:      c.stream,
		}

		for delta, err := range c.backend.Generate(ctx, req) {
			if err != nil {
				debuglog.Errorf("generating post: %v", err)
				text.WriteString(noticeGenerationFailed + err.Error())
				yield(text.String())
				return
			}
			if delta == "" {
				continue
			}
			text.WriteString(delta)
			if !yield(text.String()) {
				return
			}
		}
	}
}

// RenderTemplate substitutes url into every {url} of template and appends
// the separator placed between the template and the generated text. An
// empty template renders as "".
func RenderTemplate(template, url string) string {
	if strings.TrimSpace(template) == "" {
		return ""
	}
	return strings.ReplaceAll(template, urlPlaceholder, url) + "\n\n"
}
