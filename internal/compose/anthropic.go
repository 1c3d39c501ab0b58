package compose

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicBackend talks to the Anthropic messages API.
type AnthropicBackend struct {
	client     *anthropic.Client
	model      string
	configured bool
}

func NewAnthropicBackend(apiKey, baseURL, model string) *AnthropicBackend {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &AnthropicBackend{
		client:     anthropic.NewClient(apiKey, opts...),
		model:      model,
		configured: apiKey != "",
	}
}

func (b *AnthropicBackend) Configured() bool {
	return b.configured
}

func (b *AnthropicBackend) Generate(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		user := req.User
		temperature := req.Temperature
		msgReq := anthropic.MessagesRequest{
			Model:       anthropic.Model(b.model),
			MaxTokens:   req.MaxTokens,
			System:      req.System,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				{
					Role:    anthropic.RoleUser,
					Content: []anthropic.MessageContent{{Type: "text", Text: &user}},
				},
			},
		}

		if !req.Stream {
			resp, err := b.client.CreateMessages(ctx, msgReq)
			if err != nil {
				yield("", err)
				return
			}

			var text strings.Builder
			for _, content := range resp.Content {
				text.WriteString(content.GetText())
			}
			if text.Len() == 0 {
				yield("", errors.New("empty response from Anthropic"))
				return
			}
			yield(text.String(), nil)
			return
		}

		// The delta callback runs on this goroutine; cancel stops the
		// stream once the consumer is done.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		_, err := b.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: msgReq,
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				text := data.Delta.GetText()
				if stopped || text == "" {
					return
				}
				if !yield(text, nil) {
					stopped = true
					cancel()
				}
			},
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}
