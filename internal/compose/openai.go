package compose

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend talks to the OpenAI chat completions API or any compatible
// endpoint such as OpenRouter.
type OpenAIBackend struct {
	client     *openai.Client
	model      string
	configured bool
}

func NewOpenAIBackend(apiKey, baseURL, model string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIBackend{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		configured: apiKey != "",
	}
}

func (b *OpenAIBackend) Configured() bool {
	return b.configured
}

func (b *OpenAIBackend) Generate(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		chatReq := openai.ChatCompletionRequest{
			Model:       b.model,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.System},
				{Role: openai.ChatMessageRoleUser, Content: req.User},
			},
		}

		if !req.Stream {
			resp, err := b.client.CreateChatCompletion(ctx, chatReq)
			if err != nil {
				yield("", err)
				return
			}
			if len(resp.Choices) == 0 {
				yield("", errors.New("empty response from OpenAI"))
				return
			}
			yield(resp.Choices[0].Message.Content, nil)
			return
		}

		chatReq.Stream = true
		stream, err := b.client.CreateChatCompletionStream(ctx, chatReq)
		if err != nil {
			yield("", err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}
