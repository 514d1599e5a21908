package ai

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/kayz/promptcraft/internal/prompt"
)

const (
	defaultAnthropicModel = "claude-3-5-sonnet-latest"
	anthropicMaxTokens    = 4096
)

// anthropicClient implements Client over the Anthropic Messages API.
type anthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
	apiKey string
}

func newAnthropicClient(cfg Config) *anthropicClient {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	opts := []anthropic.ClientOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicClient{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  anthropic.Model(model),
		apiKey: cfg.APIKey,
	}
}

func (c *anthropicClient) request(systemPrompt string, history []Message, message string) anthropic.MessagesRequest {
	msgs := make([]anthropic.Message, 0, len(history)+1)
	for _, m := range history {
		if m.Role == RoleModel {
			msgs = append(msgs, anthropic.NewAssistantTextMessage(m.Text))
		} else {
			msgs = append(msgs, anthropic.NewUserTextMessage(m.Text))
		}
	}
	msgs = append(msgs, anthropic.NewUserTextMessage(message))

	return anthropic.MessagesRequest{
		Model:     c.model,
		System:    systemPrompt,
		Messages:  msgs,
		MaxTokens: anthropicMaxTokens,
	}
}

func (c *anthropicClient) StreamChat(ctx context.Context, systemPrompt string, history []Message, message string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		if c.apiKey == "" {
			out <- errorFragment(ErrNoCredential)
			return
		}

		_, err := c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: c.request(systemPrompt, history, message),
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				if data.Delta.Text == nil || *data.Delta.Text == "" {
					return
				}
				select {
				case out <- *data.Delta.Text:
				case <-ctx.Done():
				}
			},
		})
		if err != nil {
			out <- errorFragment(err)
		}
	}()

	return out
}

func (c *anthropicClient) Suggest(ctx context.Context, field, current string) (string, error) {
	if c.apiKey == "" {
		return "", serviceErr("anthropic", "suggest", ErrNoCredential)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     c.model,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(suggestPrompt(field, current))},
		MaxTokens: anthropicMaxTokens,
	})
	if err != nil {
		return "", serviceErr("anthropic", "suggest", err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", serviceErr("anthropic", "suggest", fmt.Errorf("empty completion"))
	}
	return text, nil
}

func (c *anthropicClient) ParseConfig(ctx context.Context, text string) (prompt.Config, error) {
	if c.apiKey == "" {
		return prompt.Config{}, serviceErr("anthropic", "parse", ErrNoCredential)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     c.model,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(parseInstruction(text))},
		MaxTokens: anthropicMaxTokens,
	})
	if err != nil {
		return prompt.Config{}, serviceErr("anthropic", "parse", err)
	}

	cfg, err := decodeConfig(resp.GetFirstContentText())
	if err != nil {
		return prompt.Config{}, serviceErr("anthropic", "parse", err)
	}
	return cfg, nil
}
