package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/kayz/promptcraft/internal/prompt"
)

const defaultOpenAIModel = "gpt-4o"

// openAIClient implements Client over any OpenAI-compatible API.
type openAIClient struct {
	client *openai.Client
	model  string
	apiKey string
}

func newOpenAIClient(cfg Config) *openAIClient {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		apiKey: cfg.APIKey,
	}
}

func (c *openAIClient) messages(systemPrompt string, history []Message, message string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	return msgs
}

func (c *openAIClient) StreamChat(ctx context.Context, systemPrompt string, history []Message, message string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		if c.apiKey == "" {
			out <- errorFragment(ErrNoCredential)
			return
		}

		stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: c.messages(systemPrompt, history, message),
			Stream:   true,
		})
		if err != nil {
			out <- errorFragment(err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				out <- errorFragment(err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				select {
				case out <- delta:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (c *openAIClient) Suggest(ctx context.Context, field, current string) (string, error) {
	if c.apiKey == "" {
		return "", serviceErr("openai", "suggest", ErrNoCredential)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: suggestPrompt(field, current)},
		},
	})
	if err != nil {
		return "", serviceErr("openai", "suggest", err)
	}
	if len(resp.Choices) == 0 {
		return "", serviceErr("openai", "suggest", fmt.Errorf("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) ParseConfig(ctx context.Context, text string) (prompt.Config, error) {
	if c.apiKey == "" {
		return prompt.Config{}, serviceErr("openai", "parse", ErrNoCredential)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: parseInstruction(text)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return prompt.Config{}, serviceErr("openai", "parse", err)
	}
	if len(resp.Choices) == 0 {
		return prompt.Config{}, serviceErr("openai", "parse", fmt.Errorf("empty completion"))
	}

	cfg, err := decodeConfig(resp.Choices[0].Message.Content)
	if err != nil {
		return prompt.Config{}, serviceErr("openai", "parse", err)
	}
	return cfg, nil
}
