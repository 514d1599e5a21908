package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/kayz/promptcraft/internal/prompt"
)

// Message roles used in chat transcripts.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a single chat turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Client is the AI capability the studio depends on: streaming chat,
// one-shot suggestions, and prompt-to-config extraction.
//
// StreamChat returns a finite sequence of text fragments. It never fails
// past the channel boundary: on any transport or provider error the channel
// yields a single human-readable error fragment and is closed.
//
// Suggest and ParseConfig fail with *ExternalServiceError when no credential
// is configured, the remote call errors, or the output is unusable.
type Client interface {
	StreamChat(ctx context.Context, systemPrompt string, history []Message, message string) <-chan string
	Suggest(ctx context.Context, field, current string) (string, error)
	ParseConfig(ctx context.Context, text string) (prompt.Config, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string `yaml:"provider,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// New creates a Client for the configured provider. The provider name is
// matched loosely; unknown names fall through to the OpenAI-compatible
// client so gateway deployments keep working.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic", "claude":
		return newAnthropicClient(cfg), nil
	case "openai", "gpt", "chatgpt", "":
		return newOpenAIClient(cfg), nil
	default:
		return newOpenAIClient(cfg), nil
	}
}

// suggestPrompt builds the one-shot instruction for field suggestions.
func suggestPrompt(field, current string) string {
	if strings.TrimSpace(current) == "" {
		current = "(empty)"
	}
	return fmt.Sprintf(`You are a world-class prompt engineering expert. Your task is to provide a concise, actionable suggestion to improve a specific part of a system prompt.

Field to improve: %q
Current content: %q

Based on best practices, provide one clear suggestion for improvement. Be specific and helpful. Frame your response as a direct suggestion.`, field, current)
}

// parseInstruction builds the structured-extraction instruction. The model
// must answer with a single JSON object matching the config shape.
func parseInstruction(text string) string {
	return fmt.Sprintf(`Analyze the following system prompt and extract its core components into a JSON object with exactly these keys:
"persona" (string), "mission" (string), "skills" (array of strings), "boundaries" (array of strings), "personality" (one of "Professional", "Casual", "Enthusiastic", "Formal"), "format" (string), "reference" (string).
If a section is missing, use an empty string or empty array. Respond with the JSON object only.

System Prompt to analyze:
---
%s
---`, text)
}
