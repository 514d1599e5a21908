package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/kayz/promptcraft/internal/prompt"
)

func TestDecodeConfigCoercesPersonality(t *testing.T) {
	raw := `{"persona":"You are Bob","mission":"","skills":["x"],"boundaries":[],"personality":"sarcastic","format":"","reference":""}`
	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Personality != prompt.PersonalityProfessional {
		t.Fatalf("unknown personality must coerce to Professional, got %q", cfg.Personality)
	}
	if cfg.Persona != "You are Bob" || len(cfg.Skills) != 1 || cfg.Skills[0] != "x" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDecodeConfigKeepsAllowedPersonality(t *testing.T) {
	raw := `{"persona":"p","personality":"Casual"}`
	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Personality != prompt.PersonalityCasual {
		t.Fatalf("expected Casual, got %q", cfg.Personality)
	}
}

func TestDecodeConfigStripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"persona\":\"p\",\"personality\":\"Formal\"}\n```"
	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Persona != "p" || cfg.Personality != prompt.PersonalityFormal {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDecodeConfigMalformed(t *testing.T) {
	if _, err := decodeConfig("not json at all"); err == nil {
		t.Fatal("expected error for malformed output")
	}
}

func TestStreamChatWithoutCredential(t *testing.T) {
	c := newOpenAIClient(Config{})
	var got strings.Builder
	for frag := range c.StreamChat(t.Context(), "system", nil, "hi") {
		got.WriteString(frag)
	}
	if !strings.HasPrefix(got.String(), "Error:") {
		t.Fatalf("expected a single error fragment, got %q", got.String())
	}
}

func TestSuggestWithoutCredential(t *testing.T) {
	c := newAnthropicClient(Config{})
	_, err := c.Suggest(t.Context(), "persona", "")
	if err == nil {
		t.Fatal("expected error without credential")
	}
	var svcErr *ExternalServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ExternalServiceError, got %T: %v", err, err)
	}
}
