package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kayz/promptcraft/internal/prompt"
)

// decodeConfig parses the model's JSON answer into a prompt config and
// coerces the personality into the allowed set. Some models wrap JSON in a
// markdown fence even when asked not to, so fences are stripped first.
func decodeConfig(raw string) (prompt.Config, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	var cfg prompt.Config
	if err := json.Unmarshal([]byte(s), &cfg); err != nil {
		return prompt.Config{}, fmt.Errorf("malformed config JSON: %w", err)
	}
	return cfg.Normalized(), nil
}

// errorFragment renders a mid-stream failure as the single fragment the
// chat transcript records in place of model output.
func errorFragment(err error) string {
	return fmt.Sprintf("Error: Could not get response from AI. Details: %v", err)
}
