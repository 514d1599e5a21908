package studio

import (
	"strings"
	"time"

	"github.com/kayz/promptcraft/internal/prompt"
)

// VersionTag labels a saved version. The empty tag means untagged.
type VersionTag string

const (
	TagProduction VersionTag = "Production"
	TagBeta       VersionTag = "Beta"
	TagTest       VersionTag = "Test"
)

// Valid reports whether the tag is empty or one of the known labels.
func (t VersionTag) Valid() bool {
	switch t {
	case "", TagProduction, TagBeta, TagTest:
		return true
	default:
		return false
	}
}

// Version is an immutable, timestamped snapshot of a prompt's text. Once
// created only deletion removes it; text and timestamp never change.
type Version struct {
	ID        string     `json:"id"`
	PromptID  string     `json:"prompt_id"`
	Text      string     `json:"prompt"`
	Tag       VersionTag `json:"tag,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Prompt holds the current editable text/config pair and its version
// history, newest first.
type Prompt struct {
	ID           string        `json:"id"`
	LibraryID    string        `json:"library_id"`
	Name         string        `json:"name"`
	SystemPrompt string        `json:"system_prompt"`
	Config       prompt.Config `json:"config"`
	Versions     []Version     `json:"versions"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Template is a static named prompt text used as a copyable starting point.
// Unlike Prompt it carries no version history.
type Template struct {
	ID        string `json:"id"`
	LibraryID string `json:"library_id"`
	Usecase   string `json:"usecase"`
	Text      string `json:"prompt"`
}

// Library is a named collection of templates. Names are unique
// case-insensitively across the libraries visible to the acting user, and
// usecases are unique case-insensitively within a library.
type Library struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Templates []Template `json:"templates"`
	CreatedAt time.Time  `json:"created_at"`
}

// FindTemplate returns the template whose usecase matches case-insensitively.
func (l *Library) FindTemplate(usecase string) (*Template, bool) {
	for i := range l.Templates {
		if strings.EqualFold(l.Templates[i].Usecase, usecase) {
			return &l.Templates[i], true
		}
	}
	return nil, false
}
