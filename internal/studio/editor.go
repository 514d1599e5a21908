package studio

import (
	"context"

	"github.com/kayz/promptcraft/internal/prompt"
)

// Mode selects which half of the prompt/config pair is authoritative.
type Mode string

const (
	// ModeGuided: structured config is authoritative, text is derived.
	ModeGuided Mode = "guided"
	// ModeDirect: free text is authoritative, config is stale until parsed.
	ModeDirect Mode = "direct"
)

// ConfigParser extracts a structured config from free prompt text.
type ConfigParser interface {
	ParseConfig(ctx context.Context, text string) (prompt.Config, error)
}

// Editor drives one prompt's editing session: the guided/direct mode state
// machine and the version ledger. It is not safe for concurrent use; one
// interactive session owns it.
type Editor struct {
	store  Store
	parser ConfigParser
	prompt *Prompt
	mode   Mode
}

// NewEditor starts an editing session over p in guided mode.
func NewEditor(store Store, parser ConfigParser, p *Prompt) *Editor {
	return &Editor{store: store, parser: parser, prompt: p, mode: ModeGuided}
}

// Prompt returns the prompt under edit.
func (e *Editor) Prompt() *Prompt {
	return e.prompt
}

// Mode returns the current editing mode.
func (e *Editor) Mode() Mode {
	return e.mode
}

// SwitchToDirect makes the free text the editable source of truth. This is a
// pure mode switch: no data changes, the existing text is preserved.
func (e *Editor) SwitchToDirect() {
	e.mode = ModeDirect
}

// UpdateConfig replaces the structured config while in guided mode. The text
// is regenerated from the config and both are persisted together; on a store
// failure no local state is touched.
func (e *Editor) UpdateConfig(ctx context.Context, cfg prompt.Config) error {
	if e.mode != ModeGuided {
		return &InvariantError{Msg: "config edits require guided mode"}
	}

	cfg = cfg.Normalized()
	text := prompt.Assemble(cfg)

	if err := e.store.UpdatePrompt(ctx, e.prompt.ID, text, cfg); err != nil {
		return err
	}
	e.prompt.Config = cfg
	e.prompt.SystemPrompt = text
	return nil
}

// UpdateDirectText replaces the prompt text while in direct mode. The config
// is left as-is and is considered stale until the next successful parse.
func (e *Editor) UpdateDirectText(ctx context.Context, text string) error {
	if e.mode != ModeDirect {
		return &InvariantError{Msg: "text edits require direct mode"}
	}

	if err := e.store.UpdatePrompt(ctx, e.prompt.ID, text, e.prompt.Config); err != nil {
		return err
	}
	e.prompt.SystemPrompt = text
	return nil
}

// ParseCurrent re-derives the config from the current text via the external
// parser. Only a fully successful parse-and-persist replaces the config and
// returns the editor to guided mode; any failure leaves everything unchanged.
func (e *Editor) ParseCurrent(ctx context.Context) error {
	cfg, err := e.parser.ParseConfig(ctx, e.prompt.SystemPrompt)
	if err != nil {
		return err
	}
	cfg = cfg.Normalized()

	if err := e.store.UpdatePrompt(ctx, e.prompt.ID, e.prompt.SystemPrompt, cfg); err != nil {
		return err
	}
	e.prompt.Config = cfg
	e.mode = ModeGuided
	return nil
}

// SaveVersion snapshots text as a new immutable version at the front of the
// ledger. Nothing is prepended locally unless the store write succeeded.
func (e *Editor) SaveVersion(ctx context.Context, text string, tag VersionTag) (*Version, error) {
	if !tag.Valid() {
		return nil, &ValidationError{Msg: "unknown version tag: " + string(tag)}
	}

	v, err := e.store.AddVersion(ctx, e.prompt.ID, text, tag)
	if err != nil {
		return nil, err
	}
	e.prompt.Versions = append([]Version{*v}, e.prompt.Versions...)
	return v, nil
}

// RestoreVersion copies a past version's text into the current prompt text.
// The config is deliberately not recomputed; callers re-parse or accept the
// staleness.
func (e *Editor) RestoreVersion(ctx context.Context, versionID string) error {
	v := e.findVersion(versionID)
	if v == nil {
		return &NotFoundError{Kind: "version", Name: versionID}
	}

	if err := e.store.UpdatePrompt(ctx, e.prompt.ID, v.Text, e.prompt.Config); err != nil {
		return err
	}
	e.prompt.SystemPrompt = v.Text
	return nil
}

// DeleteVersion removes one version. A prompt always keeps at least one
// version, so deleting the last remaining one is rejected.
func (e *Editor) DeleteVersion(ctx context.Context, versionID string) error {
	if len(e.prompt.Versions) <= 1 {
		return &InvariantError{Msg: "cannot delete the last remaining version"}
	}
	v := e.findVersion(versionID)
	if v == nil {
		return &NotFoundError{Kind: "version", Name: versionID}
	}

	if err := e.store.DeleteVersion(ctx, versionID); err != nil {
		return err
	}
	kept := e.prompt.Versions[:0:0]
	for _, existing := range e.prompt.Versions {
		if existing.ID != versionID {
			kept = append(kept, existing)
		}
	}
	e.prompt.Versions = kept
	return nil
}

func (e *Editor) findVersion(id string) *Version {
	for i := range e.prompt.Versions {
		if e.prompt.Versions[i].ID == id {
			return &e.prompt.Versions[i]
		}
	}
	return nil
}
