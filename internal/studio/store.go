package studio

import (
	"context"

	"github.com/kayz/promptcraft/internal/prompt"
)

// Store is the persistence boundary the studio depends on. Every call either
// fully applies or not at all; failures surface as *PersistenceError.
type Store interface {
	// Libraries returns all visible libraries with their templates attached,
	// ordered by name.
	Libraries(ctx context.Context) ([]Library, error)
	CreateLibrary(ctx context.Context, name string) (*Library, error)
	RenameLibrary(ctx context.Context, id, name string) error
	// DeleteLibrary removes the library and cascades its templates.
	DeleteLibrary(ctx context.Context, id string) error

	CreateTemplate(ctx context.Context, libraryID, usecase, text string) (*Template, error)
	// UpdateTemplate applies usecase and text together; a rename+retext pair
	// either both apply or neither does.
	UpdateTemplate(ctx context.Context, id, usecase, text string) error
	DeleteTemplate(ctx context.Context, id string) error

	// CreatePrompt inserts the prompt together with its initial version in a
	// single atomic operation.
	CreatePrompt(ctx context.Context, libraryID, name, systemPrompt string, cfg prompt.Config) (*Prompt, error)
	GetPrompt(ctx context.Context, id string) (*Prompt, error)
	UpdatePrompt(ctx context.Context, id, systemPrompt string, cfg prompt.Config) error
	// DeletePrompt removes the prompt and cascades its versions.
	DeletePrompt(ctx context.Context, id string) error

	AddVersion(ctx context.Context, promptID, text string, tag VersionTag) (*Version, error)
	DeleteVersion(ctx context.Context, id string) error
}

// CreatePrompt creates a prompt whose text and initial version are the
// assembled form of the default config.
func CreatePrompt(ctx context.Context, s Store, libraryID, name string) (*Prompt, error) {
	if name == "" {
		return nil, &ValidationError{Msg: "prompt name must not be empty"}
	}
	cfg := prompt.DefaultConfig()
	return s.CreatePrompt(ctx, libraryID, name, prompt.Assemble(cfg), cfg)
}
