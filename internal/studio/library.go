package studio

import (
	"context"
	"strings"
)

// LibraryManager owns the template categories view. Uniqueness checks run
// against the last fetched state before any remote call, and every mutation
// is followed by a full refresh so the view tracks concurrent external
// changes instead of local patches.
type LibraryManager struct {
	store     Store
	libraries []Library
}

// NewLibraryManager creates a manager with an empty view; call Refresh (or
// any mutating operation) to populate it.
func NewLibraryManager(store Store) *LibraryManager {
	return &LibraryManager{store: store}
}

// Refresh re-fetches all libraries and templates from the store. On failure
// the previous view is discarded rather than kept stale.
func (m *LibraryManager) Refresh(ctx context.Context) error {
	libs, err := m.store.Libraries(ctx)
	if err != nil {
		m.libraries = nil
		return err
	}
	m.libraries = libs
	return nil
}

// Libraries returns the last fetched view.
func (m *LibraryManager) Libraries() []Library {
	return m.libraries
}

// Find returns the library whose name matches case-insensitively.
func (m *LibraryManager) Find(name string) (*Library, bool) {
	for i := range m.libraries {
		if strings.EqualFold(m.libraries[i].Name, name) {
			return &m.libraries[i], true
		}
	}
	return nil, false
}

// CreateCategory creates a new empty library.
func (m *LibraryManager) CreateCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Msg: "category name must not be empty"}
	}
	if _, ok := m.Find(name); ok {
		return &DuplicateNameError{Kind: "category", Name: name}
	}

	if _, err := m.store.CreateLibrary(ctx, name); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// RenameCategory renames a library in place; its templates are unaffected.
// Renaming a library to its current name is a no-op with no store write.
func (m *LibraryManager) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &ValidationError{Msg: "category name must not be empty"}
	}
	if oldName == newName {
		return nil
	}

	lib, ok := m.Find(oldName)
	if !ok {
		return &NotFoundError{Kind: "category", Name: oldName}
	}
	if other, ok := m.Find(newName); ok && other.ID != lib.ID {
		return &DuplicateNameError{Kind: "category", Name: newName}
	}

	if err := m.store.RenameLibrary(ctx, lib.ID, newName); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// DeleteCategory removes a library and all templates it owns. Destructive;
// callers confirm before invoking.
func (m *LibraryManager) DeleteCategory(ctx context.Context, name string) error {
	lib, ok := m.Find(name)
	if !ok {
		return &NotFoundError{Kind: "category", Name: name}
	}

	if err := m.store.DeleteLibrary(ctx, lib.ID); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// CreateTemplate adds a template to a category. The usecase must be unique
// within the category, case-insensitively.
func (m *LibraryManager) CreateTemplate(ctx context.Context, category string, tmpl Template) error {
	tmpl.Usecase = strings.TrimSpace(tmpl.Usecase)
	if tmpl.Usecase == "" {
		return &ValidationError{Msg: "template usecase must not be empty"}
	}

	lib, ok := m.Find(category)
	if !ok {
		return &NotFoundError{Kind: "category", Name: category}
	}
	if _, ok := lib.FindTemplate(tmpl.Usecase); ok {
		return &DuplicateNameError{Kind: "template", Name: tmpl.Usecase}
	}

	if _, err := m.store.CreateTemplate(ctx, lib.ID, tmpl.Usecase, tmpl.Text); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// UpdateTemplate replaces a template's usecase and text together. When the
// usecase changes this is a combined rename+retext: both apply or neither.
func (m *LibraryManager) UpdateTemplate(ctx context.Context, category, oldUsecase string, updated Template) error {
	updated.Usecase = strings.TrimSpace(updated.Usecase)
	if updated.Usecase == "" {
		return &ValidationError{Msg: "template usecase must not be empty"}
	}

	lib, ok := m.Find(category)
	if !ok {
		return &NotFoundError{Kind: "category", Name: category}
	}
	existing, ok := lib.FindTemplate(oldUsecase)
	if !ok {
		return &NotFoundError{Kind: "template", Name: oldUsecase}
	}
	if !strings.EqualFold(oldUsecase, updated.Usecase) {
		if _, ok := lib.FindTemplate(updated.Usecase); ok {
			return &DuplicateNameError{Kind: "template", Name: updated.Usecase}
		}
	}

	if err := m.store.UpdateTemplate(ctx, existing.ID, updated.Usecase, updated.Text); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// DeleteTemplate removes one template; the category stays even when it
// becomes empty. Destructive; callers confirm before invoking.
func (m *LibraryManager) DeleteTemplate(ctx context.Context, category, usecase string) error {
	lib, ok := m.Find(category)
	if !ok {
		return &NotFoundError{Kind: "category", Name: category}
	}
	tmpl, ok := lib.FindTemplate(usecase)
	if !ok {
		return &NotFoundError{Kind: "template", Name: usecase}
	}

	if err := m.store.DeleteTemplate(ctx, tmpl.ID); err != nil {
		return err
	}
	return m.Refresh(ctx)
}

// UseTemplate copies a template's text into the editor's current prompt text.
// Version history is untouched until the user saves a version explicitly.
func (m *LibraryManager) UseTemplate(ctx context.Context, category, usecase string, ed *Editor) error {
	lib, ok := m.Find(category)
	if !ok {
		return &NotFoundError{Kind: "category", Name: category}
	}
	tmpl, ok := lib.FindTemplate(usecase)
	if !ok {
		return &NotFoundError{Kind: "template", Name: usecase}
	}

	ed.SwitchToDirect()
	return ed.UpdateDirectText(ctx, tmpl.Text)
}
