package studio

import (
	"errors"
	"testing"
)

func newTestManager(t *testing.T) (*LibraryManager, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	m := NewLibraryManager(store)
	if err := m.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return m, store
}

func TestCreateCategoryCaseInsensitiveDuplicate(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	err := m.CreateCategory(t.Context(), "sales")
	var dupErr *DuplicateNameError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if len(m.Libraries()) != 1 {
		t.Fatalf("library count must be unchanged, got %d", len(m.Libraries()))
	}
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.CreateCategory(t.Context(), "   ")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRenameCategorySameNameIsNoOp(t *testing.T) {
	m, store := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	writesBefore := store.writes
	if err := m.RenameCategory(t.Context(), "Sales", "Sales"); err != nil {
		t.Fatalf("same-name rename must not error: %v", err)
	}
	if store.writes != writesBefore {
		t.Fatalf("same-name rename must not write to the store")
	}
}

func TestRenameCategoryDuplicateRejected(t *testing.T) {
	m, _ := newTestManager(t)

	for _, name := range []string{"Sales", "Support"} {
		if err := m.CreateCategory(t.Context(), name); err != nil {
			t.Fatalf("CreateCategory(%s) failed: %v", name, err)
		}
	}
	err := m.RenameCategory(t.Context(), "Support", "SALES")
	var dupErr *DuplicateNameError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestRenameCategoryKeepsTemplates(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "Write a cold email."}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if err := m.RenameCategory(t.Context(), "Sales", "Outbound"); err != nil {
		t.Fatalf("RenameCategory failed: %v", err)
	}

	lib, ok := m.Find("Outbound")
	if !ok {
		t.Fatal("renamed library not found")
	}
	if len(lib.Templates) != 1 || lib.Templates[0].Usecase != "Cold Email" {
		t.Fatalf("templates must survive a rename, got %+v", lib.Templates)
	}
}

func TestCreateTemplateDuplicateUsecase(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "a"}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "cold email", Text: "b"})
	var dupErr *DuplicateNameError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestUpdateTemplateRenameAndRetext(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "old"}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	if err := m.UpdateTemplate(t.Context(), "Sales", "Cold Email", Template{Usecase: "Warm Email", Text: "new"}); err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}

	lib, _ := m.Find("Sales")
	tmpl, ok := lib.FindTemplate("Warm Email")
	if !ok {
		t.Fatal("renamed template not found")
	}
	if tmpl.Text != "new" {
		t.Fatalf("rename and retext must apply together, got %q", tmpl.Text)
	}
	if _, ok := lib.FindTemplate("Cold Email"); ok {
		t.Fatal("old usecase still present after rename")
	}
}

func TestUpdateTemplateStoreFailureChangesNothing(t *testing.T) {
	m, store := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "old"}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	store.failNext = true
	if err := m.UpdateTemplate(t.Context(), "Sales", "Cold Email", Template{Usecase: "Warm Email", Text: "new"}); err == nil {
		t.Fatal("expected store failure to surface")
	}
	if err := m.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	lib, _ := m.Find("Sales")
	if _, ok := lib.FindTemplate("Cold Email"); !ok {
		t.Fatal("failed update must leave the old template intact")
	}
}

func TestDeleteOnlyTemplateKeepsCategory(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "a"}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if err := m.DeleteTemplate(t.Context(), "Sales", "Cold Email"); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}

	lib, ok := m.Find("Sales")
	if !ok {
		t.Fatal("category must survive deleting its only template")
	}
	if len(lib.Templates) != 0 {
		t.Fatalf("expected no templates, got %d", len(lib.Templates))
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "a"}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if err := m.DeleteCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if len(m.Libraries()) != 0 {
		t.Fatalf("expected no libraries left, got %d", len(m.Libraries()))
	}
}

func TestUseTemplateCopiesTextWithoutTouchingHistory(t *testing.T) {
	m, store := newTestManager(t)

	if err := m.CreateCategory(t.Context(), "Sales"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := m.CreateTemplate(t.Context(), "Sales", Template{Usecase: "Cold Email", Text: "You are a copywriter."}); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	ed := newTestEditor(t, store, &fakeParser{})
	versionsBefore := len(ed.Prompt().Versions)

	if err := m.UseTemplate(t.Context(), "Sales", "Cold Email", ed); err != nil {
		t.Fatalf("UseTemplate failed: %v", err)
	}
	if ed.Prompt().SystemPrompt != "You are a copywriter." {
		t.Fatalf("template text was not copied, got %q", ed.Prompt().SystemPrompt)
	}
	if ed.Mode() != ModeDirect {
		t.Fatalf("using a template must leave the editor in direct mode")
	}
	if len(ed.Prompt().Versions) != versionsBefore {
		t.Fatalf("using a template must not touch the version history")
	}
}
