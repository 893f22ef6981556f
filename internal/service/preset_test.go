package service

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

func newPresetService(t *testing.T) *PresetService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model-presets.json")
	return NewPresetService(store.NewFileBackend(path))
}

func sampleModels() []domain.ModelEntry {
	return []domain.ModelEntry{
		{Provider: "anthropic", ModelID: "claude-sonnet-4-5"},
		{Provider: "openai", ModelID: "gpt-4o", Metadata: map[string]any{"inputCost": 2.5}},
	}
}

func TestSaveThenGetRoundTrips(t *testing.T) {
	service := newPresetService(t)

	saved, err := service.Save(SavePresetRequest{
		Name:        "daily drivers",
		Description: "default pair",
		Models:      sampleModels(),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	if saved.CreatedAt != saved.UpdatedAt {
		t.Fatalf("createdAt and updatedAt should match on save")
	}

	got, err := service.Get(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "daily drivers" || len(got.Models) != 2 {
		t.Fatalf("unexpected preset: %+v", got)
	}
	if got.Models[1].Metadata["inputCost"] != 2.5 {
		t.Fatalf("metadata lost: %+v", got.Models[1])
	}
}

func TestSaveRequiresNameAndModels(t *testing.T) {
	service := newPresetService(t)

	if _, err := service.Save(SavePresetRequest{Name: "  ", Models: sampleModels()}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if _, err := service.Save(SavePresetRequest{Name: "empty"}); err == nil {
		t.Fatalf("expected error for no models")
	}
}

func TestSaveDuplicateNameConflicts(t *testing.T) {
	service := newPresetService(t)

	if _, err := service.Save(SavePresetRequest{Name: "daily drivers", Models: sampleModels()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Name comparison is case-insensitive.
	_, err := service.Save(SavePresetRequest{Name: "Daily Drivers", Models: sampleModels()})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(service.List()) != 1 {
		t.Fatalf("conflicting save must not persist, have %d presets", len(service.List()))
	}
}

func TestUpdateRenameToExistingNameConflicts(t *testing.T) {
	service := newPresetService(t)

	if _, err := service.Save(SavePresetRequest{Name: "first", Models: sampleModels()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := service.Save(SavePresetRequest{Name: "second", Models: sampleModels()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = service.Update(UpdatePresetRequest{ID: second.ID, Name: "FIRST"})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Keeping its own name is not a conflict.
	if _, err := service.Update(UpdatePresetRequest{ID: second.ID, Name: "second", Description: "kept"}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestDeleteUnknownPresetFails(t *testing.T) {
	service := newPresetService(t)

	err := service.Delete("missing")
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	service := newPresetService(t)
	saved, err := service.Save(SavePresetRequest{Name: "original", Models: sampleModels()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	updated, err := service.Update(UpdatePresetRequest{ID: saved.ID, Description: "tweaked"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "original" {
		t.Fatalf("name should be untouched, got %q", updated.Name)
	}
	if updated.Description != "tweaked" {
		t.Fatalf("description not merged: %+v", updated)
	}
	if updated.UpdatedAt == saved.UpdatedAt {
		t.Fatalf("updatedAt should be bumped")
	}
	if updated.CreatedAt != saved.CreatedAt {
		t.Fatalf("createdAt should be untouched")
	}
}

func TestExportImportRoundTripsWithFreshIDs(t *testing.T) {
	service := newPresetService(t)
	saved, err := service.Save(SavePresetRequest{Name: "exported", Models: sampleModels()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := service.Export(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(payload, `"version": 1`) {
		t.Fatalf("export missing version envelope: %s", payload)
	}

	imported, err := service.Import(payload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != 1 {
		t.Fatalf("expected one imported preset, got %d", len(imported))
	}
	if imported[0].ID == saved.ID {
		t.Fatalf("import must assign a fresh id")
	}
	if imported[0].Name != saved.Name || len(imported[0].Models) != len(saved.Models) {
		t.Fatalf("import dropped fields: %+v", imported[0])
	}
	if len(service.List()) != 2 {
		t.Fatalf("expected original plus imported copy")
	}
}

func TestExportFiltersByID(t *testing.T) {
	service := newPresetService(t)
	first, _ := service.Save(SavePresetRequest{Name: "first", Models: sampleModels()})
	if _, err := service.Save(SavePresetRequest{Name: "second", Models: sampleModels()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := service.Export([]string{first.ID})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(payload, "first") || strings.Contains(payload, "second") {
		t.Fatalf("filtered export wrong: %s", payload)
	}
}

func TestImportSkipsMalformedEntries(t *testing.T) {
	service := newPresetService(t)

	payload := `{"version":1,"presets":[
		{"name":"good","models":[{"provider":"anthropic","modelId":"claude-sonnet-4-5"}]},
		{"name":42,"models":[]},
		{"models":[{"provider":"openai","modelId":"gpt-4o"}]},
		{"name":"bad models","models":[{"provider":7,"modelId":"x"}]}
	]}`
	imported, err := service.Import(payload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != 1 || imported[0].Name != "good" {
		t.Fatalf("expected only the valid entry, got %+v", imported)
	}
}

func TestImportFailsWhenNothingValidates(t *testing.T) {
	service := newPresetService(t)

	if _, err := service.Import(`{"presets":[{"name":42}]}`); err == nil {
		t.Fatalf("expected failure when zero entries validate")
	}
	if _, err := service.Import(`not json`); err == nil {
		t.Fatalf("expected failure for unparsable payload")
	}

	var appErr *domain.AppError
	_, err := service.Import(`{"presets":[]}`)
	if !errors.As(err, &appErr) || appErr.Code != domain.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}
