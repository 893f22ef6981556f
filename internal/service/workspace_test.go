package service

import (
	"path/filepath"
	"testing"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

func newWorkspaceService(t *testing.T) *WorkspaceService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspaces.json")
	return NewWorkspaceService(store.NewFileBackend(path))
}

func TestFavoriteAddIsIdempotentPerPath(t *testing.T) {
	service := newWorkspaceService(t)

	first, err := service.AddFavorite(AddFavoriteRequest{Path: "/home/dev/project", Label: "project"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := service.AddFavorite(AddFavoriteRequest{Path: "/home/dev/project", Label: "renamed"})
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}

	favorites := service.ListFavorites()
	if len(favorites) != 1 {
		t.Fatalf("re-pinning duplicated the entry: %+v", favorites)
	}
	if favorites[0].Label != "renamed" {
		t.Fatalf("label not updated: %+v", favorites[0])
	}
	if second.PinnedAt < first.PinnedAt {
		t.Fatalf("pin time went backwards")
	}
}

func TestRemoveFavorite(t *testing.T) {
	service := newWorkspaceService(t)

	if _, err := service.AddFavorite(AddFavoriteRequest{Path: "/a"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := service.RemoveFavorite("/a"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	err := service.RemoveFavorite("/a")
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeNotFound {
		t.Fatalf("expected not_found on double remove, got %v", err)
	}
}

func TestTemplateLifecycle(t *testing.T) {
	service := newWorkspaceService(t)

	saved, err := service.SaveTemplate(SaveTemplateRequest{
		Name:     "python ml",
		Settings: map[string]any{"interpreter": "python3.12"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := service.GetTemplate(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Settings["interpreter"] != "python3.12" {
		t.Fatalf("settings lost: %+v", got)
	}

	updated, err := service.UpdateTemplate(UpdateTemplateRequest{ID: saved.ID, Name: "python ml v2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "python ml v2" {
		t.Fatalf("name not updated: %+v", updated)
	}
	if updated.Settings["interpreter"] != "python3.12" {
		t.Fatalf("settings should survive a partial update: %+v", updated)
	}
	if updated.CreatedAt != saved.CreatedAt {
		t.Fatalf("createdAt must not change on update")
	}

	if err := service.DeleteTemplate(saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.GetTemplate(saved.ID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}
