package service

import (
	"slices"
	"strings"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

// WorkspaceService tracks pinned workspace paths and reusable workspace
// templates in one document.
type WorkspaceService struct {
	workspaces *store.Collection[WorkspaceFile]
}

func NewWorkspaceService(backend store.Backend) *WorkspaceService {
	return &WorkspaceService{
		workspaces: store.NewCollection(backend, workspaceFileVersion, emptyWorkspaceFile),
	}
}

type AddFavoriteRequest struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

type SaveTemplateRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Settings    map[string]any `json:"settings"`
}

func (s *WorkspaceService) ListFavorites() []domain.WorkspaceFavorite {
	items := s.workspaces.Read().Favorites
	slices.SortFunc(items, func(a, b domain.WorkspaceFavorite) int {
		return strings.Compare(b.PinnedAt, a.PinnedAt)
	})
	return items
}

// AddFavorite pins a path. Re-pinning an existing path updates its label and
// refreshes the pin time instead of duplicating the entry.
func (s *WorkspaceService) AddFavorite(request AddFavoriteRequest) (domain.WorkspaceFavorite, error) {
	path := strings.TrimSpace(request.Path)
	if path == "" {
		return domain.WorkspaceFavorite{}, domain.InvalidArgument("path is required")
	}

	favorite := domain.WorkspaceFavorite{
		Path:     path,
		Label:    strings.TrimSpace(request.Label),
		PinnedAt: timeNow(),
	}

	if err := s.workspaces.Mutate(func(file *WorkspaceFile) error {
		for index := range file.Favorites {
			if file.Favorites[index].Path == path {
				file.Favorites[index] = favorite
				return nil
			}
		}
		file.Favorites = append(file.Favorites, favorite)
		return nil
	}); err != nil {
		return domain.WorkspaceFavorite{}, err
	}
	return favorite, nil
}

func (s *WorkspaceService) RemoveFavorite(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.InvalidArgument("path is required")
	}
	return s.workspaces.Mutate(func(file *WorkspaceFile) error {
		for index, favorite := range file.Favorites {
			if favorite.Path != path {
				continue
			}
			file.Favorites = slices.Delete(file.Favorites, index, index+1)
			return nil
		}
		return domain.NotFound("favorite not found")
	})
}

func (s *WorkspaceService) ListTemplates() []domain.WorkspaceTemplate {
	items := s.workspaces.Read().Templates
	slices.SortFunc(items, func(a, b domain.WorkspaceTemplate) int {
		if a.UpdatedAt == b.UpdatedAt {
			return strings.Compare(b.ID, a.ID)
		}
		return strings.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	return items
}

func (s *WorkspaceService) GetTemplate(id string) (domain.WorkspaceTemplate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.WorkspaceTemplate{}, domain.InvalidArgument("id is required")
	}
	for _, template := range s.workspaces.Read().Templates {
		if template.ID == id {
			return template, nil
		}
	}
	return domain.WorkspaceTemplate{}, domain.NotFound("template not found")
}

func (s *WorkspaceService) SaveTemplate(request SaveTemplateRequest) (domain.WorkspaceTemplate, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return domain.WorkspaceTemplate{}, domain.InvalidArgument("name is required")
	}

	now := timeNow()
	template := domain.WorkspaceTemplate{
		ID:          newID(),
		Name:        name,
		Description: strings.TrimSpace(request.Description),
		Settings:    request.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.workspaces.Mutate(func(file *WorkspaceFile) error {
		file.Templates = append(file.Templates, template)
		return nil
	}); err != nil {
		return domain.WorkspaceTemplate{}, err
	}
	return template, nil
}

type UpdateTemplateRequest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Settings    map[string]any `json:"settings"`
}

// UpdateTemplate merges non-empty fields into an existing template and bumps
// its update time. A nil Settings map leaves the stored settings untouched.
func (s *WorkspaceService) UpdateTemplate(request UpdateTemplateRequest) (domain.WorkspaceTemplate, error) {
	id := strings.TrimSpace(request.ID)
	if id == "" {
		return domain.WorkspaceTemplate{}, domain.InvalidArgument("id is required")
	}

	var updated domain.WorkspaceTemplate
	if err := s.workspaces.Mutate(func(file *WorkspaceFile) error {
		for index := range file.Templates {
			if file.Templates[index].ID != id {
				continue
			}
			template := &file.Templates[index]
			if name := strings.TrimSpace(request.Name); name != "" {
				template.Name = name
			}
			if description := strings.TrimSpace(request.Description); description != "" {
				template.Description = description
			}
			if request.Settings != nil {
				template.Settings = request.Settings
			}
			template.UpdatedAt = timeNow()
			updated = *template
			return nil
		}
		return domain.NotFound("template not found")
	}); err != nil {
		return domain.WorkspaceTemplate{}, err
	}
	return updated, nil
}

func (s *WorkspaceService) DeleteTemplate(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InvalidArgument("id is required")
	}
	return s.workspaces.Mutate(func(file *WorkspaceFile) error {
		for index, template := range file.Templates {
			if template.ID != id {
				continue
			}
			file.Templates = slices.Delete(file.Templates, index, index+1)
			return nil
		}
		return domain.NotFound("template not found")
	})
}
