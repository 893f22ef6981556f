package service

import (
	"slices"
	"strings"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

type SnippetService struct {
	snippets *store.Collection[SnippetFile]
}

func NewSnippetService(backend store.Backend) *SnippetService {
	return &SnippetService{
		snippets: store.NewCollection(backend, snippetFileVersion, emptySnippetFile),
	}
}

type SaveSnippetRequest struct {
	Title    string   `json:"title"`
	Language string   `json:"language"`
	Code     string   `json:"code"`
	Tags     []string `json:"tags"`
}

type UpdateSnippetRequest struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Language string   `json:"language"`
	Code     string   `json:"code"`
	Tags     []string `json:"tags"`
}

// List returns snippets most recently updated first. An optional tag narrows
// the result; matching is case-insensitive.
func (s *SnippetService) List(tag string) []domain.Snippet {
	items := s.snippets.Read().Snippets

	if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
		filtered := make([]domain.Snippet, 0, len(items))
		for _, snippet := range items {
			if slices.Contains(snippet.Tags, tag) {
				filtered = append(filtered, snippet)
			}
		}
		items = filtered
	}

	slices.SortFunc(items, func(a, b domain.Snippet) int {
		if a.UpdatedAt == b.UpdatedAt {
			return strings.Compare(b.ID, a.ID)
		}
		return strings.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	return items
}

func (s *SnippetService) Get(id string) (domain.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Snippet{}, domain.InvalidArgument("id is required")
	}
	for _, snippet := range s.snippets.Read().Snippets {
		if snippet.ID == id {
			return snippet, nil
		}
	}
	return domain.Snippet{}, domain.NotFound("snippet not found")
}

func (s *SnippetService) Save(request SaveSnippetRequest) (domain.Snippet, error) {
	title := strings.TrimSpace(request.Title)
	if title == "" {
		return domain.Snippet{}, domain.InvalidArgument("title is required")
	}
	if request.Code == "" {
		return domain.Snippet{}, domain.InvalidArgument("code is required")
	}

	now := timeNow()
	snippet := domain.Snippet{
		ID:        newID(),
		Title:     title,
		Language:  strings.ToLower(strings.TrimSpace(request.Language)),
		Code:      request.Code,
		Tags:      normalizeTags(request.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.snippets.Mutate(func(file *SnippetFile) error {
		file.Snippets = append(file.Snippets, snippet)
		return nil
	}); err != nil {
		return domain.Snippet{}, err
	}
	return snippet, nil
}

func (s *SnippetService) Update(request UpdateSnippetRequest) (domain.Snippet, error) {
	id := strings.TrimSpace(request.ID)
	if id == "" {
		return domain.Snippet{}, domain.InvalidArgument("id is required")
	}

	var updated domain.Snippet
	err := s.snippets.Mutate(func(file *SnippetFile) error {
		for index := range file.Snippets {
			if file.Snippets[index].ID != id {
				continue
			}
			if title := strings.TrimSpace(request.Title); title != "" {
				file.Snippets[index].Title = title
			}
			if request.Language != "" {
				file.Snippets[index].Language = strings.ToLower(strings.TrimSpace(request.Language))
			}
			if request.Code != "" {
				file.Snippets[index].Code = request.Code
			}
			if request.Tags != nil {
				file.Snippets[index].Tags = normalizeTags(request.Tags)
			}
			file.Snippets[index].UpdatedAt = timeNow()
			updated = file.Snippets[index]
			return nil
		}
		return domain.NotFound("snippet not found")
	})
	if err != nil {
		return domain.Snippet{}, err
	}
	return updated, nil
}

func (s *SnippetService) Delete(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InvalidArgument("id is required")
	}
	return s.snippets.Mutate(func(file *SnippetFile) error {
		for index, snippet := range file.Snippets {
			if snippet.ID != id {
				continue
			}
			file.Snippets = slices.Delete(file.Snippets, index, index+1)
			return nil
		}
		return domain.NotFound("snippet not found")
	})
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}
