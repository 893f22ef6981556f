package service

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

// PresetService manages named model-configuration snapshots backed by a
// single versioned document.
type PresetService struct {
	presets *store.Collection[PresetFile]
}

func NewPresetService(backend store.Backend) *PresetService {
	return &PresetService{
		presets: store.NewCollection(backend, presetFileVersion, emptyPresetFile),
	}
}

type SavePresetRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Models      []domain.ModelEntry `json:"models"`
}

type UpdatePresetRequest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Models      []domain.ModelEntry `json:"models"`
}

// ExportedPresets is the interchange envelope for export/import.
type ExportedPresets struct {
	Version int             `json:"version"`
	Presets []domain.Preset `json:"presets"`
}

func (s *PresetService) List() []domain.Preset {
	return s.presets.Read().Presets
}

func (s *PresetService) Get(id string) (domain.Preset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Preset{}, domain.InvalidArgument("id is required")
	}
	for _, preset := range s.presets.Read().Presets {
		if preset.ID == id {
			return preset, nil
		}
	}
	return domain.Preset{}, domain.NotFound("preset not found")
}

func (s *PresetService) Save(request SavePresetRequest) (domain.Preset, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return domain.Preset{}, domain.InvalidArgument("name is required")
	}
	if len(request.Models) == 0 {
		return domain.Preset{}, domain.InvalidArgument("at least one model is required")
	}

	now := timeNow()
	preset := domain.Preset{
		ID:          newID(),
		Name:        name,
		Description: strings.TrimSpace(request.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
		Models:      request.Models,
	}

	if err := s.presets.Mutate(func(file *PresetFile) error {
		for _, existing := range file.Presets {
			if strings.EqualFold(existing.Name, name) {
				return domain.Conflict("a preset with this name already exists")
			}
		}
		file.Presets = append(file.Presets, preset)
		return nil
	}); err != nil {
		return domain.Preset{}, err
	}
	return preset, nil
}

func (s *PresetService) Update(request UpdatePresetRequest) (domain.Preset, error) {
	id := strings.TrimSpace(request.ID)
	if id == "" {
		return domain.Preset{}, domain.InvalidArgument("id is required")
	}

	var updated domain.Preset
	err := s.presets.Mutate(func(file *PresetFile) error {
		for index := range file.Presets {
			if file.Presets[index].ID != id {
				continue
			}
			if name := strings.TrimSpace(request.Name); name != "" {
				for _, existing := range file.Presets {
					if existing.ID != id && strings.EqualFold(existing.Name, name) {
						return domain.Conflict("a preset with this name already exists")
					}
				}
				file.Presets[index].Name = name
			}
			if request.Description != "" {
				file.Presets[index].Description = strings.TrimSpace(request.Description)
			}
			if request.Models != nil {
				file.Presets[index].Models = request.Models
			}
			file.Presets[index].UpdatedAt = timeNow()
			updated = file.Presets[index]
			return nil
		}
		return domain.NotFound("preset not found")
	})
	if err != nil {
		return domain.Preset{}, err
	}
	return updated, nil
}

func (s *PresetService) Delete(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InvalidArgument("id is required")
	}
	return s.presets.Mutate(func(file *PresetFile) error {
		for index, preset := range file.Presets {
			if preset.ID != id {
				continue
			}
			file.Presets = slices.Delete(file.Presets, index, index+1)
			return nil
		}
		return domain.NotFound("preset not found")
	})
}

// Export serializes either the presets matching ids, or all presets when ids
// is empty, into the version-1 interchange envelope.
func (s *PresetService) Export(ids []string) (string, error) {
	all := s.presets.Read().Presets

	selected := all
	if len(ids) > 0 {
		wanted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			wanted[strings.TrimSpace(id)] = struct{}{}
		}
		selected = make([]domain.Preset, 0, len(ids))
		for _, preset := range all {
			if _, ok := wanted[preset.ID]; ok {
				selected = append(selected, preset)
			}
		}
	}

	raw, err := json.MarshalIndent(ExportedPresets{Version: 1, Presets: selected}, "", "  ")
	if err != nil {
		return "", domain.Internal("failed to serialize presets", err)
	}
	return string(raw), nil
}

// Import parses an exported envelope, validates each entry, and appends the
// valid ones under freshly generated ids. Malformed entries are skipped; the
// call fails only when nothing validates.
func (s *PresetService) Import(raw string) ([]domain.Preset, error) {
	var payload struct {
		Presets []json.RawMessage `json:"presets"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, domain.InvalidArgument("import payload is not valid JSON")
	}

	now := timeNow()
	imported := make([]domain.Preset, 0, len(payload.Presets))
	for _, rawPreset := range payload.Presets {
		preset, ok := parseImportedPreset(rawPreset)
		if !ok {
			continue
		}
		preset.ID = newID()
		preset.CreatedAt = now
		preset.UpdatedAt = now
		imported = append(imported, preset)
	}
	if len(imported) == 0 {
		return nil, domain.InvalidArgument("no valid presets in import payload")
	}

	if err := s.presets.Mutate(func(file *PresetFile) error {
		file.Presets = append(file.Presets, imported...)
		return nil
	}); err != nil {
		return nil, err
	}
	return imported, nil
}

// parseImportedPreset accepts an entry only when it has a string name and an
// array of models whose provider and modelId are strings.
func parseImportedPreset(raw json.RawMessage) (domain.Preset, bool) {
	var loose struct {
		Name        any   `json:"name"`
		Description any   `json:"description"`
		Models      []any `json:"models"`
	}
	if err := json.Unmarshal(raw, &loose); err != nil {
		return domain.Preset{}, false
	}

	name, ok := loose.Name.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return domain.Preset{}, false
	}
	if loose.Models == nil {
		return domain.Preset{}, false
	}

	models := make([]domain.ModelEntry, 0, len(loose.Models))
	for _, rawModel := range loose.Models {
		entry, ok := rawModel.(map[string]any)
		if !ok {
			return domain.Preset{}, false
		}
		provider, ok := entry["provider"].(string)
		if !ok {
			return domain.Preset{}, false
		}
		modelID, ok := entry["modelId"].(string)
		if !ok {
			return domain.Preset{}, false
		}
		model := domain.ModelEntry{Provider: provider, ModelID: modelID}
		if metadata, ok := entry["metadata"].(map[string]any); ok {
			model.Metadata = metadata
		}
		models = append(models, model)
	}

	preset := domain.Preset{Name: strings.TrimSpace(name), Models: models}
	if description, ok := loose.Description.(string); ok {
		preset.Description = strings.TrimSpace(description)
	}
	return preset, true
}
