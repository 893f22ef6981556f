package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/deskhub-app/deskhub/internal/domain"
)

// Document version tags. Readers reset to the empty default on mismatch, so
// bumping one of these abandons old on-disk data for that concern.
const (
	presetFileVersion    = 1
	costFileVersion      = 1
	snippetFileVersion   = 1
	workspaceFileVersion = 1
)

type PresetFile struct {
	Version int             `json:"version"`
	Presets []domain.Preset `json:"presets"`
}

func (f PresetFile) DocVersion() int { return f.Version }

func emptyPresetFile() PresetFile {
	return PresetFile{Version: presetFileVersion, Presets: []domain.Preset{}}
}

type CostFile struct {
	Version        int                            `json:"version"`
	Entries        []domain.CostEntry             `json:"entries"`
	DailySummaries map[string]domain.DailySummary `json:"dailySummaries"`
}

func (f CostFile) DocVersion() int { return f.Version }

func emptyCostFile() CostFile {
	return CostFile{
		Version:        costFileVersion,
		Entries:        []domain.CostEntry{},
		DailySummaries: map[string]domain.DailySummary{},
	}
}

type SnippetFile struct {
	Version  int              `json:"version"`
	Snippets []domain.Snippet `json:"snippets"`
}

func (f SnippetFile) DocVersion() int { return f.Version }

func emptySnippetFile() SnippetFile {
	return SnippetFile{Version: snippetFileVersion, Snippets: []domain.Snippet{}}
}

type WorkspaceFile struct {
	Version   int                        `json:"version"`
	Favorites []domain.WorkspaceFavorite `json:"favorites"`
	Templates []domain.WorkspaceTemplate `json:"templates"`
}

func (f WorkspaceFile) DocVersion() int { return f.Version }

func emptyWorkspaceFile() WorkspaceFile {
	return WorkspaceFile{
		Version:   workspaceFileVersion,
		Favorites: []domain.WorkspaceFavorite{},
		Templates: []domain.WorkspaceTemplate{},
	}
}

func timeNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func newID() string {
	return uuid.NewString()
}
