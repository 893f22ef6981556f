package icontheme

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

// BuiltinThemeID is the synthetic default theme. It has no on-disk directory
// and can never be deleted or replaced.
const BuiltinThemeID = "deskhub.default"

const themeFileVersion = 1

type ThemeFile struct {
	Version     int                `json:"version"`
	ActiveTheme string             `json:"activeTheme"`
	Themes      []domain.IconTheme `json:"themes"`
}

func (f ThemeFile) DocVersion() int { return f.Version }

func emptyThemeFile() ThemeFile {
	return ThemeFile{Version: themeFileVersion, ActiveTheme: BuiltinThemeID, Themes: []domain.IconTheme{}}
}

// Service manages imported VSIX icon themes. Extracted themes live under
// themesDir, one directory per theme id; registration state lives in a
// versioned document.
type Service struct {
	themesDir string
	themes    *store.Collection[ThemeFile]
}

func NewService(backend store.Backend, themesDir string) *Service {
	return &Service{
		themesDir: themesDir,
		themes:    store.NewCollection(backend, themeFileVersion, emptyThemeFile),
	}
}

// ImportResult reports the outcome of one importVsix call. Partial success is
// normal: some contributed themes may import while others fail.
type ImportResult struct {
	ImportedIDs []string `json:"importedIds"`
	Errors      []string `json:"errors"`
}

func builtinTheme() domain.IconTheme {
	return domain.IconTheme{
		ID:        BuiltinThemeID,
		Label:     "Default",
		IsBuiltin: true,
	}
}

// List returns the synthetic built-in theme followed by every imported theme.
func (s *Service) List() []domain.IconTheme {
	file := s.themes.Read()
	out := make([]domain.IconTheme, 0, len(file.Themes)+1)
	out = append(out, builtinTheme())
	out = append(out, file.Themes...)
	return out
}

func (s *Service) ActiveTheme() string {
	active := s.themes.Read().ActiveTheme
	if active == "" {
		return BuiltinThemeID
	}
	return active
}

// SetActive selects a theme by id. The id must be the built-in theme or a
// registered import.
func (s *Service) SetActive(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InvalidArgument("id is required")
	}
	return s.themes.Mutate(func(file *ThemeFile) error {
		if id != BuiltinThemeID && findTheme(file.Themes, id) == -1 {
			return domain.NotFound("theme not found")
		}
		file.ActiveTheme = id
		return nil
	})
}

// ImportVsix decodes a base64 VSIX archive and imports every icon theme it
// contributes. Each theme gets its own directory; a re-import of the same
// extension replaces the previous registration.
func (s *Service) ImportVsix(encoded string) (ImportResult, error) {
	result := ImportResult{ImportedIDs: []string{}, Errors: []string{}}

	reader, err := openVsix(encoded)
	if err != nil {
		return result, err
	}
	manifest, prefix, err := findManifest(reader)
	if err != nil {
		return result, err
	}
	if len(manifest.Contributes.IconThemes) == 0 {
		return result, domain.InvalidArgument("extension contributes no icon themes")
	}

	for _, contributed := range manifest.Contributes.IconThemes {
		id := themeID(manifest, contributed)
		if id == "" {
			result.Errors = append(result.Errors, themeImportError(contributed.Label, fmt.Errorf("cannot derive a theme id")))
			continue
		}
		if id == BuiltinThemeID {
			result.Errors = append(result.Errors, themeImportError(contributed.Label, fmt.Errorf("id collides with the built-in theme")))
			continue
		}

		theme, err := s.importOne(reader, prefix, manifest, contributed, id)
		if err != nil {
			result.Errors = append(result.Errors, themeImportError(contributed.Label, err))
			continue
		}

		if err := s.themes.Mutate(func(file *ThemeFile) error {
			if existing := findTheme(file.Themes, id); existing != -1 {
				file.Themes[existing] = theme
				return nil
			}
			file.Themes = append(file.Themes, theme)
			return nil
		}); err != nil {
			result.Errors = append(result.Errors, themeImportError(contributed.Label, err))
			continue
		}
		result.ImportedIDs = append(result.ImportedIDs, id)
	}
	return result, nil
}

func (s *Service) importOne(reader *zip.Reader, prefix string, manifest extensionManifest, contributed contributedTheme, id string) (domain.IconTheme, error) {
	themeDir := filepath.Join(s.themesDir, id)

	// A re-import starts from a clean directory.
	if err := os.RemoveAll(themeDir); err != nil {
		return domain.IconTheme{}, domain.Internal("failed to clear previous theme directory", err)
	}
	if _, err := extractTheme(reader, prefix, themeDir); err != nil {
		return domain.IconTheme{}, err
	}

	manifestRelative := strings.TrimPrefix(strings.ReplaceAll(contributed.Path, "\\", "/"), "./")
	manifestPath, ok := resolveWithin(themeDir, manifestRelative)
	if !ok {
		return domain.IconTheme{}, domain.InvalidArgument("theme manifest path escapes the theme directory")
	}
	if _, err := os.Stat(manifestPath); err != nil {
		return domain.IconTheme{}, domain.InvalidArgument("theme manifest missing after extraction")
	}

	label := strings.TrimSpace(contributed.Label)
	if label == "" {
		label = id
	}
	return domain.IconTheme{
		ID:            id,
		Label:         label,
		ThemeDir:      themeDir,
		ThemeJSONPath: manifestRelative,
		Publisher:     manifest.Publisher,
		Extension:     manifest.Name,
		InstalledAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Delete removes an imported theme. The built-in theme is refused; deleting
// the active theme falls back to the built-in. Directory removal is best
// effort and never rolls back the registration change.
func (s *Service) Delete(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InvalidArgument("id is required")
	}
	if id == BuiltinThemeID {
		return domain.InvalidArgument("the built-in theme cannot be deleted")
	}

	var themeDir string
	err := s.themes.Mutate(func(file *ThemeFile) error {
		index := findTheme(file.Themes, id)
		if index == -1 {
			return domain.NotFound("theme not found")
		}
		themeDir = file.Themes[index].ThemeDir
		file.Themes = append(file.Themes[:index], file.Themes[index+1:]...)
		if file.ActiveTheme == id {
			file.ActiveTheme = BuiltinThemeID
		}
		return nil
	})
	if err != nil {
		return err
	}

	if themeDir != "" {
		if err := os.RemoveAll(themeDir); err != nil {
			log.WithError(err).WithField("theme", id).Warn("failed to remove theme directory")
		}
	}
	return nil
}

// IconFile resolves an icon path inside a theme's directory. Paths that
// escape the directory resolve to nothing, same as an unknown theme.
func (s *Service) IconFile(themeID, iconPath string) (string, bool) {
	file := s.themes.Read()
	index := findTheme(file.Themes, strings.TrimSpace(themeID))
	if index == -1 {
		return "", false
	}

	resolved, ok := resolveWithin(file.Themes[index].ThemeDir, iconPath)
	if !ok {
		log.WithField("path", iconPath).Warn("rejected icon path outside theme directory")
		return "", false
	}
	if _, err := os.Stat(resolved); err != nil {
		return "", false
	}
	return resolved, true
}

func findTheme(themes []domain.IconTheme, id string) int {
	for index := range themes {
		if themes[index].ID == id {
			return index
		}
	}
	return -1
}
