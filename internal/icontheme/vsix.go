package icontheme

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/deskhub-app/deskhub/internal/domain"
)

// extensionManifest is the slice of a VS Code extension's package.json that
// theme import cares about.
type extensionManifest struct {
	Name        string `json:"name"`
	Publisher   string `json:"publisher"`
	Contributes struct {
		IconThemes []contributedTheme `json:"iconThemes"`
	} `json:"contributes"`
}

type contributedTheme struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

const maxExtractedFileSize = 32 << 20

// openVsix decodes the base64 payload into an in-memory zip reader.
func openVsix(encoded string) (*zip.Reader, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, domain.InvalidArgument("vsix payload is not valid base64")
	}
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		// Entries with traversal names surface as ErrInsecurePath; the
		// reader is still usable and extraction guards each entry itself.
		if !errors.Is(err, zip.ErrInsecurePath) || reader == nil {
			return nil, domain.InvalidArgument("vsix payload is not a valid zip archive")
		}
	}
	return reader, nil
}

// findManifest locates the extension manifest inside the archive and returns
// it together with the archive prefix the extension's files live under.
func findManifest(reader *zip.Reader) (extensionManifest, string, error) {
	var manifest extensionManifest
	for _, candidate := range []string{"extension/package.json", "package.json"} {
		file := findEntry(reader, candidate)
		if file == nil {
			continue
		}
		raw, err := readEntry(file)
		if err != nil {
			return manifest, "", err
		}
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return manifest, "", domain.InvalidArgument("extension manifest is not valid JSON")
		}
		prefix := strings.TrimSuffix(candidate, "package.json")
		return manifest, prefix, nil
	}
	return manifest, "", domain.InvalidArgument("no package.json found in archive")
}

func findEntry(reader *zip.Reader, name string) *zip.File {
	for _, file := range reader.File {
		if file.Name == name {
			return file
		}
	}
	return nil
}

func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, domain.Internal("failed to open archive entry", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxExtractedFileSize))
	if err != nil {
		return nil, domain.Internal("failed to read archive entry", err)
	}
	return raw, nil
}

// extractTheme writes every archive entry under prefix into destDir. Entries
// whose resolved path would escape destDir are skipped with a warning, never
// written. Returns the number of files written.
func extractTheme(reader *zip.Reader, prefix, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, domain.Internal("failed to create theme directory", err)
	}

	written := 0
	for _, file := range reader.File {
		if !strings.HasPrefix(file.Name, prefix) {
			continue
		}
		relative := strings.TrimPrefix(file.Name, prefix)
		if relative == "" || strings.HasSuffix(file.Name, "/") {
			continue
		}

		target, ok := resolveWithin(destDir, relative)
		if !ok {
			log.WithField("entry", file.Name).Warn("skipping archive entry outside theme directory")
			continue
		}

		raw, err := readEntry(file)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, domain.Internal("failed to create theme subdirectory", err)
		}
		if err := os.WriteFile(target, raw, 0o644); err != nil {
			return written, domain.Internal("failed to write theme file", err)
		}
		written++
	}
	return written, nil
}

// resolveWithin joins relative onto root and reports whether the result stays
// inside root. This is the traversal guard used by both import and icon-file
// lookup.
func resolveWithin(root, relative string) (string, bool) {
	cleaned := path.Clean(strings.ReplaceAll(relative, "\\", "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", false
	}
	target := filepath.Join(root, filepath.FromSlash(cleaned))

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	if targetAbs != rootAbs && !strings.HasPrefix(targetAbs, rootAbs+string(filepath.Separator)) {
		return "", false
	}
	return targetAbs, true
}

// themeID derives the stable identifier a contributed theme is registered
// under. The same extension re-imported maps onto the same id.
func themeID(manifest extensionManifest, contributed contributedTheme) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{manifest.Publisher, manifest.Name, contributed.ID} {
		part = sanitizeIDPart(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".")
}

func sanitizeIDPart(part string) string {
	part = strings.ToLower(strings.TrimSpace(part))
	var b strings.Builder
	for _, r := range part {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func themeImportError(label string, err error) string {
	if label == "" {
		label = "(unnamed theme)"
	}
	return fmt.Sprintf("%s: %v", label, err)
}
