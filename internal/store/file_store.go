package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/deskhub-app/deskhub/internal/domain"
)

// FileBackend stores one document as a JSON file, replaced atomically by
// writing a sibling temp file and renaming it over the target. A crash
// mid-write can therefore never leave a partial file behind.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Load() ([]byte, bool, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, domain.Internal("failed to read data file", err)
	}
	return raw, true, nil
}

func (b *FileBackend) Save(raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return domain.Internal("failed to create data directory", err)
	}
	tempPath := b.path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0o600); err != nil {
		return domain.Internal("failed to write temporary data file", err)
	}
	if err := os.Rename(tempPath, b.path); err != nil {
		return domain.Internal("failed to atomically persist data file", err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}

type fileFactory struct {
	dataDir string
}

func NewFileFactory(dataDir string) Factory {
	return &fileFactory{dataDir: dataDir}
}

func (f *fileFactory) Backend(name string) Backend {
	return NewFileBackend(filepath.Join(f.dataDir, name+".json"))
}

func (f *fileFactory) Close() error {
	return nil
}
