package store

import (
	"fmt"
	"strings"
)

// Backend persists a single named JSON document. The file backend is the
// default; the postgres backend is selected with STORE_DRIVER=postgres.
type Backend interface {
	// Load returns the raw document and whether it exists. A missing
	// document is not an error.
	Load() ([]byte, bool, error)
	Save(raw []byte) error
	Close() error
}

// Factory creates one backend per named concern (model-presets,
// cost-history, icon-themes, snippets, workspaces).
type Factory interface {
	Backend(name string) Backend
	Close() error
}

func NewFactory(driver, dataDir, databaseURL string) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "file":
		return NewFileFactory(dataDir), nil
	case "postgres":
		return NewPostgresFactory(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q; expected file|postgres", driver)
	}
}
