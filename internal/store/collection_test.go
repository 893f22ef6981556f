package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testDoc struct {
	Version int      `json:"version"`
	Items   []string `json:"items"`
}

func (d testDoc) DocVersion() int { return d.Version }

func emptyTestDoc() testDoc {
	return testDoc{Version: 1, Items: []string{}}
}

func newTestCollection(t *testing.T) (*Collection[testDoc], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	return NewCollection(NewFileBackend(path), 1, emptyTestDoc), path
}

func TestReadMissingFileReturnsEmptyDefault(t *testing.T) {
	collection, _ := newTestCollection(t)
	doc := collection.Read()
	if doc.Version != 1 || len(doc.Items) != 0 {
		t.Fatalf("unexpected default: %+v", doc)
	}
}

func TestMutateRoundTrips(t *testing.T) {
	collection, path := newTestCollection(t)
	if err := collection.Mutate(func(doc *testDoc) error {
		doc.Items = append(doc.Items, "alpha", "beta")
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}

	doc := collection.Read()
	if len(doc.Items) != 2 || doc.Items[1] != "beta" {
		t.Fatalf("unexpected items: %v", doc.Items)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(raw), "\"version\": 1") {
		t.Fatalf("file missing version tag: %s", raw)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind")
	}
}

func TestUnparsableFileReturnsEmptyDefault(t *testing.T) {
	collection, path := newTestCollection(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc := collection.Read()
	if doc.Version != 1 || len(doc.Items) != 0 {
		t.Fatalf("expected empty default, got %+v", doc)
	}
}

func TestVersionMismatchReturnsEmptyDefault(t *testing.T) {
	collection, path := newTestCollection(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"version":7,"items":["stale"]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc := collection.Read()
	if len(doc.Items) != 0 {
		t.Fatalf("expected mismatched version to reset, got %v", doc.Items)
	}
}

func TestMutateErrorDoesNotPersist(t *testing.T) {
	collection, path := newTestCollection(t)
	wantErr := errors.New("nope")
	if err := collection.Mutate(func(doc *testDoc) error {
		doc.Items = append(doc.Items, "never")
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected mutate error, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file should not exist after aborted mutate")
	}
}
