package providers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripCommentsPreservesStrings(t *testing.T) {
	input := []byte(`{
  // line comment
  "anthropic": {"apiKey": "sk-a//b/*c*/"}, /* block
  comment */ "openai": {"apiKey": "sk-o"}
}`)
	stripped := stripComments(input)
	if string(stripped) == string(input) {
		t.Fatalf("expected comments to be removed")
	}

	path := filepath.Join(t.TempDir(), "providers.jsonc")
	if err := os.WriteFile(path, input, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, found := Load(path)
	if !found {
		t.Fatalf("expected config to be found")
	}
	if cfg["anthropic"].APIKey != "sk-a//b/*c*/" {
		t.Fatalf("string contents mangled: %q", cfg["anthropic"].APIKey)
	}
	if cfg["openai"].APIKey != "sk-o" {
		t.Fatalf("missing openai section: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, found := Load(filepath.Join(t.TempDir(), "absent.jsonc"))
	if found {
		t.Fatalf("expected found=false for missing file")
	}
	if len(cfg) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadMalformedFileDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.jsonc")
	if err := os.WriteFile(path, []byte("{oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, found := Load(path)
	if found {
		t.Fatalf("expected found=false for malformed file")
	}
	if len(cfg) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}
