package registry

import "testing"

func TestNormalizeProviderAliases(t *testing.T) {
	cases := map[string]string{
		"Anthropic":   "anthropic",
		"claude":      "anthropic",
		"claude-code": "anthropic",
		"gemini":      "google",
		" OpenAI ":    "openai",
		"mystery":     "mystery",
	}
	for input, want := range cases {
		if got := NormalizeProvider(input); got != want {
			t.Errorf("NormalizeProvider(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLookupProvider(t *testing.T) {
	provider, ok := LookupProvider("claude")
	if !ok || provider.Name != "anthropic" {
		t.Fatalf("expected claude to resolve to anthropic, got %+v ok=%v", provider, ok)
	}
	if provider.RequiredCredential != "apiKey" {
		t.Fatalf("anthropic should require an apiKey")
	}

	ollama, ok := LookupProvider("ollama")
	if !ok || ollama.RequiredCredential != "" {
		t.Fatalf("ollama should need no credential, got %+v", ollama)
	}

	if _, ok := LookupProvider("mystery"); ok {
		t.Fatalf("unknown provider should not resolve")
	}
}

func TestNormalizeModelIDStripsDateSuffix(t *testing.T) {
	cases := map[string]string{
		"claude-sonnet-4-5-20250929": "claude-sonnet-4-5",
		"claude-sonnet-4-20250514":   "claude-sonnet-4",
		"claude-sonnet-4-5":          "claude-sonnet-4-5",
		"totally-custom-20250101":    "totally-custom-20250101",
		"gpt-4o":                     "gpt-4o",
	}
	for input, want := range cases {
		if got := NormalizeModelID(input); got != want {
			t.Errorf("NormalizeModelID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLookupModelByAlias(t *testing.T) {
	info, ok := LookupModel("llama3.3:70b")
	if !ok || info.ID != "llama-3.3-70b" {
		t.Fatalf("alias lookup failed: %+v ok=%v", info, ok)
	}
	if _, ok := LookupModel("my-fine-tune"); ok {
		t.Fatalf("custom model should not be in the registry")
	}
}
