package registry

import "strings"

// Provider describes a provider the application ships built-in knowledge
// about. RequiredCredential names the providers.jsonc field that must be
// present for authentication to pass; empty means no credential is needed.
type Provider struct {
	Name               string
	RequiredCredential string
}

var knownProviders = map[string]Provider{
	"anthropic":  {Name: "anthropic", RequiredCredential: "apiKey"},
	"openai":     {Name: "openai", RequiredCredential: "apiKey"},
	"google":     {Name: "google", RequiredCredential: "apiKey"},
	"openrouter": {Name: "openrouter", RequiredCredential: "apiKey"},
	"ollama":     {Name: "ollama"},
}

var providerAliases = map[string]string{
	"claude":      "anthropic",
	"claude-code": "anthropic",
	"gemini":      "google",
}

// NormalizeProvider lowercases, trims, and resolves provider aliases.
func NormalizeProvider(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := providerAliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

func LookupProvider(name string) (Provider, bool) {
	provider, ok := knownProviders[NormalizeProvider(name)]
	return provider, ok
}

// ModelInfo is one entry of the built-in model registry.
type ModelInfo struct {
	ID          string
	Provider    string
	Aliases     []string
	InputLimit  int64
	OutputLimit int64
}

var builtinModels = []ModelInfo{
	{ID: "claude-opus-4-1", Provider: "anthropic", InputLimit: 200000, OutputLimit: 32000},
	{ID: "claude-sonnet-4-5", Provider: "anthropic", Aliases: []string{"claude-sonnet-4-5-20250929"}, InputLimit: 200000, OutputLimit: 64000},
	{ID: "claude-sonnet-4", Provider: "anthropic", Aliases: []string{"claude-sonnet-4-20250514"}, InputLimit: 200000, OutputLimit: 64000},
	{ID: "claude-haiku-4-5", Provider: "anthropic", InputLimit: 200000, OutputLimit: 64000},
	{ID: "claude-haiku-3-5", Provider: "anthropic", Aliases: []string{"claude-3-5-haiku-latest"}, InputLimit: 200000, OutputLimit: 8192},
	{ID: "gpt-4o", Provider: "openai", Aliases: []string{"gpt-4o-2024-11-20"}, InputLimit: 128000, OutputLimit: 16384},
	{ID: "gpt-4o-mini", Provider: "openai", InputLimit: 128000, OutputLimit: 16384},
	{ID: "gpt-4.1", Provider: "openai", InputLimit: 1047576, OutputLimit: 32768},
	{ID: "o3-mini", Provider: "openai", InputLimit: 200000, OutputLimit: 100000},
	{ID: "gemini-2.0-flash", Provider: "google", Aliases: []string{"gemini-2.0-flash-001"}, InputLimit: 1048576, OutputLimit: 8192},
	{ID: "gemini-1.5-pro", Provider: "google", InputLimit: 2097152, OutputLimit: 8192},
	{ID: "llama-3.3-70b", Provider: "ollama", Aliases: []string{"llama3.3", "llama3.3:70b"}, InputLimit: 131072, OutputLimit: 8192},
}

var modelIndex = buildModelIndex(builtinModels)

func buildModelIndex(models []ModelInfo) map[string]ModelInfo {
	index := make(map[string]ModelInfo, len(models))
	for _, info := range models {
		index[info.ID] = info
		for _, alias := range info.Aliases {
			index[alias] = info
		}
	}
	return index
}

// NormalizeModelID strips a trailing date suffix such as -20250929 when the
// remaining prefix is a registered model id.
func NormalizeModelID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if _, ok := modelIndex[trimmed]; ok {
		return trimmed
	}
	parts := strings.Split(trimmed, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if len(last) >= 8 && isAllDigits(last) {
			candidate := strings.Join(parts[:len(parts)-1], "-")
			if _, ok := modelIndex[candidate]; ok {
				return candidate
			}
		}
	}
	return trimmed
}

// LookupModel resolves a model id or one of its known aliases.
func LookupModel(id string) (ModelInfo, bool) {
	info, ok := modelIndex[NormalizeModelID(id)]
	return info, ok
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
