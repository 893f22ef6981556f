package health

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deskhub-app/deskhub/internal/domain"
)

func writeProviders(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write providers: %v", err)
	}
	return path
}

func findCheck(t *testing.T, report domain.HealthReport, name string) domain.HealthCheck {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %q missing from report: %+v", name, report.Checks)
	return domain.HealthCheck{}
}

func TestCheckHealthyWithFullConfig(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"apiKey": "sk-ant-test"}}`)
	checker := NewChecker(path)

	report := checker.Check("anthropic", "claude-sonnet-4-5", nil)
	if report.Status != domain.HealthHealthy {
		t.Fatalf("expected healthy, got %s: %+v", report.Status, report.Checks)
	}
	if findCheck(t, report, "authentication").Status != domain.CheckPass {
		t.Fatalf("authentication should pass")
	}
	if findCheck(t, report, "modelExists").Status != domain.CheckPass {
		t.Fatalf("modelExists should pass")
	}
	if findCheck(t, report, "tokenLimits").Status != domain.CheckSkip {
		t.Fatalf("tokenLimits should skip without custom limits")
	}
	if findCheck(t, report, "pricing").Status != domain.CheckSkip {
		t.Fatalf("pricing should skip without custom pricing")
	}
	if findCheck(t, report, "connectivity").Status != domain.CheckPass {
		t.Fatalf("connectivity should pass without a custom base URL")
	}
}

func TestCheckMissingCredentialIsError(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"baseUrl": "https://api.anthropic.com"}}`)
	checker := NewChecker(path)

	report := checker.Check("anthropic", "claude-sonnet-4-5", nil)
	if report.Status != domain.HealthError {
		t.Fatalf("expected error, got %s", report.Status)
	}
	if findCheck(t, report, "authentication").Status != domain.CheckFail {
		t.Fatalf("authentication should fail for a known provider without its credential")
	}
}

func TestCheckNoConfigSectionWarns(t *testing.T) {
	path := writeProviders(t, `{}`)
	checker := NewChecker(path)

	report := checker.Check("anthropic", "claude-sonnet-4-5", nil)
	if report.Status != domain.HealthWarning {
		t.Fatalf("expected warning, got %s: %+v", report.Status, report.Checks)
	}
	if findCheck(t, report, "authentication").Status != domain.CheckWarn {
		t.Fatalf("authentication should warn when no section exists")
	}
	if findCheck(t, report, "connectivity").Status != domain.CheckSkip {
		t.Fatalf("connectivity should skip when no section exists")
	}
}

func TestCheckOllamaNeedsNoCredential(t *testing.T) {
	path := writeProviders(t, `{"ollama": {"baseUrl": "http://localhost:11434"}}`)
	checker := NewChecker(path)

	report := checker.Check("ollama", "llama3.3:70b", nil)
	if report.Status != domain.HealthHealthy {
		t.Fatalf("expected healthy, got %s: %+v", report.Status, report.Checks)
	}
}

func TestCheckUnknownModelWarns(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"apiKey": "sk"}}`)
	checker := NewChecker(path)

	report := checker.Check("anthropic", "my-fine-tune", nil)
	if report.Status != domain.HealthWarning {
		t.Fatalf("expected warning, got %s", report.Status)
	}
	if findCheck(t, report, "modelExists").Status != domain.CheckWarn {
		t.Fatalf("modelExists should warn for unregistered models")
	}
}

func TestCheckTokenLimitRules(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"apiKey": "sk"}}`)
	checker := NewChecker(path)

	cases := []struct {
		name     string
		metadata map[string]any
		want     domain.CheckStatus
	}{
		{"sane limits", map[string]any{"inputTokenLimit": 200000.0, "outputTokenLimit": 8192.0}, domain.CheckPass},
		{"tiny input", map[string]any{"inputTokenLimit": 500.0}, domain.CheckWarn},
		{"tiny output", map[string]any{"outputTokenLimit": 50.0}, domain.CheckWarn},
		{"output above input", map[string]any{"inputTokenLimit": 4096.0, "outputTokenLimit": 8192.0}, domain.CheckWarn},
		{"no limits", nil, domain.CheckSkip},
	}
	for _, tc := range cases {
		report := checker.Check("anthropic", "claude-sonnet-4-5", tc.metadata)
		if got := findCheck(t, report, "tokenLimits").Status; got != tc.want {
			t.Errorf("%s: tokenLimits = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCheckPricingRules(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"apiKey": "sk"}}`)
	checker := NewChecker(path)

	cases := []struct {
		name     string
		metadata map[string]any
		want     domain.CheckStatus
	}{
		{"sane pricing", map[string]any{"inputCost": 3.0, "outputCost": 15.0}, domain.CheckPass},
		{"negative cost", map[string]any{"inputCost": -1.0, "outputCost": 15.0}, domain.CheckWarn},
		{"inverted pricing", map[string]any{"inputCost": 20.0, "outputCost": 15.0}, domain.CheckWarn},
		{"no pricing", nil, domain.CheckSkip},
	}
	for _, tc := range cases {
		report := checker.Check("anthropic", "claude-sonnet-4-5", tc.metadata)
		if got := findCheck(t, report, "pricing").Status; got != tc.want {
			t.Errorf("%s: pricing = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCheckInvalidBaseURLIsError(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"apiKey": "sk", "baseUrl": "not a url"}}`)
	checker := NewChecker(path)

	report := checker.Check("anthropic", "claude-sonnet-4-5", nil)
	if report.Status != domain.HealthError {
		t.Fatalf("expected error, got %s", report.Status)
	}
	if findCheck(t, report, "connectivity").Status != domain.CheckFail {
		t.Fatalf("connectivity should fail on an unparsable base URL")
	}
}

func TestCheckCachesLatestReport(t *testing.T) {
	path := writeProviders(t, `{"anthropic": {"apiKey": "sk"}}`)
	checker := NewChecker(path)

	if _, ok := checker.Cached("anthropic", "claude-sonnet-4-5"); ok {
		t.Fatalf("cache should start empty")
	}

	first := checker.Check("anthropic", "claude-sonnet-4-5", nil)
	cached, ok := checker.Cached("anthropic", "claude-sonnet-4-5")
	if !ok || cached.CheckedAt != first.CheckedAt {
		t.Fatalf("expected first report cached")
	}

	second := checker.Check("anthropic", "claude-sonnet-4-5", map[string]any{"inputCost": -1.0})
	cached, ok = checker.Cached("anthropic", "claude-sonnet-4-5")
	if !ok || cached.Status != second.Status || cached.Status != domain.HealthWarning {
		t.Fatalf("expected recheck to overwrite cache, got %+v", cached)
	}
}
