package health

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/providers"
	"github.com/deskhub-app/deskhub/internal/registry"
)

// Checker evaluates model/provider configuration against a fixed rule set.
// Evaluation is synchronous and side-effect free apart from the in-memory
// result cache, which is overwritten on every recheck.
type Checker struct {
	providersPath string

	mu    sync.Mutex
	cache map[string]domain.HealthReport
}

func NewChecker(providersPath string) *Checker {
	return &Checker{
		providersPath: providersPath,
		cache:         make(map[string]domain.HealthReport),
	}
}

// CheckRequest is the wire shape of a health check invocation.
type CheckRequest struct {
	Provider string         `json:"provider"`
	ModelID  string         `json:"modelId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Check runs all five rules for one provider/model pair. Metadata carries the
// user's custom overrides (token limits, pricing, base URL) when present.
func (c *Checker) Check(provider, modelID string, metadata map[string]any) domain.HealthReport {
	cfg, _ := providers.Load(c.providersPath)
	section, hasSection := cfg[registry.NormalizeProvider(provider)]
	if !hasSection {
		// Sections may also be keyed by the raw name the caller used.
		section, hasSection = cfg[provider]
	}

	checks := []domain.HealthCheck{
		checkAuthentication(provider, section, hasSection),
		checkModelExists(modelID),
		checkTokenLimits(metadata),
		checkPricing(metadata),
		checkConnectivity(section, hasSection),
	}

	report := domain.HealthReport{
		Provider:  provider,
		ModelID:   modelID,
		Status:    rollup(checks),
		Checks:    checks,
		CheckedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	c.mu.Lock()
	c.cache[provider+":"+modelID] = report
	c.mu.Unlock()
	return report
}

// Cached returns the most recent report for the pair, if any.
func (c *Checker) Cached(provider, modelID string) (domain.HealthReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.cache[provider+":"+modelID]
	return report, ok
}

func rollup(checks []domain.HealthCheck) domain.HealthStatus {
	status := domain.HealthHealthy
	for _, check := range checks {
		switch check.Status {
		case domain.CheckFail:
			return domain.HealthError
		case domain.CheckWarn:
			status = domain.HealthWarning
		}
	}
	return status
}

func checkAuthentication(provider string, section providers.ProviderConfig, hasSection bool) domain.HealthCheck {
	check := domain.HealthCheck{Name: "authentication"}

	if !hasSection {
		check.Status = domain.CheckWarn
		check.Message = fmt.Sprintf("no configuration found for provider %q", provider)
		return check
	}

	known, isKnown := registry.LookupProvider(provider)
	if isKnown {
		if known.RequiredCredential != "" && section.APIKey == "" {
			check.Status = domain.CheckFail
			check.Message = fmt.Sprintf("provider %q requires %s", known.Name, known.RequiredCredential)
			return check
		}
		check.Status = domain.CheckPass
		return check
	}

	if section.APIKey == "" {
		check.Status = domain.CheckWarn
		check.Message = "unknown provider has no API key configured"
		return check
	}
	check.Status = domain.CheckPass
	return check
}

func checkModelExists(modelID string) domain.HealthCheck {
	check := domain.HealthCheck{Name: "modelExists"}
	if _, ok := registry.LookupModel(modelID); ok {
		check.Status = domain.CheckPass
		return check
	}
	check.Status = domain.CheckWarn
	check.Message = fmt.Sprintf("model %q is not in the built-in registry; limits and pricing are unverified", modelID)
	return check
}

func checkTokenLimits(metadata map[string]any) domain.HealthCheck {
	check := domain.HealthCheck{Name: "tokenLimits"}

	input, hasInput := metaNumber(metadata, "inputTokenLimit")
	output, hasOutput := metaNumber(metadata, "outputTokenLimit")
	if !hasInput && !hasOutput {
		check.Status = domain.CheckSkip
		return check
	}

	switch {
	case hasInput && input < 1000:
		check.Status = domain.CheckWarn
		check.Message = fmt.Sprintf("input token limit %.0f is suspiciously low", input)
	case hasOutput && output < 100:
		check.Status = domain.CheckWarn
		check.Message = fmt.Sprintf("output token limit %.0f is suspiciously low", output)
	case hasInput && hasOutput && output > input:
		check.Status = domain.CheckWarn
		check.Message = "output token limit exceeds input token limit"
	default:
		check.Status = domain.CheckPass
	}
	return check
}

func checkPricing(metadata map[string]any) domain.HealthCheck {
	check := domain.HealthCheck{Name: "pricing"}

	input, hasInput := metaNumber(metadata, "inputCost")
	output, hasOutput := metaNumber(metadata, "outputCost")
	if !hasInput && !hasOutput {
		check.Status = domain.CheckSkip
		return check
	}

	switch {
	case (hasInput && input < 0) || (hasOutput && output < 0):
		check.Status = domain.CheckWarn
		check.Message = "pricing must not be negative"
	case hasInput && hasOutput && input > output:
		check.Status = domain.CheckWarn
		check.Message = "input cost exceeds output cost, which is unusual"
	default:
		check.Status = domain.CheckPass
	}
	return check
}

func checkConnectivity(section providers.ProviderConfig, hasSection bool) domain.HealthCheck {
	check := domain.HealthCheck{Name: "connectivity"}

	if !hasSection {
		check.Status = domain.CheckSkip
		return check
	}
	if section.BaseURL == "" {
		check.Status = domain.CheckPass
		return check
	}

	parsed, err := url.ParseRequestURI(section.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		check.Status = domain.CheckFail
		check.Message = fmt.Sprintf("base URL %q is not a valid http(s) URL", section.BaseURL)
		return check
	}
	check.Status = domain.CheckPass
	return check
}

// metaNumber reads a numeric metadata value. Values arrive as float64 when
// decoded from JSON or structpb, but accept native ints as well.
func metaNumber(metadata map[string]any, key string) (float64, bool) {
	if metadata == nil {
		return 0, false
	}
	switch v := metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
