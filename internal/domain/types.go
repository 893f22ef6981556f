package domain

// ModelEntry is one provider/model pair inside a preset.
type ModelEntry struct {
	Provider string         `json:"provider"`
	ModelID  string         `json:"modelId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Preset struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
	Models      []ModelEntry `json:"models"`
}

// CostEntry is an immutable usage record. Entries are append-only and never
// mutated after insert; they are only removed by age-based pruning.
type CostEntry struct {
	Timestamp         string  `json:"timestamp"`
	WorkspaceID       string  `json:"workspaceId"`
	Model             string  `json:"model"`
	InputTokens       int64   `json:"inputTokens"`
	OutputTokens      int64   `json:"outputTokens"`
	CachedTokens      int64   `json:"cachedTokens"`
	CacheCreateTokens int64   `json:"cacheCreateTokens"`
	ReasoningTokens   int64   `json:"reasoningTokens"`
	Cost              float64 `json:"cost"`
}

type ModelDailyTotal struct {
	Cost     float64 `json:"cost"`
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
}

// DailySummary is the derived rollup for one YYYY-MM-DD bucket. It is kept in
// lockstep with the entry log on every insert and prune.
type DailySummary struct {
	TotalCost    float64                    `json:"totalCost"`
	RequestCount int64                      `json:"requestCount"`
	ByModel      map[string]ModelDailyTotal `json:"byModel"`
}

type DatedSummary struct {
	Date    string       `json:"date"`
	Summary DailySummary `json:"summary"`
}

type ModelBreakdown struct {
	Model    string  `json:"model"`
	Cost     float64 `json:"cost"`
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
}

type PeriodTotal struct {
	Cost     float64 `json:"cost"`
	Requests int64   `json:"requests"`
}

// SummaryTotals holds six rolling windows: the current day/week/month and the
// immediately preceding one of each. Weeks start on Monday.
type SummaryTotals struct {
	Today     PeriodTotal `json:"today"`
	Yesterday PeriodTotal `json:"yesterday"`
	ThisWeek  PeriodTotal `json:"thisWeek"`
	LastWeek  PeriodTotal `json:"lastWeek"`
	ThisMonth PeriodTotal `json:"thisMonth"`
	LastMonth PeriodTotal `json:"lastMonth"`
}

type IconTheme struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	ThemeDir      string `json:"themeDir"`
	ThemeJSONPath string `json:"themeJsonPath"`
	Publisher     string `json:"publisher,omitempty"`
	Extension     string `json:"extension,omitempty"`
	IsBuiltin     bool   `json:"isBuiltin"`
	InstalledAt   string `json:"installedAt,omitempty"`
}

type Snippet struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Language  string   `json:"language,omitempty"`
	Code      string   `json:"code"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

type WorkspaceFavorite struct {
	Path     string `json:"path"`
	Label    string `json:"label,omitempty"`
	PinnedAt string `json:"pinnedAt"`
}

type WorkspaceTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

// CheckStatus is the outcome of a single health rule.
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
	CheckSkip CheckStatus = "skip"
)

type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// HealthStatus is the rollup of all checks in a report: error if any check
// failed, warning if any check warned, healthy otherwise.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

type HealthReport struct {
	Provider  string        `json:"provider"`
	ModelID   string        `json:"modelId"`
	Status    HealthStatus  `json:"status"`
	Checks    []HealthCheck `json:"checks"`
	CheckedAt string        `json:"checkedAt"`
}
