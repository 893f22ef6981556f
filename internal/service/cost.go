package service

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/store"
)

const DefaultRetentionDays = 90

// CostService keeps an append-only usage log plus a per-date rollup that is
// updated in lockstep on every insert and prune.
type CostService struct {
	costs *store.Collection[CostFile]
	now   func() time.Time
}

func NewCostService(backend store.Backend) *CostService {
	return &CostService{
		costs: store.NewCollection(backend, costFileVersion, emptyCostFile),
		now:   time.Now,
	}
}

type CostRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// RecordCost appends the entry and folds it into the daily summary for the
// entry's calendar date. The document is persisted on every call. Timestamps
// are normalized to UTC at insert so stored values share one clock.
func (s *CostService) RecordCost(entry domain.CostEntry) error {
	if strings.TrimSpace(entry.Model) == "" {
		return domain.InvalidArgument("model is required")
	}
	if strings.TrimSpace(entry.Timestamp) == "" {
		entry.Timestamp = s.now().UTC().Format(time.RFC3339Nano)
	} else {
		parsed, ok := parseTimestamp(entry.Timestamp)
		if !ok {
			return domain.InvalidArgument("timestamp must be an RFC 3339 timestamp")
		}
		entry.Timestamp = parsed.UTC().Format(time.RFC3339Nano)
	}

	return s.costs.Mutate(func(file *CostFile) error {
		// A hand-edited document may carry "dailySummaries": null, which
		// unmarshals as a nil map.
		if file.DailySummaries == nil {
			file.DailySummaries = map[string]domain.DailySummary{}
		}
		file.Entries = append(file.Entries, entry)

		date := dateOf(entry.Timestamp)
		summary := file.DailySummaries[date]
		if summary.ByModel == nil {
			summary.ByModel = map[string]domain.ModelDailyTotal{}
		}
		summary.TotalCost += entry.Cost
		summary.RequestCount++

		perModel := summary.ByModel[entry.Model]
		perModel.Cost += entry.Cost
		perModel.Requests++
		perModel.Tokens += entryTokens(entry)
		summary.ByModel[entry.Model] = perModel

		file.DailySummaries[date] = summary
		return nil
	})
}

// History returns log entries inside the inclusive timestamp bounds. A nil
// range returns everything.
func (s *CostService) History(costRange *CostRange) []domain.CostEntry {
	entries := s.costs.Read().Entries
	if costRange == nil || (costRange.Start == "" && costRange.End == "") {
		return entries
	}

	filtered := make([]domain.CostEntry, 0, len(entries))
	for _, entry := range entries {
		if inRange(entry.Timestamp, costRange) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// DailySummaries returns rollups sorted ascending by date, optionally bounded
// by inclusive YYYY-MM-DD keys. The key format sorts lexicographically the
// same as chronologically.
func (s *CostService) DailySummaries(startDate, endDate string) []domain.DatedSummary {
	summaries := s.costs.Read().DailySummaries

	dates := make([]string, 0, len(summaries))
	for date := range summaries {
		if startDate != "" && date < startDate {
			continue
		}
		if endDate != "" && date > endDate {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]domain.DatedSummary, 0, len(dates))
	for _, date := range dates {
		out = append(out, domain.DatedSummary{Date: date, Summary: summaries[date]})
	}
	return out
}

// ModelBreakdown recomputes per-model aggregates from the raw entry log, not
// from the persisted summaries. Results are sorted by descending cost.
func (s *CostService) ModelBreakdown(costRange *CostRange) []domain.ModelBreakdown {
	totals := map[string]domain.ModelBreakdown{}
	for _, entry := range s.costs.Read().Entries {
		if costRange != nil && !inRange(entry.Timestamp, costRange) {
			continue
		}
		breakdown := totals[entry.Model]
		breakdown.Model = entry.Model
		breakdown.Cost += entry.Cost
		breakdown.Requests++
		breakdown.Tokens += entryTokens(entry)
		totals[entry.Model] = breakdown
	}

	out := make([]domain.ModelBreakdown, 0, len(totals))
	for _, breakdown := range totals {
		out = append(out, breakdown)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost == out[j].Cost {
			return out[i].Model < out[j].Model
		}
		return out[i].Cost > out[j].Cost
	})
	return out
}

var errNothingToPrune = errors.New("nothing to prune")

// PruneOldEntries drops entries older than the retention window and summary
// keys strictly older than the cutoff date. Returns the number of entries
// removed; the document is rewritten only when something was removed. The
// filtering happens inside a single Mutate cycle so an insert racing the
// prune loop is never lost.
func (s *CostService) PruneOldEntries(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := s.now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	cutoffDate := dateString(cutoff)

	removed := 0
	err := s.costs.Mutate(func(file *CostFile) error {
		kept := make([]domain.CostEntry, 0, len(file.Entries))
		for _, entry := range file.Entries {
			if ts, ok := parseTimestamp(entry.Timestamp); ok && ts.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}

		staleDates := make([]string, 0)
		for date := range file.DailySummaries {
			if date < cutoffDate {
				staleDates = append(staleDates, date)
			}
		}

		if removed == 0 && len(staleDates) == 0 {
			return errNothingToPrune
		}
		file.Entries = kept
		for _, date := range staleDates {
			delete(file.DailySummaries, date)
		}
		return nil
	})
	if errors.Is(err, errNothingToPrune) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// SummaryTotals computes the six rolling windows from the persisted daily
// summaries. Weeks start on Monday.
func (s *CostService) SummaryTotals() domain.SummaryTotals {
	now := s.now().UTC()
	today := dateString(now)
	yesterday := dateString(now.AddDate(0, 0, -1))

	weekStart := startOfWeek(now)
	lastWeekStart := weekStart.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	var totals domain.SummaryTotals
	for date, summary := range s.costs.Read().DailySummaries {
		period := domain.PeriodTotal{Cost: summary.TotalCost, Requests: summary.RequestCount}

		if date == today {
			addPeriod(&totals.Today, period)
		}
		if date == yesterday {
			addPeriod(&totals.Yesterday, period)
		}
		if date >= dateString(weekStart) && date <= today {
			addPeriod(&totals.ThisWeek, period)
		}
		if date >= dateString(lastWeekStart) && date < dateString(weekStart) {
			addPeriod(&totals.LastWeek, period)
		}
		if date >= dateString(monthStart) && date <= today {
			addPeriod(&totals.ThisMonth, period)
		}
		if date >= dateString(lastMonthStart) && date < dateString(monthStart) {
			addPeriod(&totals.LastMonth, period)
		}
	}
	return totals
}

func addPeriod(total *domain.PeriodTotal, period domain.PeriodTotal) {
	total.Cost += period.Cost
	total.Requests += period.Requests
}

// inRange applies inclusive timestamp bounds. Comparison is on parsed
// instants, so bounds and entries in different UTC offsets order correctly;
// a value that fails to parse falls back to a raw string comparison.
func inRange(timestamp string, costRange *CostRange) bool {
	ts, tsOK := parseTimestamp(timestamp)
	if costRange.Start != "" {
		if start, ok := parseTimestamp(costRange.Start); ok && tsOK {
			if ts.Before(start) {
				return false
			}
		} else if timestamp < costRange.Start {
			return false
		}
	}
	if costRange.End != "" {
		if end, ok := parseTimestamp(costRange.End); ok && tsOK {
			if ts.After(end) {
				return false
			}
		} else if timestamp > costRange.End {
			return false
		}
	}
	return true
}

func parseTimestamp(value string) (time.Time, bool) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func entryTokens(entry domain.CostEntry) int64 {
	return entry.InputTokens + entry.OutputTokens + entry.CachedTokens + entry.ReasoningTokens
}

// dateOf truncates an ISO-8601 timestamp to its YYYY-MM-DD prefix.
func dateOf(timestamp string) string {
	if len(timestamp) < 10 {
		return timestamp
	}
	return timestamp[:10]
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// startOfWeek returns midnight of the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
