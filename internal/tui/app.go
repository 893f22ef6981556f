package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deskhub-app/deskhub/internal/client"
	"github.com/deskhub-app/deskhub/internal/domain"
	"github.com/deskhub-app/deskhub/internal/service"
)

type screen int

const (
	screenOverview screen = iota
	screenModels
	screenDays
	screenPresets
)

const refreshEvery = 30 * time.Second

type dashboardData struct {
	totals    domain.SummaryTotals
	breakdown []domain.ModelBreakdown
	days      []domain.DatedSummary
	presets   []domain.Preset
}

type dataLoadedMsg struct {
	data dashboardData
	err  error
}

type tickMsg time.Time

type model struct {
	hub        *client.Client
	screen     screen
	width      int
	height     int
	loading    bool
	spin       spinner.Model
	data       dashboardData
	loadedAt   time.Time
	statusLine string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tabStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tabOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	headStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	amountStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// Run connects to the hub and drives the cost dashboard until quit.
func Run(opts client.Options) error {
	hub, err := client.New(opts)
	if err != nil {
		return err
	}
	defer hub.Close()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := model{
		hub:        hub,
		screen:     screenOverview,
		loading:    true,
		spin:       spin,
		statusLine: "tab: switch view  r: refresh  q: quit",
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadDataCmd(m.hub), m.spin.Tick, tickCmd())
}

func loadDataCmd(hub *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var data dashboardData
		var err error
		if data.totals, err = hub.GetSummaryTotals(ctx); err != nil {
			return dataLoadedMsg{err: err}
		}
		if data.breakdown, err = hub.GetModelBreakdown(ctx, service.CostRange{}); err != nil {
			return dataLoadedMsg{err: err}
		}
		if data.days, err = hub.GetDailySummaries(ctx, "", ""); err != nil {
			return dataLoadedMsg{err: err}
		}
		if data.presets, err = hub.ListPresets(ctx); err != nil {
			return dataLoadedMsg{err: err}
		}
		return dataLoadedMsg{data: data}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "right", "l":
			m.screen = (m.screen + 1) % 4
			return m, nil
		case "shift+tab", "left", "h":
			m.screen = (m.screen + 3) % 4
			return m, nil
		case "r":
			m.loading = true
			return m, loadDataCmd(m.hub)
		}
	case dataLoadedMsg:
		m.loading = false
		if typed.err != nil {
			m.statusLine = errStyle.Render("load error: " + typed.err.Error())
			return m, nil
		}
		m.data = typed.data
		m.loadedAt = time.Now()
		m.statusLine = "tab: switch view  r: refresh  q: quit"
		return m, nil
	case tickMsg:
		m.loading = true
		return m, tea.Batch(loadDataCmd(m.hub), tickCmd())
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(typed)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DeskHub Cost Dashboard"))
	if m.loading {
		b.WriteString("  " + m.spin.View())
	} else if !m.loadedAt.IsZero() {
		b.WriteString(mutedStyle.Render("  updated " + m.loadedAt.Format("15:04:05")))
	}
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.screen {
	case screenOverview:
		b.WriteString(m.renderOverview())
	case screenModels:
		b.WriteString(m.renderModels())
	case screenDays:
		b.WriteString(m.renderDays())
	case screenPresets:
		b.WriteString(m.renderPresets())
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.statusLine))
	return b.String()
}

func (m model) renderTabs() string {
	labels := []string{"Overview", "Models", "Days", "Presets"}
	parts := make([]string, 0, len(labels))
	for i, label := range labels {
		if screen(i) == m.screen {
			parts = append(parts, tabOnStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, tabStyle.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m model) renderOverview() string {
	totals := m.data.totals
	periods := []struct {
		label  string
		period domain.PeriodTotal
	}{
		{"Today", totals.Today},
		{"Yesterday", totals.Yesterday},
		{"This Week", totals.ThisWeek},
		{"Last Week", totals.LastWeek},
		{"This Month", totals.ThisMonth},
		{"Last Month", totals.LastMonth},
	}

	cards := make([]string, 0, len(periods))
	for _, p := range periods {
		body := fmt.Sprintf("%s\n%s\n%s",
			headStyle.Render(p.label),
			amountStyle.Render(usd(p.period.Cost)),
			mutedStyle.Render(fmt.Sprintf("%d req", p.period.Requests)),
		)
		cards = append(cards, cardStyle.Render(body))
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func (m model) renderModels() string {
	if len(m.data.breakdown) == 0 {
		return mutedStyle.Render("no recorded usage yet")
	}
	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-36s %12s %10s %12s", "MODEL", "COST", "REQUESTS", "TOKENS")))
	b.WriteString("\n")
	for _, item := range m.data.breakdown {
		b.WriteString(fmt.Sprintf("%-36s %12s %10d %12d\n", clip(item.Model, 36), usd(item.Cost), item.Requests, item.Tokens))
	}
	return b.String()
}

func (m model) renderDays() string {
	if len(m.data.days) == 0 {
		return mutedStyle.Render("no recorded usage yet")
	}
	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-12s %12s %10s  %s", "DATE", "COST", "REQUESTS", "MODELS")))
	b.WriteString("\n")

	days := m.data.days
	limit := len(days)
	if m.height > 0 && limit > m.height-8 {
		limit = m.height - 8
	}
	// Newest first.
	for i := len(days) - 1; i >= len(days)-limit && i >= 0; i-- {
		day := days[i]
		models := make([]string, 0, len(day.Summary.ByModel))
		for name := range day.Summary.ByModel {
			models = append(models, name)
		}
		sort.Strings(models)
		b.WriteString(fmt.Sprintf("%-12s %12s %10d  %s\n",
			day.Date, usd(day.Summary.TotalCost), day.Summary.RequestCount, clip(strings.Join(models, ", "), 60)))
	}
	return b.String()
}

func (m model) renderPresets() string {
	if len(m.data.presets) == 0 {
		return mutedStyle.Render("no presets saved yet")
	}
	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-28s %8s  %s", "NAME", "MODELS", "UPDATED")))
	b.WriteString("\n")
	for _, preset := range m.data.presets {
		b.WriteString(fmt.Sprintf("%-28s %8d  %s\n", clip(preset.Name, 28), len(preset.Models), clip(preset.UpdatedAt, 19)))
	}
	return b.String()
}

func usd(value float64) string {
	return fmt.Sprintf("$%.4f", value)
}

func clip(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
