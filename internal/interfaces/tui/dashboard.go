// Package tui renders a live stats dashboard in the terminal while the
// simulator serves traffic.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/llmsim/llmsim/internal/domain/stats"
)

// TickMsg drives the periodic snapshot refresh.
type TickMsg time.Time

const refreshInterval = 500 * time.Millisecond

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	agg  *stats.Aggregator
	snap stats.Snapshot
	addr string

	spinner spinner.Model
	width   int
	height  int

	headerStyle lipgloss.Style
	labelStyle  lipgloss.Style
	valueStyle  lipgloss.Style
	errorStyle  lipgloss.Style
	faintStyle  lipgloss.Style
}

// NewModel builds the dashboard over the live aggregator. addr is shown
// in the header so users know where to point clients.
func NewModel(agg *stats.Aggregator, addr string) Model {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}

	accent := lipgloss.Color("6")
	return Model{
		agg:         agg,
		addr:        addr,
		spinner:     s,
		headerStyle: lipgloss.NewStyle().Foreground(accent).Bold(true),
		labelStyle:  lipgloss.NewStyle().Faint(true),
		valueStyle:  lipgloss.NewStyle().Bold(true),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		faintStyle:  lipgloss.NewStyle().Faint(true),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.snap = m.agg.Snapshot()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	s := m.snap
	var b strings.Builder

	b.WriteString(m.headerStyle.Render("llmsim"))
	b.WriteString("  ")
	b.WriteString(m.spinner.View())
	b.WriteString(m.faintStyle.Render(fmt.Sprintf("  %s  up %s", m.addr, formatUptime(s.UptimeSecs))))
	b.WriteString("\n\n")

	row := func(label string, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			m.labelStyle.Render(fmt.Sprintf("%-22s", label)),
			m.valueStyle.Render(value),
		))
	}

	row("requests", fmt.Sprintf("%d (%d active)", s.TotalRequests, s.ActiveRequests))
	row("streaming / buffered", fmt.Sprintf("%d / %d", s.StreamingRequests, s.NonStreamingRequests))
	row("tokens", fmt.Sprintf("%d prompt, %d completion, %d reasoning", s.PromptTokens, s.CompletionTokens, s.ReasoningTokens))
	row("throughput", fmt.Sprintf("%.2f req/s", s.RequestsPerSecond))
	row("latency ms", fmt.Sprintf("avg %.1f  min %.1f  max %.1f", s.AvgLatencyMs, s.MinLatencyMs, s.MaxLatencyMs))

	errLine := fmt.Sprintf("%d total (429: %d, 5xx: %d, timeout: %d, aborted: %d)",
		s.TotalErrors, s.RateLimitErrors, s.ServerErrors, s.TimeoutErrors, s.AbortedRequests)
	if s.TotalErrors > 0 {
		errLine = m.errorStyle.Render(errLine)
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", m.labelStyle.Render(fmt.Sprintf("%-22s", "errors")), errLine))

	if len(s.ModelRequests) > 0 {
		b.WriteString("\n")
		b.WriteString(m.headerStyle.Render("  models"))
		b.WriteString("\n")
		ids := make([]string, 0, len(s.ModelRequests))
		for id := range s.ModelRequests {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			b.WriteString(fmt.Sprintf("    %-28s %d\n", id, s.ModelRequests[id]))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.faintStyle.Render("  q to quit"))
	b.WriteString("\n")
	return b.String()
}

func formatUptime(secs uint64) string {
	d := time.Duration(secs) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("%ds", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%dh%dm", secs/3600, (secs%3600)/60)
}

// Run blocks on the dashboard until the user quits.
func Run(agg *stats.Aggregator, addr string) error {
	p := tea.NewProgram(NewModel(agg, addr))
	_, err := p.Run()
	return err
}
