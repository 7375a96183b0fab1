package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/route"
)

const topUsageRows = 5

// renderContent renders the active view below the header.
func (m Model) renderContent() string {
	if m.path == route.Home {
		return m.renderDashboard()
	}
	if len(m.tableKeys) == 0 {
		styles := m.theme.Styles()
		msg := "Loading…"
		if !m.snapshot.LastUpdated.IsZero() {
			msg = "Nothing to show"
		}
		if m.snapshot.LastError != nil {
			msg = "No data: " + m.snapshot.LastError.Error()
		}
		return styles.Panel.Width(max(m.width-2, 20)).Render(styles.MutedText.Render(msg))
	}
	return m.table.View()
}

func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	if !m.snapshot.HasStats {
		msg := "Waiting for statistics…"
		if m.snapshot.LastError != nil {
			msg = "Statistics unavailable: " + m.snapshot.LastError.Error()
		}
		return styles.Panel.Width(max(m.width-2, 20)).Render(styles.MutedText.Render(msg))
	}
	s := m.snapshot.Stats

	counts := m.statPanel("Subscriptions", [][2]string{
		{"Total", fmt.Sprint(s.TotalSubscriptions)},
		{"Active", fmt.Sprint(s.ActiveSubscriptions)},
		{"Inactive", fmt.Sprint(s.InactiveSubscriptions)},
		{"Online", fmt.Sprint(s.OnlineSubscriptions)},
	})
	fleet := m.statPanel("Fleet", [][2]string{
		{"Admins", fmt.Sprintf("%d (%d active)", s.TotalAdmins, s.ActiveAdmins)},
		{"Nodes", fmt.Sprintf("%d (%d active)", s.TotalNodes, s.ActiveNodes)},
		{"Inactive nodes", fmt.Sprint(s.InactiveNodes)},
	})
	usage := m.statPanel("Usage", [][2]string{
		{"Today", guardcore.FormatBytes(s.TotalDayUsages, 2)},
		{"This week", guardcore.FormatBytes(s.TotalWeekUsages, 2)},
		{"Lifetime", guardcore.FormatBytes(s.TotalLifetimeUsages, 2)},
	})

	top := lipgloss.JoinHorizontal(lipgloss.Top, counts, " ", fleet, " ", usage)
	rankings := lipgloss.JoinHorizontal(lipgloss.Top,
		m.rankingPanel("Top subscriptions", s.MostUsageSubscriptions), " ",
		m.rankingPanel("Top nodes", s.MostUsageNodes), " ",
		m.rankingPanel("Top admins", s.MostUsageAdmins),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, rankings)
}

func (m Model) statPanel(title string, rows [][2]string) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Width(16).Render(row[0]))
		b.WriteString(styles.Text.Render(row[1]))
	}
	return styles.Panel.Width(32).Render(b.String())
}

func (m Model) rankingPanel(title string, items []guardcore.UsageDetailStats) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	if len(items) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("no usage yet"))
	}
	for i, item := range items {
		if i == topUsageRows {
			break
		}
		name := "-"
		if item.Remark != nil && *item.Remark != "" {
			name = *item.Remark
		}
		b.WriteString("\n")
		b.WriteString(styles.Text.Width(18).Render(truncate(name, 17)))
		b.WriteString(styles.MutedText.Render(guardcore.FormatBytes(item.Usage, 1)))
	}
	return styles.Panel.Width(32).Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
