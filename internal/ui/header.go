package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/route"
)

// viewTab is one entry of the view switcher.
type viewTab struct {
	path  string
	label string
}

var viewTabs = []viewTab{
	{route.Home, "Dashboard"},
	{route.Admins, "Admins"},
	{route.Nodes, "Nodes"},
	{route.Services, "Services"},
	{route.Subscriptions, "Subscriptions"},
}

// bgStyle renders text segments that keep the bar background across the
// ANSI resets lipgloss emits between styled runs.
type bgStyle struct {
	bg    lipgloss.Color
	space string
}

func newBgStyle(color string) bgStyle {
	bg := lipgloss.Color(color)
	return bgStyle{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

func (b bgStyle) render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(b.bg)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b bgStyle) spaces(n int) string {
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

func (b bgStyle) join(parts []string, n int) string {
	return strings.Join(parts, b.spaces(n))
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := newBgStyle(m.theme.Surface)

	parts := []string{bg.render("guarddash", styles.Logo)}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.render("● OFFLINE", styles.DangerText))
	case m.snapshot.LastError != nil:
		parts = append(parts, bg.render("● DEGRADED", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.render("● ONLINE", styles.SuccessText))
	}

	if admin := m.snapshot.CurrentAdmin; admin != nil {
		parts = append(parts,
			bg.render(admin.Username, styles.Text.Bold(true))+bg.spaces(1)+
				bg.render(guardcore.FormatRole(admin.Role), styles.MutedText))
	}

	if _, ok := refreshedView(m.path); ok && m.refresher != nil {
		every := m.refresher.Interval(m.path)
		refresh := bg.render("Every", styles.MutedText) + bg.spaces(1) + bg.render(formatInterval(every), styles.Text)
		if m.refresher.Refreshing(m.path) {
			refresh += bg.spaces(1) + bg.render("refreshing…", styles.InfoText)
		} else if at, ok := m.refresher.LastRefresh(m.path); ok {
			refresh += bg.spaces(1) + bg.render(at.Format("15:04:05"), styles.FaintText)
		}
		parts = append(parts, refresh)
	}

	if m.width >= 100 && m.snapshot.HasStats {
		stats := m.snapshot.Stats
		parts = append(parts,
			bg.render("Online:", styles.MutedText)+bg.spaces(1)+
				bg.render(fmt.Sprintf("%d/%d", stats.OnlineSubscriptions, stats.TotalSubscriptions), styles.Text))
	}

	return styles.Header.Width(m.width).Render(bg.join(parts, 2))
}

// renderTabs renders the view switcher.
func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	bg := newBgStyle(m.theme.Surface)

	parts := make([]string, 0, len(viewTabs)+1)
	for i, tab := range viewTabs {
		label := fmt.Sprintf("%d %s", i+1, tab.label)
		if tab.path == m.path {
			parts = append(parts, styles.Selected.Render(" "+label+" "))
			continue
		}
		parts = append(parts, bg.render(label, styles.MutedText))
	}
	parts = append(parts, bg.render("? help", styles.FaintText))
	return styles.Footer.Width(m.width).Render(bg.join(parts, 2))
}

func refreshedView(path string) (viewTab, bool) {
	for _, tab := range viewTabs {
		if tab.path == path {
			return tab, true
		}
	}
	return viewTab{}, false
}

func formatInterval(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
