package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/toast"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 2 || names[0] != "Dracula" || names[1] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Dracula", "Slate"},
		{"Slate", "Dracula"},
		{"Unknown", "Dracula"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.in); got != tt.want {
			t.Fatalf("NextTheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetThemeFallsBackToDefault(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("Unknown").Name; got != defaultTheme().Name {
		t.Fatalf("GetTheme(Unknown).Name = %q, want %q", got, defaultTheme().Name)
	}
}

func TestThemesColorEverySubscriptionStatus(t *testing.T) {
	statuses := []guardcore.SubscriptionStatus{
		guardcore.StatusActive,
		guardcore.StatusLimited,
		guardcore.StatusDisabled,
		guardcore.StatusExpired,
		guardcore.StatusOnHold,
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range statuses {
			if th.StatusColors[string(status)] == "" {
				t.Fatalf("theme %s has no color for %s", name, status)
			}
		}
	}
}

func TestToastStyleUsesLevelColor(t *testing.T) {
	th := GetTheme("Dracula")
	tests := []struct {
		level toast.Level
		want  string
	}{
		{toast.LevelError, th.Danger},
		{toast.LevelSuccess, th.Success},
		{toast.LevelWarning, th.Warning},
		{toast.LevelInfo, th.Info},
	}
	for _, tt := range tests {
		got := th.ToastStyle(tt.level).GetBorderTopForeground()
		if got != lipgloss.Color(tt.want) {
			t.Fatalf("ToastStyle(%s) border = %v, want %s", tt.level, got, tt.want)
		}
	}
}
