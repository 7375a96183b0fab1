package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guardcore/guarddash/internal/toast"
)

const (
	defaultToastDuration = 4 * time.Second
	feedBuffer           = 32
	maxVisibleToasts     = 4
)

// Feed carries toasts from any goroutine into the Bubble Tea program. It is
// the Notifier at the end of the toast limiter.
type Feed struct {
	ch chan toast.Toast
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{ch: make(chan toast.Toast, feedBuffer)}
}

// Notify queues t. When the buffer is full the toast is dropped rather than
// blocking the caller.
func (f *Feed) Notify(t toast.Toast) {
	select {
	case f.ch <- t:
	default:
	}
}

func (f *Feed) next(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case t := <-f.ch:
			return toastMsg(t)
		case <-ctx.Done():
			return nil
		}
	}
}

type toastMsg toast.Toast

type activeToast struct {
	toast.Toast
	expires time.Time
}

func pushToast(list []activeToast, t toast.Toast, now time.Time) []activeToast {
	d := t.Duration
	if d <= 0 {
		d = defaultToastDuration
	}
	list = append(list, activeToast{Toast: t, expires: now.Add(d)})
	if len(list) > maxVisibleToasts {
		list = list[len(list)-maxVisibleToasts:]
	}
	return list
}

func expireToasts(list []activeToast, now time.Time) []activeToast {
	kept := list[:0]
	for _, t := range list {
		if now.Before(t.expires) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	width := min(max(m.width/2, 30), 60)
	parts := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		body := lipgloss.NewStyle().Bold(true).Render(t.Message)
		if desc := strings.TrimSpace(t.Description); desc != "" {
			body += "\n" + desc
		}
		parts = append(parts, m.theme.ToastStyle(t.Level).Width(width).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Right, parts...)
}
