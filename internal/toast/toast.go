// Package toast gates transient user notifications behind de-duplication and
// a fixed-window rate limit.
package toast

import (
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Level is the severity a toast is shown with.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelMessage Level = "message"
)

// Toast is one transient notification. A zero Duration leaves the display
// time to the Notifier.
type Toast struct {
	Level       Level
	Message     string
	Description string
	Duration    time.Duration
}

// Key identifies toasts for de-duplication.
func (t Toast) Key() string {
	if t.Description == "" {
		return t.Message
	}
	return t.Message + "|" + t.Description
}

// Notifier displays toasts.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(t Toast)

// Notify calls f(t).
func (f NotifierFunc) Notify(t Toast) { f(t) }

const (
	DedupWindow    = 2 * time.Second
	RateWindow     = time.Second
	MaxPerWindow   = 3
	pruneThreshold = 50
)

type record struct {
	key string
	at  time.Time
}

// Limiter forwards toasts to a Notifier unless an identical toast was shown
// within DedupWindow or MaxPerWindow toasts were already shown in the current
// RateWindow. All levels share one budget.
type Limiter struct {
	mu          sync.Mutex
	next        Notifier
	now         func() time.Time
	logger      glog.Logger
	recent      []record
	windowStart time.Time
	windowCount int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger logs suppressed toasts at debug level.
func WithLogger(logger glog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// New returns a Limiter in front of next.
func New(next Notifier, opts ...Option) *Limiter {
	l := &Limiter{next: next, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = glog.Ensure(l.logger)
	l.windowStart = l.now()
	return l
}

// Notify implements Notifier.
func (l *Limiter) Notify(t Toast) {
	l.Show(t)
}

// Show forwards t and reports whether it was shown.
func (l *Limiter) Show(t Toast) bool {
	key := t.Key()

	l.mu.Lock()
	now := l.now()
	if l.isDuplicate(key, now) {
		l.mu.Unlock()
		l.logger.Debug("toast suppressed", "reason", "duplicate", "key", key)
		return false
	}
	if !l.allow(now) {
		l.mu.Unlock()
		l.logger.Debug("toast suppressed", "reason", "rate_limited", "key", key)
		return false
	}
	l.remember(key, now)
	next := l.next
	l.mu.Unlock()

	if next != nil {
		next.Notify(t)
	}
	return true
}

func (l *Limiter) Success(message, description string) bool {
	return l.Show(Toast{Level: LevelSuccess, Message: message, Description: description})
}

func (l *Limiter) Error(message, description string) bool {
	return l.Show(Toast{Level: LevelError, Message: message, Description: description})
}

func (l *Limiter) Info(message, description string) bool {
	return l.Show(Toast{Level: LevelInfo, Message: message, Description: description})
}

func (l *Limiter) Warning(message, description string) bool {
	return l.Show(Toast{Level: LevelWarning, Message: message, Description: description})
}

func (l *Limiter) Message(message, description string) bool {
	return l.Show(Toast{Level: LevelMessage, Message: message, Description: description})
}

func (l *Limiter) isDuplicate(key string, now time.Time) bool {
	cutoff := now.Add(-DedupWindow)
	for _, r := range l.recent {
		if r.key == key && r.at.After(cutoff) {
			return true
		}
	}
	return false
}

func (l *Limiter) allow(now time.Time) bool {
	if now.Sub(l.windowStart) > RateWindow {
		l.windowStart = now
		l.windowCount = 0
	}
	if l.windowCount >= MaxPerWindow {
		return false
	}
	l.windowCount++
	return true
}

func (l *Limiter) remember(key string, now time.Time) {
	l.recent = append(l.recent, record{key: key, at: now})
	if len(l.recent) <= pruneThreshold {
		return
	}
	cutoff := now.Add(-DedupWindow)
	for i, r := range l.recent {
		if r.at.After(cutoff) {
			l.recent = append(l.recent[:0], l.recent[i:]...)
			return
		}
	}
	l.recent = l.recent[:0]
}
