package guardcore

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const secondsPerDay = 86400

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. Values without a zone are UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SubscriptionMetrics summarizes a subscription's time and usage budget.
// TimeLeftSeconds is +Inf for subscriptions without an expiry.
type SubscriptionMetrics struct {
	TimeElapsed     int64
	TimeLeftSeconds float64
	TotalDays       int64
	UsageLeft       int64
	UsagePercent    float64
	TimePercent     float64
}

// Unlimited reports whether the subscription never expires.
func (m SubscriptionMetrics) Unlimited() bool {
	return math.IsInf(m.TimeLeftSeconds, 1)
}

// GetSubscriptionMetrics computes metrics at now. LimitExpire is read as:
// 0 for no expiry, positive for an absolute unix expiry, negative for a
// duration in seconds that starts on first connect.
func GetSubscriptionMetrics(sub SubscriptionResponse, now time.Time) SubscriptionMetrics {
	var m SubscriptionMetrics
	nowUnix := now.Unix()

	switch {
	case sub.LimitExpire == 0:
		m.TimeLeftSeconds = math.Inf(1)
	case sub.LimitExpire > 0:
		var created int64
		if t, ok := ParseTimestamp(sub.CreatedAt); ok {
			created = t.Unix()
		}
		m.TotalDays = floorDiv(sub.LimitExpire-created, secondsPerDay)
		m.TimeElapsed = floorDiv(nowUnix-created, secondsPerDay)
		m.TimeLeftSeconds = float64(max(0, sub.LimitExpire-nowUnix))
	default:
		duration := -sub.LimitExpire
		m.TotalDays = duration / secondsPerDay
		m.TimeLeftSeconds = float64(duration)
	}

	m.UsageLeft = max(0, sub.LimitUsage-sub.CurrentUsage)
	if sub.LimitUsage > 0 {
		m.UsagePercent = float64(sub.CurrentUsage) / float64(sub.LimitUsage) * 100
	}
	if m.TotalDays > 0 {
		m.TimePercent = float64(m.TimeElapsed) / float64(m.TotalDays) * 100
	}
	return m
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FormatTimeLeft renders seconds using the largest whole unit.
func FormatTimeLeft(seconds float64) string {
	if math.IsInf(seconds, 1) {
		return "Unlimited"
	}
	abs := int64(math.Abs(seconds))
	units := []struct {
		size int64
		name string
	}{
		{secondsPerDay, "day"},
		{3600, "hour"},
		{60, "minute"},
	}
	for _, u := range units {
		if n := abs / u.size; n > 0 {
			return plural(n, u.name)
		}
	}
	return plural(abs, "second")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// SubscriptionStatus is the display state of a subscription.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusLimited  SubscriptionStatus = "limited"
	StatusDisabled SubscriptionStatus = "disabled"
	StatusExpired  SubscriptionStatus = "expired"
	StatusOnHold   SubscriptionStatus = "on_hold"
)

// StatusOf classifies sub. Limited wins over disabled, then expired, then
// on hold (a negative expiry that has not started).
func StatusOf(sub SubscriptionResponse) SubscriptionStatus {
	switch {
	case sub.Limited:
		return StatusLimited
	case !sub.Enabled:
		return StatusDisabled
	case sub.Expired:
		return StatusExpired
	case sub.LimitExpire < 0:
		return StatusOnHold
	default:
		return StatusActive
	}
}

// BuildSubscriptionLink returns the link the backend provided, or one built
// from origin and the access key. It returns "" when neither is available.
func BuildSubscriptionLink(sub SubscriptionResponse, origin string) string {
	if link := strings.TrimSpace(sub.Link); link != "" {
		return link
	}
	base := strings.TrimRight(strings.TrimSpace(origin), "/")
	key := strings.TrimSpace(sub.AccessKey)
	if base == "" || key == "" {
		return ""
	}
	return base + "/guards/" + url.PathEscape(key)
}
