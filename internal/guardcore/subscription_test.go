package guardcore

import (
	"math"
	"testing"
	"time"
)

func TestGetSubscriptionMetrics_Unlimited(t *testing.T) {
	m := GetSubscriptionMetrics(SubscriptionResponse{LimitExpire: 0, LimitUsage: 0, CurrentUsage: 10}, time.Now())
	if !math.IsInf(m.TimeLeftSeconds, 1) || !m.Unlimited() {
		t.Fatalf("TimeLeftSeconds = %v, want +Inf", m.TimeLeftSeconds)
	}
	if m.TotalDays != 0 || m.TimeElapsed != 0 || m.TimePercent != 0 {
		t.Fatalf("metrics = %#v, want zero time budget", m)
	}
	if m.UsagePercent != 0 || m.UsageLeft != 0 {
		t.Fatalf("usage = %v/%v, want 0 for unlimited usage", m.UsagePercent, m.UsageLeft)
	}
}

func TestGetSubscriptionMetrics_OnFirstConnect(t *testing.T) {
	m := GetSubscriptionMetrics(SubscriptionResponse{LimitExpire: -86400}, time.Now())
	if m.TotalDays != 1 || m.TimeElapsed != 0 || m.TimeLeftSeconds != 86400 {
		t.Fatalf("metrics = %#v, want 1 day total, 0 elapsed, 86400 left", m)
	}
}

func TestGetSubscriptionMetrics_AbsoluteExpiry(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(10 * 24 * time.Hour)
	sub := SubscriptionResponse{
		CreatedAt:    "2026-01-01T00:00:00",
		LimitExpire:  created.Add(30 * 24 * time.Hour).Unix(),
		LimitUsage:   1000,
		CurrentUsage: 250,
	}
	m := GetSubscriptionMetrics(sub, now)
	if m.TotalDays != 30 || m.TimeElapsed != 10 {
		t.Fatalf("days = %d/%d, want 10/30", m.TimeElapsed, m.TotalDays)
	}
	if m.TimeLeftSeconds != float64(20*secondsPerDay) {
		t.Fatalf("TimeLeftSeconds = %v", m.TimeLeftSeconds)
	}
	if m.UsageLeft != 750 || m.UsagePercent != 25 {
		t.Fatalf("usage = %d left, %v%%", m.UsageLeft, m.UsagePercent)
	}
	if math.Abs(m.TimePercent-100.0/3) > 1e-9 {
		t.Fatalf("TimePercent = %v", m.TimePercent)
	}

	expired := GetSubscriptionMetrics(sub, created.Add(40*24*time.Hour))
	if expired.TimeLeftSeconds != 0 {
		t.Fatalf("expired TimeLeftSeconds = %v, want 0", expired.TimeLeftSeconds)
	}
}

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.Inf(1), "Unlimited"},
		{86400, "1 day"},
		{3 * 86400, "3 days"},
		{7200, "2 hours"},
		{60, "1 minute"},
		{59, "59 seconds"},
		{1, "1 second"},
	}
	for _, tt := range tests {
		if got := FormatTimeLeft(tt.in); got != tt.want {
			t.Fatalf("FormatTimeLeft(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		sub  SubscriptionResponse
		want SubscriptionStatus
	}{
		{"limited wins", SubscriptionResponse{Limited: true, Enabled: false, Expired: true}, StatusLimited},
		{"disabled", SubscriptionResponse{Enabled: false, Expired: true}, StatusDisabled},
		{"expired", SubscriptionResponse{Enabled: true, Expired: true}, StatusExpired},
		{"on hold", SubscriptionResponse{Enabled: true, LimitExpire: -3600}, StatusOnHold},
		{"active", SubscriptionResponse{Enabled: true, LimitExpire: 0}, StatusActive},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.sub); got != tt.want {
			t.Fatalf("%s: StatusOf = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildSubscriptionLink(t *testing.T) {
	if got := BuildSubscriptionLink(SubscriptionResponse{Link: " https://sub/x ", AccessKey: "k"}, "https://panel"); got != "https://sub/x" {
		t.Fatalf("provided link = %q", got)
	}
	if got := BuildSubscriptionLink(SubscriptionResponse{AccessKey: "a b"}, "https://panel/"); got != "https://panel/guards/a%20b" {
		t.Fatalf("computed link = %q", got)
	}
	if got := BuildSubscriptionLink(SubscriptionResponse{AccessKey: "k"}, ""); got != "" {
		t.Fatalf("link without origin = %q, want empty", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatBytes(0, 2); got != "0" {
		t.Fatalf("FormatBytes(0) = %q", got)
	}
	if got := FormatBytes(1536, 2); got != "1.5 KB" {
		t.Fatalf("FormatBytes(1536) = %q", got)
	}
	if got := FormatBytes(1<<30, 2); got != "1 GB" {
		t.Fatalf("FormatBytes(1GiB) = %q", got)
	}
	if got := FormatBytes(512, 2); got != "512 Bytes" {
		t.Fatalf("FormatBytes(512) = %q", got)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiryTests := []struct {
		in   time.Time
		want string
	}{
		{now.Add(-time.Second), "Expired"},
		{now.Add(time.Hour), "Less than 1 day"},
		{now.Add(36 * time.Hour), "1 day left"},
		{now.Add(10 * 24 * time.Hour), "10 days left"},
		{now.Add(45 * 24 * time.Hour), "1 month left"},
		{now.Add(100 * 24 * time.Hour), "3 months left"},
		{now.Add(800 * 24 * time.Hour), "2 years left"},
	}
	for _, tt := range expiryTests {
		if got := FormatExpiry(tt.in.Unix(), now); got != tt.want {
			t.Fatalf("FormatExpiry(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	ago := func(d time.Duration) *string {
		s := now.Add(-d).Format(time.RFC3339)
		return &s
	}
	if got := FormatRelativeTime(nil, now); got != "Never" {
		t.Fatalf("FormatRelativeTime(nil) = %q", got)
	}
	if got := FormatRelativeTime(ago(10*time.Second), now); got != "Just now" {
		t.Fatalf("FormatRelativeTime(10s) = %q", got)
	}
	if got := FormatRelativeTime(ago(5*time.Minute), now); got != "5 minutes ago" {
		t.Fatalf("FormatRelativeTime(5m) = %q", got)
	}
	if got := FormatRelativeTime(ago(time.Hour), now); got != "1 hour ago" {
		t.Fatalf("FormatRelativeTime(1h) = %q", got)
	}
	if got := FormatRelativeTime(ago(72*time.Hour), now); got != "3 days ago" {
		t.Fatalf("FormatRelativeTime(3d) = %q", got)
	}

	if CalculatePercentage(1, 3) != 33 || CalculatePercentage(5, 0) != 0 {
		t.Fatalf("CalculatePercentage mismatch")
	}
	if !IsValidUsername("user_01") || IsValidUsername("ab") || IsValidUsername("bad name") {
		t.Fatalf("IsValidUsername mismatch")
	}
	if !IsStrongPassword("Passw0rd") || IsStrongPassword("password1") || IsStrongPassword("Pass1") {
		t.Fatalf("IsStrongPassword mismatch")
	}
	pw, err := GeneratePassword(16)
	if err != nil || len(pw) != 16 {
		t.Fatalf("GeneratePassword = %q, %v", pw, err)
	}
	if FormatRole(RoleReseller) != "Reseller" || FormatCategory(NodeMarzneshin) != "Marzneshin" {
		t.Fatalf("display names mismatch")
	}
}

func TestParseValidationErrors(t *testing.T) {
	got := ParseValidationErrors([]ValidationError{
		{Loc: []any{"body", "limit_usage"}, Msg: "must be positive"},
		{Loc: []any{"body", float64(2)}, Msg: "invalid item"},
		{Msg: "missing"},
	})
	want := []string{"limit_usage: must be positive", "2: invalid item", "field: missing"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
