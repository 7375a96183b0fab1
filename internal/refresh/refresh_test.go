package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/guardcore/guarddash/internal/prefs"
	"github.com/guardcore/guarddash/internal/route"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCachedInterval(t *testing.T) {
	tests := []struct {
		stored string
		want   time.Duration
	}{
		{"", DefaultInterval},
		{"abc", DefaultInterval},
		{"0", DefaultInterval},
		{"-5", DefaultInterval},
		{"1500", 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		s := prefs.NewMemoryStore()
		if tt.stored != "" {
			_ = s.Set(prefs.KeyRefreshInterval, tt.stored)
		}
		if got := CachedInterval(s); got != tt.want {
			t.Fatalf("CachedInterval(%q) = %v, want %v", tt.stored, got, tt.want)
		}
	}
	if got := CachedInterval(nil); got != DefaultInterval {
		t.Fatalf("CachedInterval(nil) = %v", got)
	}
}

func TestNew_OptionIntervalOverridesCache(t *testing.T) {
	s := prefs.NewMemoryStore()
	_ = s.Set(prefs.KeyRefreshInterval, "5000")

	c := New(context.Background(), nil, Options{Storage: s})
	if c.Interval() != 5*time.Second {
		t.Fatalf("Interval() = %v, want cached 5s", c.Interval())
	}
	c = New(context.Background(), nil, Options{Storage: s, Interval: time.Second})
	if c.Interval() != time.Second {
		t.Fatalf("Interval() = %v, want option 1s", c.Interval())
	}
}

func TestController_NeverOverlaps(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := New(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		<-release
		return nil
	}, Options{Interval: time.Hour})
	t.Cleanup(c.Close)

	c.StartWith(true)
	waitFor(t, "first run", c.IsRefreshing)

	if c.Trigger() {
		t.Fatalf("Trigger ran while a run was in flight")
	}
	close(release)
	c.Wait()

	if calls.Load() != 1 {
		t.Fatalf("handler calls = %d, want 1", calls.Load())
	}
	if c.IsRefreshing() {
		t.Fatalf("busy flag still set after completion")
	}
	if _, ok := c.LastRefreshAt(); !ok {
		t.Fatalf("LastRefreshAt not recorded after success")
	}
}

func TestController_TicksUntilStopped(t *testing.T) {
	var calls atomic.Int32
	c := New(context.Background(), func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, Options{Interval: 5 * time.Millisecond})
	t.Cleanup(c.Close)

	c.Start()
	if !c.Started() || !c.Active() {
		t.Fatalf("Started/Active = %v/%v after Start", c.Started(), c.Active())
	}
	waitFor(t, "three ticks", func() bool { return calls.Load() >= 3 })

	c.Stop()
	c.Wait()
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("handler ran after Stop: %d -> %d", after, calls.Load())
	}
	if c.Started() || c.Active() {
		t.Fatalf("Started/Active = %v/%v after Stop", c.Started(), c.Active())
	}
}

func TestController_FailuresDoNotStopTimer(t *testing.T) {
	var calls atomic.Int32
	c := New(context.Background(), func(ctx context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("backend down")
		case 2:
			panic("bad payload")
		}
		return nil
	}, Options{Interval: 5 * time.Millisecond})
	t.Cleanup(c.Close)

	c.Start()
	waitFor(t, "recovery after failures", func() bool {
		_, ok := c.LastRefreshAt()
		return ok && calls.Load() >= 3
	})
	if !c.Active() {
		t.Fatalf("timer stopped after handler failures")
	}
}

func TestController_FollowsInitialRoute(t *testing.T) {
	r := route.New(route.Nodes, nil)
	c := New(context.Background(), func(context.Context) error { return nil }, Options{
		Interval: time.Hour,
		Routes:   r,
	})
	t.Cleanup(c.Close)

	r.Navigate(route.Admins)
	if c.Active() {
		t.Fatalf("timer active before Start")
	}

	c.Start()
	if c.Active() {
		t.Fatalf("timer active while away from the initial route")
	}
	r.Navigate(route.Nodes)
	if !c.Active() {
		t.Fatalf("timer not resumed on return to the initial route")
	}
	r.Navigate(route.Services)
	if c.Active() || !c.Started() {
		t.Fatalf("Active/Started = %v/%v after leaving, want suspended", c.Active(), c.Started())
	}
	r.Navigate(route.Nodes)
	if !c.Active() {
		t.Fatalf("timer not resumed after suspension")
	}

	c.Stop()
	r.Navigate(route.Admins)
	r.Navigate(route.Nodes)
	if c.Active() {
		t.Fatalf("stopped controller resumed on navigation")
	}

	c.Close()
	c.Start()
	if c.Active() {
		t.Fatalf("closed controller restarted")
	}
}

func TestController_SetInterval(t *testing.T) {
	s := prefs.NewMemoryStore()
	var calls atomic.Int32
	c := New(context.Background(), func(context.Context) error {
		calls.Add(1)
		return nil
	}, Options{Interval: time.Hour, Storage: s})
	t.Cleanup(c.Close)

	c.Start()
	if err := c.SetInterval(1500*time.Millisecond, SetIntervalOptions{RunNow: true}); err != nil {
		t.Fatalf("SetInterval returned error: %v", err)
	}
	c.Wait()
	if got, _ := s.Get(prefs.KeyRefreshInterval); got != "1500" {
		t.Fatalf("persisted interval = %q, want 1500", got)
	}
	if c.Interval() != 1500*time.Millisecond || !c.Active() {
		t.Fatalf("Interval/Active = %v/%v", c.Interval(), c.Active())
	}
	if calls.Load() != 1 {
		t.Fatalf("RunNow calls = %d, want 1", calls.Load())
	}

	if err := c.SetInterval(2*time.Second, SetIntervalOptions{NoRestart: true, RunNow: true}); err != nil {
		t.Fatalf("SetInterval returned error: %v", err)
	}
	c.Wait()
	if calls.Load() != 1 {
		t.Fatalf("RunNow honoured with NoRestart")
	}

	for _, d := range []time.Duration{0, -time.Second, 500 * time.Microsecond} {
		err := c.SetInterval(d, SetIntervalOptions{})
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryBadInput {
			t.Fatalf("SetInterval(%v) error = %v, want bad input", d, err)
		}
		if c.Interval() != 2*time.Second {
			t.Fatalf("invalid interval %v applied: %v", d, c.Interval())
		}
	}
	if got := CachedInterval(s); got != 2*time.Second {
		t.Fatalf("persisted interval = %v, want 2s", got)
	}
}
