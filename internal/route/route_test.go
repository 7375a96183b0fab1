package route

import "testing"

func TestAuthGuard(t *testing.T) {
	authed := false
	g := AuthGuard{IsAuthenticated: func() bool { return authed }}

	tests := []struct {
		authed bool
		to     string
		want   string
	}{
		{false, Nodes, Login},
		{false, Login, Login},
		{true, Login, Home},
		{true, Nodes, Nodes},
	}
	for _, tt := range tests {
		authed = tt.authed
		if got := g.Resolve(tt.to); got != tt.want {
			t.Fatalf("Resolve(%q) authed=%v = %q, want %q", tt.to, tt.authed, got, tt.want)
		}
	}
}

func TestRouter_NavigateNotifiesWatchers(t *testing.T) {
	r := New("", nil)
	if r.Current() != Home {
		t.Fatalf("Current() = %q, want %q", r.Current(), Home)
	}

	var seen []string
	unwatch := r.Watch(func(path string) { seen = append(seen, path) })

	r.Navigate("nodes/")
	r.Navigate(Nodes)
	r.Navigate(Admins)
	if len(seen) != 2 || seen[0] != Nodes || seen[1] != Admins {
		t.Fatalf("watchers saw %v, want [/nodes /admins]", seen)
	}

	unwatch()
	unwatch()
	r.Navigate(Home)
	if len(seen) != 2 {
		t.Fatalf("watcher ran after unwatch: %v", seen)
	}
}

func TestRouter_GuardRedirects(t *testing.T) {
	authed := false
	r := New(Subscriptions, AuthGuard{IsAuthenticated: func() bool { return authed }})
	if r.Current() != Login {
		t.Fatalf("initial = %q, want login redirect", r.Current())
	}

	authed = true
	if got := r.Navigate(Login); got != Home {
		t.Fatalf("Navigate(login) = %q, want home", got)
	}
	if got := r.Navigate(Services); got != Services {
		t.Fatalf("Navigate(services) = %q", got)
	}
}
