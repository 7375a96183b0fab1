// Package route tracks which dashboard view is active and notifies watchers
// when it changes.
package route

import (
	"strings"
	"sync"
)

// Well-known views.
const (
	Home          = "/"
	Login         = "/login"
	Admins        = "/admins"
	Nodes         = "/nodes"
	Services      = "/services"
	Subscriptions = "/subscriptions"
)

// Guard decides where a navigation ends up.
type Guard interface {
	Resolve(to string) string
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(to string) string

// Resolve calls f(to).
func (f GuardFunc) Resolve(to string) string { return f(to) }

// AuthGuard sends unauthenticated users to Login and keeps authenticated
// users away from it.
type AuthGuard struct {
	IsAuthenticated func() bool
}

// Resolve implements Guard.
func (g AuthGuard) Resolve(to string) string {
	authed := g.IsAuthenticated != nil && g.IsAuthenticated()
	switch {
	case to == Login && authed:
		return Home
	case to != Login && !authed:
		return Login
	default:
		return to
	}
}

type watcher struct {
	id int
	fn func(path string)
}

// Router holds the current view path. It is safe for concurrent use.
type Router struct {
	mu       sync.Mutex
	current  string
	guard    Guard
	watchers []watcher
	nextID   int
}

// New returns a Router positioned at initial after the guard ran.
func New(initial string, guard Guard) *Router {
	r := &Router{guard: guard}
	r.current = r.resolve(initial)
	return r
}

// Current returns the active path.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate moves to path, subject to the guard, and returns where the router
// ended up. Watchers run on the calling goroutine when the path changed.
func (r *Router) Navigate(path string) string {
	target := r.resolve(path)

	r.mu.Lock()
	if target == r.current {
		r.mu.Unlock()
		return target
	}
	r.current = target
	fns := make([]func(string), 0, len(r.watchers))
	for _, w := range r.watchers {
		fns = append(fns, w.fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(target)
	}
	return target
}

// Watch registers fn for path changes. The returned function unregisters it.
func (r *Router) Watch(fn func(path string)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.watchers = append(r.watchers, watcher{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, w := range r.watchers {
				if w.id == id {
					r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *Router) resolve(path string) string {
	path = Clean(path)
	if r.guard == nil {
		return path
	}
	return Clean(r.guard.Resolve(path))
}

// Clean normalizes a view path to a leading slash without a trailing one.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return Home
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(path, "/")
}
