package app

import (
	"context"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/guardcore/guarddash/internal/prefs"
	"github.com/guardcore/guarddash/internal/refresh"
	"github.com/guardcore/guarddash/internal/route"
)

// Poller keeps one refresh controller per data view. A view's controller is
// created and started the first time the view becomes active; from then on
// it pauses while another view is shown.
type Poller struct {
	ctx      context.Context
	router   *route.Router
	storage  prefs.Storage
	logger   glog.Logger
	interval time.Duration
	loaders  map[string]refresh.Handler

	mu          sync.Mutex
	controllers map[string]*refresh.Controller
	unwatch     func()
	closed      bool
}

// PollerOptions wires a Poller.
type PollerOptions struct {
	Router  *route.Router
	Storage prefs.Storage
	Logger  glog.Logger
	// Interval overrides the persisted refresh interval when positive.
	Interval time.Duration
}

// NewPoller returns a Poller refreshing the session's views.
func NewPoller(ctx context.Context, session *Session, opts PollerOptions) *Poller {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Poller{
		ctx:         ctx,
		router:      opts.Router,
		storage:     opts.Storage,
		logger:      glog.Ensure(opts.Logger),
		interval:    opts.Interval,
		loaders:     ViewLoaders(session),
		controllers: map[string]*refresh.Controller{},
	}
}

// ViewLoaders maps each data view to the handler that reloads it.
func ViewLoaders(session *Session) map[string]refresh.Handler {
	return map[string]refresh.Handler{
		route.Home: func(ctx context.Context) error {
			if _, err := session.FetchAdmin(ctx, false); err != nil {
				return err
			}
			_, err := session.FetchStats(ctx)
			return err
		},
		route.Admins: func(ctx context.Context) error {
			_, err := session.FetchAdmins(ctx)
			return err
		},
		route.Nodes: func(ctx context.Context) error {
			_, err := session.FetchNodes(ctx, true)
			return err
		},
		route.Services: func(ctx context.Context) error {
			_, err := session.FetchServices(ctx, true)
			return err
		},
		route.Subscriptions: func(ctx context.Context) error {
			_, _, err := session.FetchInitialSubscriptions(ctx, true)
			return err
		},
	}
}

// Start follows navigation and activates the current view.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.closed || p.unwatch != nil {
		p.mu.Unlock()
		return
	}
	if p.router != nil {
		p.unwatch = p.router.Watch(p.activate)
	}
	p.mu.Unlock()

	if p.router != nil {
		p.activate(p.router.Current())
	}
}

// Close stops every controller and waits for in-flight refreshes.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	unwatch := p.unwatch
	p.unwatch = nil
	controllers := make([]*refresh.Controller, 0, len(p.controllers))
	for _, c := range p.controllers {
		controllers = append(controllers, c)
	}
	p.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	for _, c := range controllers {
		c.Close()
		c.Wait()
	}
}

// Controller returns the controller of path once the view has been visited.
func (p *Poller) Controller(path string) (*refresh.Controller, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.controllers[route.Clean(path)]
	return c, ok
}

// RefreshNow reloads path on the calling goroutine. It reports false when the
// view has no controller or a refresh is already running.
func (p *Poller) RefreshNow(path string) bool {
	c, ok := p.Controller(path)
	if !ok {
		return false
	}
	return c.Trigger()
}

// SetInterval changes the refresh period of path and persists it for views
// visited later.
func (p *Poller) SetInterval(path string, d time.Duration) error {
	c, ok := p.Controller(path)
	if !ok {
		return nil
	}
	return c.SetInterval(d, refresh.SetIntervalOptions{})
}

// Interval returns the refresh period of path.
func (p *Poller) Interval(path string) time.Duration {
	if c, ok := p.Controller(path); ok {
		return c.Interval()
	}
	if p.interval > 0 {
		return p.interval
	}
	return refresh.CachedInterval(p.storage)
}

// Refreshing reports whether path is being reloaded right now.
func (p *Poller) Refreshing(path string) bool {
	c, ok := p.Controller(path)
	return ok && c.IsRefreshing()
}

// LastRefresh returns when path last reloaded successfully.
func (p *Poller) LastRefresh(path string) (time.Time, bool) {
	c, ok := p.Controller(path)
	if !ok {
		return time.Time{}, false
	}
	return c.LastRefreshAt()
}

func (p *Poller) activate(path string) {
	handler, ok := p.loaders[path]
	if !ok {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if _, exists := p.controllers[path]; exists {
		p.mu.Unlock()
		return
	}
	c := refresh.New(p.ctx, handler, refresh.Options{
		Interval: p.interval,
		Storage:  p.storage,
		Routes:   p.router,
		Logger:   p.logger,
	})
	p.controllers[path] = c
	p.mu.Unlock()

	p.logger.Debug("view refresh started", "view", path, "interval", c.Interval().String())
	c.StartWith(true)
}
