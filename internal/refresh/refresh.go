package refresh

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/guardcore/guarddash/internal/prefs"
)

// DefaultInterval applies when neither the options nor storage name one.
const DefaultInterval = 30 * time.Second

// Handler refreshes data. Errors are logged and never stop the timer.
type Handler func(ctx context.Context) error

// Routes is the navigation state a Controller follows.
type Routes interface {
	Current() string
	Watch(fn func(path string)) (unwatch func())
}

// Options configures a Controller.
type Options struct {
	// Interval overrides the persisted interval when positive.
	Interval time.Duration
	// Immediate makes Start run the handler right away.
	Immediate bool
	Storage   prefs.Storage
	// Routes scopes the timer to the path current at construction. Nil
	// means the timer is never suspended by navigation.
	Routes Routes
	Logger glog.Logger
	Now    func() time.Time
}

// SetIntervalOptions tunes SetInterval.
type SetIntervalOptions struct {
	// NoRestart keeps a running timer on its old period.
	NoRestart bool
	// RunNow runs the handler after the change. Ignored with NoRestart.
	RunNow bool
}

// Controller runs a Handler on a fixed period, never overlapping runs, and
// only while the view it was created on is active.
type Controller struct {
	ctx     context.Context
	handler Handler
	storage prefs.Storage
	routes  Routes
	logger  glog.Logger
	now     func() time.Time

	immediate    bool
	initialRoute string
	unwatch      func()

	busy atomic.Bool
	wg   sync.WaitGroup

	mu          sync.Mutex
	interval    time.Duration
	started     bool
	stopTicker  chan struct{}
	lastRefresh time.Time
	closed      bool
}

// New builds an idle Controller. ctx is passed to every handler run; Stop
// does not cancel it, so in-flight runs always complete.
func New(ctx context.Context, handler Handler, opts Options) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Controller{
		ctx:       ctx,
		handler:   handler,
		storage:   opts.Storage,
		routes:    opts.Routes,
		logger:    glog.Ensure(opts.Logger),
		now:       opts.Now,
		immediate: opts.Immediate,
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.interval = CachedInterval(opts.Storage)
	if opts.Interval > 0 {
		c.interval = opts.Interval
	}

	if c.routes != nil {
		c.initialRoute = c.routes.Current()
		c.unwatch = c.routes.Watch(c.onRoute)
	}
	return c
}

// CachedInterval returns the persisted interval, or DefaultInterval when the
// stored value is missing or not a positive integer of milliseconds.
func CachedInterval(s prefs.Storage) time.Duration {
	if s == nil {
		return DefaultInterval
	}
	raw, ok := s.Get(prefs.KeyRefreshInterval)
	if !ok {
		return DefaultInterval
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return DefaultInterval
	}
	return time.Duration(ms) * time.Millisecond
}

// Start starts the timer, running the handler first if Options.Immediate.
func (c *Controller) Start() {
	c.StartWith(c.immediate)
}

// StartWith starts the timer. With runNow the handler is started without
// waiting for it. The timer only runs while on the initial route.
func (c *Controller) StartWith(runNow bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	if c.onInitialRoute() {
		c.resumeLocked()
	}
	c.mu.Unlock()

	if runNow {
		c.runAsync()
	}
}

// Stop pauses the timer and clears the started flag. In-flight runs finish.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	c.pauseLocked()
}

// Close stops the controller and detaches it from route changes.
func (c *Controller) Close() {
	c.Stop()
	c.mu.Lock()
	c.closed = true
	unwatch := c.unwatch
	c.unwatch = nil
	c.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
}

// Wait blocks until handler runs started in the background have returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Trigger runs the handler on the calling goroutine unless a run is already
// in flight. It reports whether the handler ran.
func (c *Controller) Trigger() bool {
	return c.run()
}

// SetInterval changes and persists the period. A running timer on the
// initial route restarts with the new period unless NoRestart is set.
// Periods under a millisecond are rejected since they persist as zero.
func (c *Controller) SetInterval(d time.Duration, opts SetIntervalOptions) error {
	if d < time.Millisecond {
		return goerrors.New(fmt.Sprintf("refresh interval must be at least 1ms, got %s", d), goerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode("BAD_INPUT").
			WithMetadata(map[string]any{"interval_ms": d.Milliseconds()})
	}

	c.mu.Lock()
	c.interval = d
	c.persist(d)
	if opts.NoRestart {
		c.mu.Unlock()
		return nil
	}
	if c.started && c.stopTicker != nil && c.onInitialRoute() {
		c.resumeLocked()
	}
	c.mu.Unlock()

	if opts.RunNow {
		c.runAsync()
	}
	return nil
}

// IsRefreshing reports whether a handler run is in flight.
func (c *Controller) IsRefreshing() bool {
	return c.busy.Load()
}

// LastRefreshAt returns the completion time of the last successful run.
func (c *Controller) LastRefreshAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefresh, !c.lastRefresh.IsZero()
}

// Interval returns the current period.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Started reports whether Start was called without a later Stop.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Active reports whether the timer is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopTicker != nil
}

func (c *Controller) onRoute(_ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	if c.onInitialRoute() {
		if c.stopTicker == nil {
			c.resumeLocked()
		}
		return
	}
	c.pauseLocked()
}

func (c *Controller) onInitialRoute() bool {
	return c.routes == nil || c.routes.Current() == c.initialRoute
}

// resumeLocked (re)starts the ticker so the next tick is a full period away.
func (c *Controller) resumeLocked() {
	c.pauseLocked()
	stop := make(chan struct{})
	c.stopTicker = stop
	go c.loop(c.interval, stop)
}

func (c *Controller) pauseLocked() {
	if c.stopTicker != nil {
		close(c.stopTicker)
		c.stopTicker = nil
	}
}

func (c *Controller) loop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick(stop)
		}
	}
}

// tick starts a run unless the ticker that fired has been replaced or paused.
func (c *Controller) tick(stop <-chan struct{}) {
	c.mu.Lock()
	current := c.stopTicker != nil && (<-chan struct{})(c.stopTicker) == stop
	if current {
		c.wg.Add(1)
	}
	c.mu.Unlock()
	if !current {
		return
	}
	go func() {
		defer c.wg.Done()
		c.run()
	}()
}

func (c *Controller) runAsync() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run()
	}()
}

// run executes the handler under the busy flag. Overlapping calls return false.
func (c *Controller) run() bool {
	if !c.busy.CompareAndSwap(false, true) {
		return false
	}
	defer c.busy.Store(false)

	if err := c.invoke(); err != nil {
		c.logger.Error("refresh handler failed", "error", err)
		return true
	}
	c.mu.Lock()
	c.lastRefresh = c.now()
	c.mu.Unlock()
	return true
}

func (c *Controller) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh handler panic: %v", r)
		}
	}()
	if c.handler == nil {
		return nil
	}
	return c.handler(c.ctx)
}

func (c *Controller) persist(d time.Duration) {
	if c.storage == nil {
		return
	}
	value := strconv.FormatInt(d.Milliseconds(), 10)
	if err := c.storage.Set(prefs.KeyRefreshInterval, value); err != nil {
		c.logger.Warn("persist refresh interval failed", "error", err)
	}
}
