package app

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/guardcore/guarddash/internal/config"
	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/prefs"
	"github.com/guardcore/guarddash/internal/route"
	"github.com/guardcore/guarddash/internal/state"
	"github.com/guardcore/guarddash/internal/toast"
	"github.com/guardcore/guarddash/internal/ui"
)

// Options configure the guarddash application.
type Options struct {
	ConfigPath string
	StatePath  string // empty uses the config's state_path
	PollEvery  int    // seconds; zero uses the persisted interval
	Debug      bool   // structured logs to stderr
	BackupDir  string // empty writes backups to the working directory
}

// Run boots the dashboard until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	statePath := cfg.StatePath
	if opts.StatePath != "" {
		statePath = opts.StatePath
	}
	storage, err := prefs.Open(statePath)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}

	logger := newLogger(opts.Debug)
	feed := ui.NewFeed()
	toasts := toast.New(feed, toast.WithLogger(logger))

	deps, err := Wire(ctx, WireOptions{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Storage: storage,
		Toasts:  toasts,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	interval := time.Duration(0)
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	poller := NewPoller(ctx, deps.Session, PollerOptions{
		Router:   deps.Router,
		Storage:  storage,
		Logger:   logger,
		Interval: interval,
	})
	poller.Start()
	defer poller.Close()

	logger.Info("guarddash started", "api", deps.API.Client().BaseURL(), "state", storage.Path())

	err = ui.Run(ui.Options{
		Context:   ctx,
		Session:   deps.Session,
		Refresher: poller,
		Store:     deps.Session.Store(),
		Router:    deps.Router,
		Toasts:    toasts,
		Feed:      feed,
		Storage:   storage,
		ThemeName: prefs.Theme(storage, cfg.Theme),
		BaseURL:   deps.API.Client().BaseURL(),
		BackupDir: opts.BackupDir,
	})
	deps.Session.Wait()
	return err
}

// WireOptions are the inputs of Wire.
type WireOptions struct {
	BaseURL string
	Timeout time.Duration
	// Storage persists credentials. Nil keeps them in memory only.
	Storage prefs.Storage
	Toasts  toast.Notifier
	Logger  glog.Logger
}

// Deps are the collaborators Wire connects.
type Deps struct {
	API     *guardcore.API
	Router  *route.Router
	Session *Session
}

// Wire builds the client, router and session and connects the client's
// error hooks to the toast reporter and the session.
func Wire(ctx context.Context, opts WireOptions) (*Deps, error) {
	logger := glog.Ensure(opts.Logger)

	var session *Session
	clientOpts := []guardcore.Option{guardcore.WithLogger(logger)}
	if opts.Storage != nil {
		clientOpts = append(clientOpts, guardcore.WithStorage(opts.Storage))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, guardcore.WithTimeout(opts.Timeout))
	}
	client, err := guardcore.NewClient(guardcore.ClientConfig{
		BaseURL: opts.BaseURL,
		OnError: NewReporter(opts.Toasts, logger),
		OnUnauthorized: guardcore.UnauthorizedHandlerFunc(func() {
			session.HandleUnauthorized()
		}),
	}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("init guardcore client: %w", err)
	}

	api := guardcore.NewAPI(client)
	router := route.New(route.Home, route.AuthGuard{IsAuthenticated: client.HasCredentials})
	session = NewSession(ctx, SessionOptions{
		API:    api,
		Store:  &state.Store{},
		Router: router,
		Toasts: opts.Toasts,
		Logger: logger,
	})
	return &Deps{API: api, Router: router, Session: session}, nil
}

func newLogger(debug bool) glog.Logger {
	if !debug {
		return glog.Nop()
	}
	_, logger := glog.Resolve("guarddash", nil, nil)
	return glog.Ensure(logger)
}
