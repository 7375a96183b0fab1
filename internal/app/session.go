package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/route"
	"github.com/guardcore/guarddash/internal/state"
	"github.com/guardcore/guarddash/internal/toast"
)

// InitialSubscriptionsPageSize is the page FetchInitialSubscriptions loads.
const InitialSubscriptionsPageSize = 10

const initialSubscriptionsOrder = "created_at_desc"

// Session owns the signed-in state and the cached dashboard data.
type Session struct {
	ctx    context.Context
	api    *guardcore.API
	store  *state.Store
	router *route.Router
	toasts toast.Notifier
	logger glog.Logger

	fetchingSubscriptions atomic.Bool
	background            sync.WaitGroup
}

// SessionOptions wires a Session.
type SessionOptions struct {
	API    *guardcore.API
	Store  *state.Store
	Router *route.Router
	Toasts toast.Notifier
	Logger glog.Logger
}

// NewSession returns a Session. ctx bounds background work such as the admin
// preload after login.
func NewSession(ctx context.Context, opts SessionOptions) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	return &Session{
		ctx:    ctx,
		api:    opts.API,
		store:  store,
		router: opts.Router,
		toasts: opts.Toasts,
		logger: glog.Ensure(opts.Logger),
	}
}

// Store returns the snapshot store the session writes to.
func (s *Session) Store() *state.Store {
	return s.store
}

// API returns the façade the session calls.
func (s *Session) API() *guardcore.API {
	return s.api
}

// IsAuthenticated reports whether a token or API key is available.
func (s *Session) IsAuthenticated() bool {
	return s.api.Client().HasCredentials()
}

// Login exchanges credentials for a token, stores it and moves to the
// dashboard. The current admin is loaded in the background.
func (s *Session) Login(ctx context.Context, username, password, totpCode string) (*guardcore.AdminToken, error) {
	token, err := s.api.Admins.Login(ctx, guardcore.LoginCredentials{Username: username, Password: password}, totpCode)
	if err != nil {
		return nil, err
	}
	if err := s.api.Client().SetToken(token.AccessToken); err != nil {
		s.logger.Warn("token not persisted", "error", err)
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if _, err := s.FetchAdmin(s.ctx, true); err != nil {
			s.logger.Warn("preload admin failed", "error", err)
		}
	}()

	s.navigate(route.Home)
	return token, nil
}

// SetAPIKey stores an API key as the credential and moves to the dashboard.
func (s *Session) SetAPIKey(key string) error {
	if err := s.api.Client().SetAPIKey(key); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}
	if key != "" {
		s.navigate(route.Home)
	}
	return nil
}

// Logout clears both credentials and the cached data, then shows the login view.
func (s *Session) Logout() {
	client := s.api.Client()
	if err := client.SetToken(""); err != nil {
		s.logger.Warn("clear token failed", "error", err)
	}
	if err := client.SetAPIKey(""); err != nil {
		s.logger.Warn("clear api key failed", "error", err)
	}
	s.ClearData()
	s.navigate(route.Login)
}

// HandleUnauthorized implements guardcore.UnauthorizedHandler. The rejected
// credentials are dropped so the login view is reachable.
func (s *Session) HandleUnauthorized() {
	if s.toasts != nil {
		s.toasts.Notify(toast.Toast{
			Level:       toast.LevelError,
			Message:     "Session Expired",
			Description: "Please login again to continue.",
			Duration:    errorToastDuration,
		})
	}
	s.Logout()
}

// Wait blocks until background work started by Login has finished.
func (s *Session) Wait() {
	s.background.Wait()
}

// IsOwner reports whether the loaded admin has the owner role.
func (s *Session) IsOwner() bool {
	return s.store.Snapshot().IsOwner()
}

// ClearData drops every cached resource.
func (s *Session) ClearData() {
	s.store.Reset()
}

// FetchAdmin returns the signed-in admin, from cache unless force is set.
func (s *Session) FetchAdmin(ctx context.Context, force bool) (*guardcore.AdminResponse, error) {
	if !force {
		if admin := s.store.Snapshot().CurrentAdmin; admin != nil {
			return admin, nil
		}
	}
	admin, err := s.api.Admins.GetCurrent(ctx)
	if err != nil {
		s.store.RecordError(err)
		return nil, err
	}
	s.store.UpdateCurrentAdmin(admin)
	return admin, nil
}

// FetchServices returns the service list, from cache unless force is set or
// the cache is empty.
func (s *Session) FetchServices(ctx context.Context, force bool) ([]guardcore.ServiceResponse, error) {
	if !force {
		if cached := s.store.Snapshot().Services; len(cached) > 0 {
			return cached, nil
		}
	}
	services, err := s.api.Services.GetAll(ctx)
	if err != nil {
		s.store.RecordError(err)
		return nil, err
	}
	s.store.UpdateServices(services)
	return services, nil
}

// FetchNodes returns the node list, from cache unless force is set or the
// cache is empty.
func (s *Session) FetchNodes(ctx context.Context, force bool) ([]guardcore.NodeResponse, error) {
	if !force {
		if cached := s.store.Snapshot().Nodes; len(cached) > 0 {
			return cached, nil
		}
	}
	nodes, err := s.api.Nodes.GetAll(ctx)
	if err != nil {
		s.store.RecordError(err)
		return nil, err
	}
	s.store.UpdateNodes(nodes)
	return nodes, nil
}

// FetchAdmins reloads the admin list.
func (s *Session) FetchAdmins(ctx context.Context) ([]guardcore.AdminResponse, error) {
	admins, err := s.api.Admins.GetAll(ctx)
	if err != nil {
		s.store.RecordError(err)
		return nil, err
	}
	s.store.UpdateAdmins(admins)
	return admins, nil
}

// FetchStats reloads the dashboard statistics.
func (s *Session) FetchStats(ctx context.Context) (*guardcore.StatsResponse, error) {
	stats, err := s.api.Stats.GetStats(ctx)
	if err != nil {
		s.store.RecordError(err)
		return nil, err
	}
	s.store.UpdateStats(stats)
	return stats, nil
}

// FetchInitialSubscriptions loads the newest page of subscriptions together
// with the total count. While another call is in flight it returns the
// cached data instead of issuing a second request.
func (s *Session) FetchInitialSubscriptions(ctx context.Context, force bool) ([]guardcore.SubscriptionResponse, int64, error) {
	if !force {
		if snap := s.store.Snapshot(); len(snap.Subscriptions) > 0 {
			return snap.Subscriptions, snap.SubscriptionCount, nil
		}
	}
	if !s.fetchingSubscriptions.CompareAndSwap(false, true) {
		snap := s.store.Snapshot()
		return snap.Subscriptions, snap.SubscriptionCount, nil
	}
	defer s.fetchingSubscriptions.Store(false)

	page, size, order := 1, InitialSubscriptionsPageSize, initialSubscriptionsOrder
	filters := &guardcore.SubscriptionFilters{OrderBy: &order, Page: &page, Size: &size}

	var (
		wg       sync.WaitGroup
		subs     []guardcore.SubscriptionResponse
		count    int64
		listErr  error
		countErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		subs, listErr = s.api.Subscriptions.GetAll(ctx, filters)
	}()
	go func() {
		defer wg.Done()
		count, countErr = s.api.Subscriptions.GetCount(ctx, nil)
	}()
	wg.Wait()

	if err := errors.Join(listErr, countErr); err != nil {
		s.store.RecordError(err)
		return nil, 0, err
	}
	s.store.UpdateSubscriptions(subs, count)
	return subs, count, nil
}

func (s *Session) navigate(path string) {
	if s.router != nil {
		s.router.Navigate(path)
	}
}
