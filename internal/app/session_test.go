package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/guardtest"
	"github.com/guardcore/guarddash/internal/prefs"
	"github.com/guardcore/guarddash/internal/route"
)

func newTestDeps(t *testing.T) (*guardtest.Server, *Deps, *toastRecorder) {
	t.Helper()
	srv := guardtest.New(t)
	rec := &toastRecorder{}
	deps, err := Wire(context.Background(), WireOptions{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Storage: prefs.NewMemoryStore(),
		Toasts:  rec,
	})
	if err != nil {
		t.Fatalf("Wire returned error: %v", err)
	}
	return srv, deps, rec
}

func signIn(t *testing.T, deps *Deps) {
	t.Helper()
	if _, err := deps.Session.Login(context.Background(), guardtest.DefaultUsername, guardtest.DefaultPassword, ""); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	deps.Session.Wait()
}

func TestSession_LoginStoresTokenAndPreloadsAdmin(t *testing.T) {
	_, deps, _ := newTestDeps(t)
	if deps.Router.Current() != route.Login || deps.Session.IsAuthenticated() {
		t.Fatalf("fresh session: route=%q authed=%v", deps.Router.Current(), deps.Session.IsAuthenticated())
	}

	signIn(t, deps)

	if got := deps.API.Client().Token(); got != guardtest.DefaultToken {
		t.Fatalf("token = %q, want %q", got, guardtest.DefaultToken)
	}
	if deps.Router.Current() != route.Home {
		t.Fatalf("route after login = %q, want %q", deps.Router.Current(), route.Home)
	}
	snap := deps.Session.Store().Snapshot()
	if snap.CurrentAdmin == nil || snap.CurrentAdmin.Username != guardtest.DefaultUsername {
		t.Fatalf("current admin not preloaded: %#v", snap.CurrentAdmin)
	}
	if !deps.Session.IsOwner() {
		t.Fatalf("IsOwner() = false for owner")
	}
}

func TestSession_FailedLoginStaysOnLogin(t *testing.T) {
	_, deps, rec := newTestDeps(t)

	_, err := deps.Session.Login(context.Background(), guardtest.DefaultUsername, "wrong", "")
	if err == nil {
		t.Fatalf("Login succeeded with a wrong password")
	}
	if deps.Router.Current() != route.Login || deps.Session.IsAuthenticated() {
		t.Fatalf("route=%q authed=%v after failed login", deps.Router.Current(), deps.Session.IsAuthenticated())
	}
	var titles []string
	for _, tt := range rec.toasts {
		titles = append(titles, tt.Message)
	}
	if len(titles) != 2 || titles[0] != "Session Expired" || titles[1] != "POST /api/admins/token" {
		t.Fatalf("toasts = %v, want session expiry then request failure", titles)
	}
}

func TestSession_APIKeyAuthenticates(t *testing.T) {
	_, deps, _ := newTestDeps(t)
	if err := deps.Session.SetAPIKey(guardtest.DefaultAPIKey); err != nil {
		t.Fatalf("SetAPIKey returned error: %v", err)
	}
	if deps.Router.Current() != route.Home {
		t.Fatalf("route = %q after api key login", deps.Router.Current())
	}
	if _, err := deps.Session.FetchAdmin(context.Background(), false); err != nil {
		t.Fatalf("FetchAdmin with api key: %v", err)
	}
}

func TestSession_ExpiredSessionLogsOut(t *testing.T) {
	srv, deps, rec := newTestDeps(t)
	signIn(t, deps)
	srv.Fail(http.MethodGet, "/api/nodes", http.StatusUnauthorized, `{"detail":"Token expired"}`)

	if _, err := deps.Session.FetchNodes(context.Background(), true); err == nil {
		t.Fatalf("FetchNodes succeeded against a 401")
	}
	if deps.Session.IsAuthenticated() {
		t.Fatalf("credentials kept after 401")
	}
	if deps.Router.Current() != route.Login {
		t.Fatalf("route = %q, want login", deps.Router.Current())
	}
	if snap := deps.Session.Store().Snapshot(); snap.CurrentAdmin != nil {
		t.Fatalf("cached data kept after expiry")
	}
	if len(rec.toasts) == 0 || rec.toasts[0].Message != "Session Expired" {
		t.Fatalf("toasts = %#v", rec.toasts)
	}
}

func TestSession_FetchCaching(t *testing.T) {
	srv, deps, _ := newTestDeps(t)
	srv.SeedNode(guardcore.NodeResponse{ID: 1, Remark: "edge", Enabled: true})
	srv.SeedService(guardcore.ServiceResponse{ID: 1, Remark: "basic"})
	signIn(t, deps)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := deps.Session.FetchNodes(ctx, false); err != nil {
			t.Fatalf("FetchNodes: %v", err)
		}
		if _, err := deps.Session.FetchServices(ctx, false); err != nil {
			t.Fatalf("FetchServices: %v", err)
		}
		if _, err := deps.Session.FetchAdmin(ctx, false); err != nil {
			t.Fatalf("FetchAdmin: %v", err)
		}
	}
	if n := srv.Calls(http.MethodGet, "/api/nodes"); n != 1 {
		t.Fatalf("node fetches = %d, want 1", n)
	}
	if n := srv.Calls(http.MethodGet, "/api/services"); n != 1 {
		t.Fatalf("service fetches = %d, want 1", n)
	}
	// One from the login preload, none from the cached calls.
	if n := srv.Calls(http.MethodGet, "/api/admins/current"); n != 1 {
		t.Fatalf("admin fetches = %d, want 1", n)
	}

	if _, err := deps.Session.FetchNodes(ctx, true); err != nil {
		t.Fatalf("FetchNodes(force): %v", err)
	}
	if n := srv.Calls(http.MethodGet, "/api/nodes"); n != 2 {
		t.Fatalf("node fetches after force = %d, want 2", n)
	}
}

func TestSession_FetchInitialSubscriptions(t *testing.T) {
	srv, deps, _ := newTestDeps(t)
	for i := 1; i <= 12; i++ {
		srv.SeedSubscription(guardcore.SubscriptionResponse{ID: int64(i), Username: "user" + strconv.Itoa(i), Enabled: true})
	}
	signIn(t, deps)
	ctx := context.Background()

	subs, count, err := deps.Session.FetchInitialSubscriptions(ctx, false)
	if err != nil {
		t.Fatalf("FetchInitialSubscriptions: %v", err)
	}
	if len(subs) != InitialSubscriptionsPageSize || count != 12 {
		t.Fatalf("got %d subs, count %d; want 10, 12", len(subs), count)
	}
	if subs[0].Username != "user12" {
		t.Fatalf("first = %q, want newest first", subs[0].Username)
	}
	req, _ := srv.LastRequest(http.MethodGet, "/api/subscriptions")
	if req.Query["page"][0] != "1" || req.Query["size"][0] != "10" || req.Query["order_by"][0] != "created_at_desc" {
		t.Fatalf("query = %v", req.Query)
	}

	if _, _, err := deps.Session.FetchInitialSubscriptions(ctx, false); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if n := srv.Calls(http.MethodGet, "/api/subscriptions"); n != 1 {
		t.Fatalf("list fetches = %d, want 1 (cached)", n)
	}

	// A fetch already in flight makes forced callers return current data.
	deps.Session.fetchingSubscriptions.Store(true)
	subs, count, err = deps.Session.FetchInitialSubscriptions(ctx, true)
	deps.Session.fetchingSubscriptions.Store(false)
	if err != nil || len(subs) != 10 || count != 12 {
		t.Fatalf("locked fetch = %d subs, %d, %v", len(subs), count, err)
	}
	if n := srv.Calls(http.MethodGet, "/api/subscriptions/count"); n != 1 {
		t.Fatalf("count fetches = %d, want 1", n)
	}
}

func TestSession_LogoutClearsEverything(t *testing.T) {
	_, deps, _ := newTestDeps(t)
	signIn(t, deps)
	if err := deps.API.Client().SetAPIKey("extra"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	deps.Session.Logout()

	client := deps.API.Client()
	if client.Token() != "" || client.APIKey() != "" || deps.Session.IsAuthenticated() {
		t.Fatalf("credentials left after logout")
	}
	if deps.Router.Current() != route.Login {
		t.Fatalf("route = %q after logout", deps.Router.Current())
	}
	if snap := deps.Session.Store().Snapshot(); snap.CurrentAdmin != nil {
		t.Fatalf("data left after logout: %#v", snap)
	}
}

func TestSession_Actions(t *testing.T) {
	srv, deps, _ := newTestDeps(t)
	srv.SeedNode(guardcore.NodeResponse{ID: 3, Enabled: true})
	srv.SeedSubscription(guardcore.SubscriptionResponse{ID: 1, Username: "alice", Enabled: true})
	signIn(t, deps)
	ctx := context.Background()

	if err := deps.Session.SetNodeEnabled(ctx, 3, false); err != nil {
		t.Fatalf("SetNodeEnabled: %v", err)
	}
	if nodes := deps.Session.Store().Snapshot().Nodes; len(nodes) != 1 || nodes[0].Enabled {
		t.Fatalf("nodes after disable = %#v", nodes)
	}

	if err := deps.Session.SetAdminEnabled(ctx, guardtest.DefaultUsername, false); err != nil {
		t.Fatalf("SetAdminEnabled: %v", err)
	}
	if admins := deps.Session.Store().Snapshot().Admins; len(admins) != 1 || admins[0].Enabled {
		t.Fatalf("admins after disable = %#v", admins)
	}

	if err := deps.Session.SetSubscriptionEnabled(ctx, "alice", false); err != nil {
		t.Fatalf("SetSubscriptionEnabled: %v", err)
	}
	if sub, _ := srv.Subscription("alice"); sub.Enabled {
		t.Fatalf("subscription still enabled")
	}
}

func TestSession_ExportBackup(t *testing.T) {
	_, deps, _ := newTestDeps(t)
	signIn(t, deps)
	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	path, err := deps.Session.ExportBackup(context.Background(), dir, now)
	if err != nil {
		t.Fatalf("ExportBackup: %v", err)
	}
	if filepath.Base(path) != "guardcore-backup-20261016-093000.bin" {
		t.Fatalf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "backup-archive" {
		t.Fatalf("backup content = %q, %v", data, err)
	}
}
