// Package guardtest runs an in-process GuardCore backend for tests.
package guardtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/guardcore/guarddash/internal/guardcore"
)

const (
	DefaultUsername = "owner"
	DefaultPassword = "Secret123"
	DefaultToken    = "test-token"
	DefaultAPIKey   = "test-api-key"
)

// Request is one call observed by the server.
type Request struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// Server is a fake GuardCore backend. Seed data through the exported fields
// before issuing requests, or through the Seed helpers at any time.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	username      string
	password      string
	totp          string
	token         string
	apiKey        string
	admins        map[string]guardcore.AdminResponse
	nodes         map[int64]guardcore.NodeResponse
	services      map[int64]guardcore.ServiceResponse
	subscriptions map[string]guardcore.SubscriptionResponse
	stats         guardcore.StatsResponse
	backup        []byte
	failures      map[string]failure
	requests      []Request
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		username:      DefaultUsername,
		password:      DefaultPassword,
		token:         DefaultToken,
		apiKey:        DefaultAPIKey,
		admins:        map[string]guardcore.AdminResponse{},
		nodes:         map[int64]guardcore.NodeResponse{},
		services:      map[int64]guardcore.ServiceResponse{},
		subscriptions: map[string]guardcore.SubscriptionResponse{},
		backup:        []byte("backup-archive"),
		failures:      map[string]failure{},
	}
	s.admins[DefaultUsername] = guardcore.AdminResponse{
		ID:       1,
		Enabled:  true,
		Username: DefaultUsername,
		Role:     guardcore.RoleOwner,
		APIKey:   DefaultAPIKey,
	}
	s.Server = httptest.NewServer(s.handler())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) handler() http.Handler {
	r := httprouter.New()
	r.GET("/", s.health)
	r.GET("/api/stats", s.authed(s.getStats))
	r.GET("/api/admins", s.authed(s.listAdmins))
	r.GET("/api/admins/:username", s.authed(s.getAdmin))
	r.GET("/api/admins/:username/:action", s.authed(s.getAdminAction))
	r.POST("/api/admins/:username", s.postAdmin)
	r.POST("/api/admins/:username/:action", s.authed(s.postAdminAction))
	r.GET("/api/nodes", s.authed(s.listNodes))
	r.GET("/api/nodes/:id", s.authed(s.getNode))
	r.POST("/api/nodes/:id/:action", s.authed(s.postNodeAction))
	r.GET("/api/services", s.authed(s.listServices))
	r.GET("/api/subscriptions", s.authed(s.listSubscriptions))
	r.GET("/api/subscriptions/:username", s.authed(s.getSubscription))
	r.POST("/api/subscriptions/:action", s.authed(s.postSubscriptionAction))
	r.DELETE("/api/subscriptions", s.authed(s.deleteSubscriptions))

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		_ = req.Body.Close()
		req.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
			Body:   body,
		})
		f, failing := s.failures[req.Method+" "+req.URL.Path]
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		r.ServeHTTP(w, req)
	})
}

// Fail makes method+path answer status with body until Recover is called.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover removes an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// RequireTOTP makes login demand code as the totp_code query parameter.
func (s *Server) RequireTOTP(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totp = code
}

// SetStats replaces the dashboard statistics.
func (s *Server) SetStats(stats guardcore.StatsResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

func (s *Server) SeedAdmin(a guardcore.AdminResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[a.Username] = a
}

func (s *Server) SeedNode(n guardcore.NodeResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
}

func (s *Server) SeedService(svc guardcore.ServiceResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

func (s *Server) SeedSubscription(sub guardcore.SubscriptionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[sub.Username] = sub
}

// Subscription returns the stored subscription for username.
func (s *Server) Subscription(username string) (guardcore.SubscriptionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[username]
	return sub, ok
}

// Requests returns a copy of every observed request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls counts requests matching method and path.
func (s *Server) Calls(method, path string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request for method and path.
func (s *Server) LastRequest(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) authed(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s.mu.Lock()
		token, apiKey := s.token, s.apiKey
		s.mu.Unlock()

		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if bearer != token && r.Header.Get("X-API-Key") != apiKey {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next(w, r, ps)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.stats)
}

func (s *Server) listAdmins(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]guardcore.AdminResponse, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAdmin(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ps.ByName("username")
	if name == "current" {
		name = s.username
	}
	a, ok := s.admins[name]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Admin not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getAdminAction(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps.ByName("username") == "current" && ps.ByName("action") == "backup" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(s.backup)
		return
	}
	writeDetail(w, http.StatusNotFound, "Not Found")
}

func (s *Server) postAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("username") != "token" {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.PostForm.Get("grant_type") != "password" {
		writeValidation(w, "grant_type", "field required")
		return
	}
	if r.PostForm.Get("username") != s.username || r.PostForm.Get("password") != s.password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if s.totp != "" && r.URL.Query().Get("totp_code") != s.totp {
		writeDetail(w, http.StatusUnauthorized, "Invalid TOTP code")
		return
	}
	writeJSON(w, http.StatusOK, guardcore.AdminToken{AccessToken: s.token, TokenType: "bearer"})
}

func (s *Server) postAdminAction(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[ps.ByName("username")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Admin not found")
		return
	}
	switch ps.ByName("action") {
	case "enable":
		a.Enabled = true
	case "disable":
		a.Enabled = false
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	s.admins[a.Username] = a
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) listNodes(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]guardcore.NodeResponse, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getNode(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps.ByName("id") == "stats" {
		var stats guardcore.NodeStatsResponse
		for _, n := range s.nodes {
			stats.TotalNodes++
			if n.Enabled {
				stats.ActiveNodes++
			} else {
				stats.InactiveNodes++
			}
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}
	n, ok := s.node(ps.ByName("id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Node not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) postNodeAction(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.node(ps.ByName("id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Node not found")
		return
	}
	switch ps.ByName("action") {
	case "enable":
		n.Enabled = true
	case "disable":
		n.Enabled = false
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	s.nodes[n.ID] = n
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) node(raw string) (guardcore.NodeResponse, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return guardcore.NodeResponse{}, false
	}
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Server) listServices(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]guardcore.ServiceResponse, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filteredSubscriptions(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if page > 0 && size > 0 {
		start := min((page-1)*size, len(out))
		end := min(start+size, len(out))
		out = out[start:end]
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) filteredSubscriptions(r *http.Request) []guardcore.SubscriptionResponse {
	q := r.URL.Query()
	out := make([]guardcore.SubscriptionResponse, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		if v := q.Get("enabled"); v != "" && strconv.FormatBool(sub.Enabled) != v {
			continue
		}
		if v := q.Get("limited"); v != "" && strconv.FormatBool(sub.Limited) != v {
			continue
		}
		if v := q.Get("expired"); v != "" && strconv.FormatBool(sub.Expired) != v {
			continue
		}
		out = append(out, sub)
	}
	if q.Get("order_by") == "created_at_desc" {
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ps.ByName("username") {
	case "count":
		writeJSON(w, http.StatusOK, len(s.filteredSubscriptions(r)))
		return
	case "stats":
		var stats guardcore.SubscriptionStatsResponse
		for _, sub := range s.subscriptions {
			stats.Total++
			if sub.IsActive {
				stats.Active++
			} else {
				stats.Inactive++
			}
			if !sub.Enabled {
				stats.Disabled++
			}
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}
	sub, ok := s.subscriptions[ps.ByName("username")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Subscription not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type usernames struct {
	Usernames []string `json:"usernames"`
}

func (s *Server) postSubscriptionAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body usernames
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "usernames", "field required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]guardcore.SubscriptionResponse, 0, len(body.Usernames))
	for _, name := range body.Usernames {
		sub, ok := s.subscriptions[name]
		if !ok {
			continue
		}
		switch ps.ByName("action") {
		case "enable":
			sub.Enabled = true
		case "disable":
			sub.Enabled = false
		case "reset":
			sub.CurrentUsage = 0
		case "revoke":
			sub.AccessKey = sub.AccessKey + "-revoked"
		default:
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		s.subscriptions[name] = sub
		out = append(out, sub)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteSubscriptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body usernames
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "usernames", "field required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range body.Usernames {
		delete(s.subscriptions, name)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"loc":  []any{"body", field},
			"msg":  msg,
			"type": "value_error",
		}},
	})
}
