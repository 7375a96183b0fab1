package app

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/toast"
)

type toastRecorder struct {
	mu     sync.Mutex
	toasts []toast.Toast
}

func (r *toastRecorder) Notify(t toast.Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

func TestSilenced(t *testing.T) {
	tests := []struct {
		method   string
		endpoint string
		want     bool
	}{
		{http.MethodGet, "/api/stats", true},
		{http.MethodGet, "/api/stats/usages", true},
		{http.MethodGet, "/api/subscriptions/stats", true},
		{http.MethodGet, "/api/admins/current", true},
		{http.MethodGet, "/api/admins/current/usages", true},
		{http.MethodPut, "/api/admins/current", false},
		{http.MethodPost, "/api/stats", false},
		{http.MethodGet, "/api/admins", false},
		{http.MethodGet, "/api/subscriptions", false},
		{http.MethodGet, "/api/nodes/stats", false},
	}
	for _, tt := range tests {
		err := &guardcore.APIError{Method: tt.method, Endpoint: tt.endpoint, Status: 500}
		if got := Silenced(err); got != tt.want {
			t.Fatalf("Silenced(%s %s) = %v, want %v", tt.method, tt.endpoint, got, tt.want)
		}
	}
	if Silenced(nil) {
		t.Fatalf("Silenced(nil) = true")
	}
}

func TestDescribe(t *testing.T) {
	plain := &guardcore.APIError{Status: 404, Message: "Node not found"}
	if got := Describe(plain); got != "Status: 404 - Node not found" {
		t.Fatalf("Describe(plain) = %q", got)
	}

	validation := &guardcore.APIError{
		Status:  422,
		Message: "username: too short, password: weak",
		Detail: guardcore.ErrorDetail{
			Kind: guardcore.DetailValidation,
			Validations: []guardcore.ValidationError{
				{Loc: []any{"body", "username"}, Msg: "too short"},
				{Loc: []any{"body", "password"}, Msg: "weak"},
			},
			Raw: json.RawMessage(`{}`),
		},
	}
	if got := Describe(validation); got != "Status: 422 - too short, weak" {
		t.Fatalf("Describe(validation) = %q", got)
	}

	network := &guardcore.APIError{Status: 0, Message: "connection refused"}
	if got := Describe(network); got != "Status: 0 - connection refused" {
		t.Fatalf("Describe(network) = %q", got)
	}
}

func TestReporter_HandleAPIError(t *testing.T) {
	rec := &toastRecorder{}
	r := NewReporter(rec, nil)

	r.HandleAPIError(&guardcore.APIError{Method: http.MethodGet, Endpoint: "/api/stats", Status: 500, Timestamp: time.Now()})
	if len(rec.toasts) != 0 {
		t.Fatalf("silenced endpoint toasted: %#v", rec.toasts)
	}

	r.HandleAPIError(&guardcore.APIError{Method: http.MethodPost, Endpoint: "/api/nodes/3/enable", Status: 403, Message: "Forbidden"})
	if len(rec.toasts) != 1 {
		t.Fatalf("toasts = %d, want 1", len(rec.toasts))
	}
	got := rec.toasts[0]
	if got.Level != toast.LevelError || got.Message != "POST /api/nodes/3/enable" ||
		got.Description != "Status: 403 - Forbidden" || got.Duration != 10*time.Second {
		t.Fatalf("toast = %#v", got)
	}

	r.HandleAPIError(nil)
	NewReporter(nil, nil).HandleAPIError(&guardcore.APIError{Method: http.MethodPost})
}
