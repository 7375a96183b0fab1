package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/guardcore/guarddash/internal/guardcore"
)

// Snapshot represents the latest dashboard data available to the UI.
type Snapshot struct {
	Stats             guardcore.StatsResponse
	HasStats          bool
	CurrentAdmin      *guardcore.AdminResponse
	Admins            []guardcore.AdminResponse
	Nodes             []guardcore.NodeResponse
	Services          []guardcore.ServiceResponse
	Subscriptions     []guardcore.SubscriptionResponse
	SubscriptionCount int64

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed refreshes
}

// IsOffline returns true when the API has been unreachable for multiple refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// IsOwner reports whether the signed-in admin has the owner role.
func (s Snapshot) IsOwner() bool {
	return s.CurrentAdmin != nil && s.CurrentAdmin.Role == guardcore.RoleOwner
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// RecordError keeps the previous data and records err for visibility.
func (s *Store) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
}

func (s *Store) update(apply func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.snapshot)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// UpdateStats replaces the dashboard statistics. A nil stats clears them.
func (s *Store) UpdateStats(stats *guardcore.StatsResponse) {
	s.update(func(snap *Snapshot) {
		if stats == nil {
			snap.Stats = guardcore.StatsResponse{}
			snap.HasStats = false
			return
		}
		snap.Stats = *stats
		snap.HasStats = true
	})
}

// UpdateCurrentAdmin replaces the signed-in admin.
func (s *Store) UpdateCurrentAdmin(admin *guardcore.AdminResponse) {
	s.update(func(snap *Snapshot) {
		snap.CurrentAdmin = cloneAdmin(admin)
	})
}

func (s *Store) UpdateAdmins(admins []guardcore.AdminResponse) {
	s.update(func(snap *Snapshot) {
		snap.Admins = clone(admins)
	})
}

func (s *Store) UpdateNodes(nodes []guardcore.NodeResponse) {
	s.update(func(snap *Snapshot) {
		snap.Nodes = clone(nodes)
	})
}

func (s *Store) UpdateServices(services []guardcore.ServiceResponse) {
	s.update(func(snap *Snapshot) {
		snap.Services = clone(services)
	})
}

// UpdateSubscriptions replaces the current subscription page and total.
func (s *Store) UpdateSubscriptions(subs []guardcore.SubscriptionResponse, count int64) {
	s.update(func(snap *Snapshot) {
		snap.Subscriptions = clone(subs)
		snap.SubscriptionCount = count
	})
}

// Reset drops all data, as on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.CurrentAdmin = cloneAdmin(s.snapshot.CurrentAdmin)
	snap.Admins = clone(s.snapshot.Admins)
	snap.Nodes = clone(s.snapshot.Nodes)
	snap.Services = clone(s.snapshot.Services)
	snap.Subscriptions = clone(s.snapshot.Subscriptions)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func clone[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	return slices.Clone(items)
}

func cloneAdmin(a *guardcore.AdminResponse) *guardcore.AdminResponse {
	if a == nil {
		return nil
	}
	dup := *a
	return &dup
}
