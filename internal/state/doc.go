// Package state holds the dashboard data shared between the refresh
// controllers and the UI.
//
// Writers are the Session fetch methods, which run on refresh goroutines.
// The UI is the only reader and takes a Snapshot on every tick. Snapshot
// copies every slice so the UI can sort and slice rows without locking.
//
// A failed fetch keeps the previous data and bumps ConsecutiveFailures;
// two in a row mark the snapshot offline. Reset clears everything on logout.
package state
