// Package queue holds the shared mutable state both engines coordinate
// through: the raw download-event queue, the dedup history ledger, the
// processing gate, and the search-sync id lists. All of it lives in an
// external store because multiple server processes run the same timers.
package queue

import (
	"context"

	"github.com/modhaven/mh-aggregator/internal/domain"
)

// EventQueue is the FIFO list of raw download attempts submitted by the
// file-serving collaborator
//
//go:generate mockgen -source=queue.go -destination=../mocks/queue.go -package=mocks
type EventQueue interface {
	// Enqueue appends a freshly-id'd event. No dedup happens here; all
	// filtering is the counter engine's job.
	Enqueue(ctx context.Context, event domain.DownloadEvent) error

	// Drain atomically reads and deletes the entire queue. Events enqueued
	// after the drain instant start the next cycle's queue; no event is
	// returned twice.
	Drain(ctx context.Context) ([]domain.DownloadEvent, error)
}

// HistoryLedger is the append log of previously-accepted downloads used as
// the dedup reference set. It is cleared wholesale on a timer, not expired
// per entry: the dedup window is "since the last clear".
type HistoryLedger interface {
	// Append records an accepted event
	Append(ctx context.Context, entry domain.DownloadEvent) error

	// ReadAll returns every entry without removing them
	ReadAll(ctx context.Context) ([]domain.DownloadEvent, error)

	// ClearAll wipes the ledger
	ClearAll(ctx context.Context) error
}

// ProcessingGate is the cross-process single-runner guard for the counter
// cycle. Implemented as an atomic conditional-set-with-expiry lease rather
// than the historical check-then-set boolean, so two runners can no longer
// both observe "not processing" and double-run.
type ProcessingGate interface {
	// TryAcquire attempts to take the lease. Returns false when another
	// runner holds it.
	TryAcquire(ctx context.Context) (bool, error)

	// Release drops the lease. Safe to call when not held.
	Release(ctx context.Context) error

	// Held reports whether any runner currently holds the lease
	Held(ctx context.Context) (bool, error)
}

// SyncQueue is the pair of FIFO id lists driving incremental search-index
// updates. Duplicate pushes are expected and deduplicated at drain time.
type SyncQueue interface {
	// Enqueue appends project ids to the added and removed lists
	Enqueue(ctx context.Context, added, removed []uint64) error

	// DrainAdded atomically drains and deduplicates the added list
	DrainAdded(ctx context.Context) ([]uint64, error)

	// DrainRemoved atomically drains and deduplicates the removed list
	DrainRemoved(ctx context.Context) ([]uint64, error)
}
