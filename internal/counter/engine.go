// Package counter implements the download-event deduplication and counting
// engine: a periodic background cycle that drains the raw event queue,
// filters duplicates against the history ledger, and flushes relative
// increments to the project/version counters and daily stats.
package counter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/engine"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/queue"
	"github.com/modhaven/mh-aggregator/internal/store"
)

const (
	// identityDownloadCap is the number of accepted downloads one identity
	// (IP or user) gets per project per history window before further
	// downloads of any version stop counting
	identityDownloadCap = 3

	defaultCycleInterval = 10 * time.Minute
	defaultFlushWorkers  = 8
)

// Config holds configuration for the download counter engine
type Config struct {
	CycleInterval time.Duration // time between counter cycles
	FlushWorkers  int           // concurrent counter-flush writers
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.CycleInterval == 0 {
		out.CycleInterval = defaultCycleInterval
	}
	if out.FlushWorkers == 0 {
		out.FlushWorkers = defaultFlushWorkers
	}
	return out
}

// Processor is the single operation the counter engine exposes to
// collaborators (the drain utility forces one final cycle through it)
type Processor interface {
	// ProcessDownloads runs one full counter cycle. Idempotent per event;
	// not safe to invoke concurrently with itself, which the processing
	// gate enforces across processes.
	ProcessDownloads(ctx context.Context) error
}

// counterEngine implements the periodic download counter
type counterEngine struct {
	config    Config
	store     store.Store
	events    queue.EventQueue
	history   queue.HistoryLedger
	gate      queue.ProcessingGate
	syncQueue queue.SyncQueue
	clock     adapter.Clock

	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// Engine combines the periodic loop with the one-shot processing operation
type Engine interface {
	engine.Engine
	Processor
}

// NewEngine creates a download counter engine
func NewEngine(
	config *Config,
	st store.Store,
	events queue.EventQueue,
	history queue.HistoryLedger,
	gate queue.ProcessingGate,
	syncQueue queue.SyncQueue,
	clock adapter.Clock,
) Engine {
	return &counterEngine{
		config:    config.withDefaults(),
		store:     st,
		events:    events,
		history:   history,
		gate:      gate,
		syncQueue: syncQueue,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the engine's name
func (e *counterEngine) Name() string {
	return "download-counter"
}

// Start begins the engine's periodic loop
func (e *counterEngine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("download counter already running")
	}
	defer func() {
		e.running.Store(false)
		close(e.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting download counter",
		zap.Duration("cycle_interval", e.config.CycleInterval),
		zap.Int("flush_workers", e.config.FlushWorkers),
	)

	for {
		if err := e.ProcessDownloads(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Download counter stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-e.stopChan:
			logger.InfoCtx(ctx, "Download counter stop requested")
			return nil
		case <-e.clock.After(e.config.CycleInterval):
		}
	}
}

// Stop gracefully stops the engine, waiting for any in-flight cycle
func (e *counterEngine) Stop(ctx context.Context) error {
	if !e.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping download counter")
	close(e.stopChan)

	select {
	case <-e.stoppedCh:
		logger.InfoCtx(ctx, "Download counter stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Download counter stop interrupted by context timeout")
		return ctx.Err()
	}
}

// ProcessDownloads runs a single counter cycle: gate, rollover, drain,
// dedup, flush, re-index
func (e *counterEngine) ProcessDownloads(ctx context.Context) error {
	acquired, err := e.gate.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to check processing gate: %w", err)
	}
	if !acquired {
		logger.DebugCtx(ctx, "Skipping counter cycle, processing gate held elsewhere")
		return nil
	}
	defer func() {
		// Release is unconditional; a stuck gate self-heals via the lease
		// TTL but every normal exit should clear it immediately
		if err := e.gate.Release(ctx); err != nil {
			logger.ErrorCtx(ctx, err)
		}
	}()

	cycleID := ulid.Make().String()
	startTime := e.clock.Now()
	log := logger.FromContext(ctx).With(zap.String("cycle_id", cycleID))

	e.rollDailyStats(ctx, log)

	events, err := e.events.Drain(ctx)
	if err != nil {
		return fmt.Errorf("failed to drain event queue: %w", err)
	}
	if len(events) == 0 {
		log.Debug("No download events queued")
		return nil
	}

	history, err := e.history.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history ledger: %w", err)
	}

	projectDeltas := make(map[uint64]uint64)
	versionDeltas := make(map[uint64]uint64)
	var accepted, discarded int

	// Dedup in original enqueue order. The history slice grows as events
	// from earlier in this pass are accepted, so an in-batch repeat is
	// judged against its predecessors.
	for _, event := range events {
		if isDuplicate(event, history) {
			discarded++
			continue
		}

		if err := e.history.Append(ctx, event); err != nil {
			// The event still counts this cycle; only the dedup window for
			// later cycles is weakened
			log.Warn("Failed to persist history entry",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
		history = append(history, event)
		projectDeltas[event.ProjectID]++
		versionDeltas[event.VersionID]++
		accepted++
	}

	today := dateOf(e.clock.Now())
	e.flushCounters(ctx, log, projectDeltas, versionDeltas, today)

	if err := e.enqueueTouchedProjects(ctx, projectDeltas); err != nil {
		log.Error("Failed to enqueue touched projects for re-indexing", zap.Error(err))
	}

	log.Info("Counter cycle completed",
		zap.Duration("duration", e.clock.Since(startTime)),
		zap.Int("drained", len(events)),
		zap.Int("accepted", accepted),
		zap.Int("discarded", discarded),
		zap.Int("touched_projects", len(projectDeltas)),
	)
	return nil
}

// isDuplicate reports whether event repeats an already-accepted download in
// the current history window. A history entry is evidence when it has a
// different event id, the same project, and a matching identity (same IP, or
// same non-empty user id). A same-version match is always a duplicate; a
// cross-version match only once the identity has identityDownloadCap
// accepted downloads for the project in this window.
func isDuplicate(event domain.DownloadEvent, history []domain.DownloadEvent) bool {
	identityMatches := 0
	for _, entry := range history {
		if entry.ID == event.ID || entry.ProjectID != event.ProjectID {
			continue
		}
		if !event.SameIdentity(entry) {
			continue
		}
		if entry.VersionID == event.VersionID {
			return true
		}
		identityMatches++
	}
	return identityMatches >= identityDownloadCap
}

// flushCounters issues the relative increment writes for every touched
// version and project. Each entity flushes independently: one failed write
// is logged and skipped, the rest of the batch still commits.
func (e *counterEngine) flushCounters(
	ctx context.Context,
	log *zap.Logger,
	projectDeltas, versionDeltas map[uint64]uint64,
	today time.Time,
) {
	pool := pond.NewPool(e.config.FlushWorkers, pond.WithContext(ctx))
	var failed atomic.Int32

	for versionID, n := range versionDeltas {
		pool.Submit(func() {
			if err := e.store.IncrementVersionDownloads(ctx, versionID, n); err != nil {
				failed.Add(1)
				log.Error("Failed to increment version downloads",
					zap.Uint64("version_id", versionID),
					zap.Uint64("delta", n),
					zap.Error(err),
				)
			}
		})
	}

	for projectID, n := range projectDeltas {
		pool.Submit(func() {
			if err := e.store.IncrementProjectDownloads(ctx, projectID, n); err != nil {
				failed.Add(1)
				log.Error("Failed to increment project downloads",
					zap.Uint64("project_id", projectID),
					zap.Uint64("delta", n),
					zap.Error(err),
				)
				return
			}
			if err := e.store.UpsertDailyDownloads(ctx, projectID, today, n); err != nil {
				failed.Add(1)
				log.Error("Failed to upsert daily downloads",
					zap.Uint64("project_id", projectID),
					zap.Uint64("delta", n),
					zap.Error(err),
				)
			}
		})
	}

	pool.StopAndWait()

	if n := failed.Load(); n > 0 {
		log.Warn("Counter flush completed with failures", zap.Int32("failed_writes", n))
	}
}

// enqueueTouchedProjects pushes every project that gained downloads onto the
// search sync added queue, retrying with backoff: a lost push means a stale
// search document until the next full resync
func (e *counterEngine) enqueueTouchedProjects(ctx context.Context, projectDeltas map[uint64]uint64) error {
	if len(projectDeltas) == 0 {
		return nil
	}

	touched := make([]uint64, 0, len(projectDeltas))
	for projectID := range projectDeltas {
		touched = append(touched, projectID)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 1 * time.Minute

	return backoff.Retry(func() error {
		return e.syncQueue.Enqueue(ctx, touched, nil)
	}, backoff.WithContext(b, ctx))
}

// dateOf truncates a timestamp to its UTC calendar day
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
