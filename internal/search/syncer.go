package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/engine"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/queue"
	"github.com/modhaven/mh-aggregator/internal/store"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

const (
	defaultSyncInterval       = 10 * time.Minute
	defaultFullResyncInterval = 24 * time.Hour
	defaultBatchSize          = 1000
)

// Config holds configuration for the search sync engine
type Config struct {
	SyncInterval       time.Duration // time between sync ticks
	FullResyncInterval time.Duration // minimum age of the last full resync before the next
	BatchSize          int           // documents per upsert/delete batch and keyset page size
	RecentWindow       time.Duration // window for recent-download counts on documents
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.SyncInterval == 0 {
		out.SyncInterval = defaultSyncInterval
	}
	if out.FullResyncInterval == 0 {
		out.FullResyncInterval = defaultFullResyncInterval
	}
	if out.BatchSize == 0 {
		out.BatchSize = defaultBatchSize
	}
	return out
}

// Syncer is the one-shot sync operation, exposed separately from the
// periodic loop so tests and the drain utility can drive single ticks
type Syncer interface {
	// RunSync performs one sync tick: a full resync when the last one is
	// old enough, otherwise an incremental drain of the sync queues.
	// Re-entrancy within one process is guarded locally; unlike the
	// counter cycle there is no cross-process gate, concurrent upserts of
	// identical documents are idempotent.
	RunSync(ctx context.Context) error
}

// Engine combines the periodic loop with the one-shot sync operation
type Engine interface {
	engine.Engine
	Syncer
}

type syncEngine struct {
	config    Config
	store     store.Store
	syncQueue queue.SyncQueue
	index     adapter.SearchIndex
	formatter DocumentFormatter
	waiter    TaskWaiter
	clock     adapter.Clock

	syncing   atomic.Bool // process-local re-entrancy guard
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewEngine creates a search sync engine
func NewEngine(
	config *Config,
	st store.Store,
	syncQueue queue.SyncQueue,
	index adapter.SearchIndex,
	formatter DocumentFormatter,
	waiter TaskWaiter,
	clock adapter.Clock,
) Engine {
	return &syncEngine{
		config:    config.withDefaults(),
		store:     st,
		syncQueue: syncQueue,
		index:     index,
		formatter: formatter,
		waiter:    waiter,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the engine's name
func (s *syncEngine) Name() string {
	return "search-sync"
}

// Start begins the engine's periodic loop
func (s *syncEngine) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("search sync already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting search sync",
		zap.Duration("sync_interval", s.config.SyncInterval),
		zap.Duration("full_resync_interval", s.config.FullResyncInterval),
		zap.Int("batch_size", s.config.BatchSize),
	)

	for {
		if err := s.RunSync(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Search sync stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Search sync stop requested")
			return nil
		case <-s.clock.After(s.config.SyncInterval):
		}
	}
}

// Stop gracefully stops the engine, waiting for any in-flight tick
func (s *syncEngine) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping search sync")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Search sync stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Search sync stop interrupted by context timeout")
		return ctx.Err()
	}
}

// RunSync performs one sync tick
func (s *syncEngine) RunSync(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		logger.DebugCtx(ctx, "Skipping sync tick, previous tick still running")
		return nil
	}
	defer s.syncing.Store(false)

	lastFull, err := s.store.GetLastFullSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last full sync: %w", err)
	}

	if s.clock.Now().Sub(lastFull) >= s.config.FullResyncInterval {
		return s.fullResync(ctx)
	}
	return s.incrementalSync(ctx)
}

// fullResync rebuilds the entire index from the primary store: settings,
// wholesale delete, then keyset-paginated upserts
func (s *syncEngine) fullResync(ctx context.Context) error {
	startTime := s.clock.Now()
	logger.InfoCtx(ctx, "Starting full search resync")

	settingsTask, err := s.index.UpdateSettings(ctx, indexSettings())
	if err != nil {
		return fmt.Errorf("failed to update index settings: %w", err)
	}
	if err := s.waiter.AwaitTask(ctx, settingsTask.UID); err != nil {
		return fmt.Errorf("failed to await settings task: %w", err)
	}

	deleteTask, err := s.index.DeleteAllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete all documents: %w", err)
	}
	if err := s.waiter.AwaitTask(ctx, deleteTask.UID); err != nil {
		return fmt.Errorf("failed to await delete task: %w", err)
	}

	var (
		afterID  uint64
		total    int
		taskUIDs []int64
	)
	for {
		page, err := s.store.ListIndexableProjects(ctx, afterID, s.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list indexable projects: %w", err)
		}

		if len(page) > 0 {
			docs, err := s.formatter.Format(ctx, page)
			if err != nil {
				return fmt.Errorf("failed to format documents: %w", err)
			}
			task, err := s.index.UpsertDocuments(ctx, docs)
			if err != nil {
				return fmt.Errorf("failed to upsert documents: %w", err)
			}
			taskUIDs = append(taskUIDs, task.UID)
			total += len(docs)
			afterID = page[len(page)-1].ID
		}

		if len(page) < s.config.BatchSize {
			break
		}
	}

	if err := s.waiter.AwaitTasks(ctx, taskUIDs); err != nil {
		return fmt.Errorf("failed to await upsert tasks: %w", err)
	}

	if err := s.store.SetLastFullSync(ctx, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to record full sync time: %w", err)
	}

	logger.InfoCtx(ctx, "Full search resync completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("documents", total),
	)
	return nil
}

// incrementalSync drains the deduplicated add/remove id lists into batched
// document upserts and deletes
func (s *syncEngine) incrementalSync(ctx context.Context) error {
	added, err := s.syncQueue.DrainAdded(ctx)
	if err != nil {
		return fmt.Errorf("failed to drain added queue: %w", err)
	}
	removed, err := s.syncQueue.DrainRemoved(ctx)
	if err != nil {
		return fmt.Errorf("failed to drain removed queue: %w", err)
	}
	if len(added) == 0 && len(removed) == 0 {
		logger.DebugCtx(ctx, "No search sync work queued")
		return nil
	}

	for _, batch := range chunk(added, s.config.BatchSize) {
		if err := s.upsertBatch(ctx, batch); err != nil {
			return err
		}
	}

	for _, batch := range chunk(removed, s.config.BatchSize) {
		if err := s.deleteBatch(ctx, batch); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "Incremental search sync completed",
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)),
	)
	return nil
}

// upsertBatch re-indexes one batch of touched projects. Projects that are
// no longer indexable (or no longer exist) get a removal enqueued instead
// of a stale document.
func (s *syncEngine) upsertBatch(ctx context.Context, ids []uint64) error {
	projects, err := s.store.GetProjectsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load projects for sync: %w", err)
	}

	found := make(map[uint64]struct{}, len(projects))
	indexable := make([]schema.Project, 0, len(projects))
	var toRemove []uint64
	for _, p := range projects {
		found[p.ID] = struct{}{}
		if p.Indexable() {
			indexable = append(indexable, p)
		} else {
			toRemove = append(toRemove, p.ID)
		}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}

	if len(indexable) > 0 {
		docs, err := s.formatter.Format(ctx, indexable)
		if err != nil {
			return fmt.Errorf("failed to format documents: %w", err)
		}
		task, err := s.index.UpsertDocuments(ctx, docs)
		if err != nil {
			return fmt.Errorf("failed to upsert documents: %w", err)
		}
		if err := s.waiter.AwaitTask(ctx, task.UID); err != nil {
			return fmt.Errorf("failed to await upsert task: %w", err)
		}
	}

	if len(toRemove) > 0 {
		logger.InfoCtx(ctx, "Queueing removals for non-indexable projects",
			zap.Int("count", len(toRemove)),
		)
		if err := s.syncQueue.Enqueue(ctx, nil, toRemove); err != nil {
			return fmt.Errorf("failed to enqueue removals: %w", err)
		}
	}
	return nil
}

// deleteBatch removes one batch of project documents from the index
func (s *syncEngine) deleteBatch(ctx context.Context, ids []uint64) error {
	docIDs := make([]string, len(ids))
	for i, id := range ids {
		docIDs[i] = strconv.FormatUint(id, 10)
	}

	task, err := s.index.DeleteDocuments(ctx, docIDs)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if err := s.waiter.AwaitTask(ctx, task.UID); err != nil {
		return fmt.Errorf("failed to await delete task: %w", err)
	}
	return nil
}

// chunk splits ids into batches of at most size
func chunk(ids []uint64, size int) [][]uint64 {
	if len(ids) == 0 {
		return nil
	}
	var batches [][]uint64
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}
