package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/logger"
)

const (
	taskPollInterval = 100 * time.Millisecond
	singleTaskWait   = 10 * time.Second
	batchTaskWait    = 30 * time.Second
)

// TaskWaiter polls the search engine's asynchronous write-task status to
// completion or timeout. Timeouts are non-fatal: the index self-corrects on
// the next sync, so the waiter logs and returns instead of failing the
// caller.
//
//go:generate mockgen -source=waiter.go -destination=../mocks/waiter.go -package=mocks
type TaskWaiter interface {
	// AwaitTask waits for a single task, bounded by 10s
	AwaitTask(ctx context.Context, uid int64) error

	// AwaitTasks waits for a batch of tasks under one shared 30s deadline
	AwaitTasks(ctx context.Context, uids []int64) error
}

type taskWaiter struct {
	index adapter.SearchIndex
	clock adapter.Clock
}

// NewTaskWaiter creates a task waiter over the given index
func NewTaskWaiter(index adapter.SearchIndex, clock adapter.Clock) TaskWaiter {
	return &taskWaiter{index: index, clock: clock}
}

func (w *taskWaiter) AwaitTask(ctx context.Context, uid int64) error {
	return w.awaitUntil(ctx, uid, w.clock.Now().Add(singleTaskWait))
}

func (w *taskWaiter) AwaitTasks(ctx context.Context, uids []int64) error {
	deadline := w.clock.Now().Add(batchTaskWait)
	for _, uid := range uids {
		if err := w.awaitUntil(ctx, uid, deadline); err != nil {
			return err
		}
	}
	return nil
}

// awaitUntil polls one task until it leaves enqueued/processing or the
// deadline passes. An already-terminal task returns without sleeping.
func (w *taskWaiter) awaitUntil(ctx context.Context, uid int64, deadline time.Time) error {
	for {
		info, err := w.index.GetTask(ctx, uid)
		if err != nil {
			return err
		}
		if info.Status.Terminal() {
			if info.Status != domain.TaskStatusSucceeded {
				logger.WarnCtx(ctx, "Search task finished unsuccessfully",
					zap.Int64("task_uid", uid),
					zap.String("status", string(info.Status)),
				)
			}
			return nil
		}

		if !w.clock.Now().Before(deadline) {
			logger.WarnCtx(ctx, "Timed out waiting for search task",
				zap.Int64("task_uid", uid),
				zap.String("status", string(info.Status)),
			)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(taskPollInterval):
		}
	}
}
