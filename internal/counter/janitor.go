package counter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/engine"
	"github.com/modhaven/mh-aggregator/internal/logger"
	"github.com/modhaven/mh-aggregator/internal/queue"
)

// defaultHistoryWindow is the dedup validity window: the ledger is wiped
// wholesale on this period, it does not expire per entry. Download pairs
// straddling a clear boundary are both accepted; that is the historical,
// intentional behavior.
const defaultHistoryWindow = 3 * time.Hour

// historyJanitor periodically clears the history ledger
type historyJanitor struct {
	window  time.Duration
	history queue.HistoryLedger
	clock   adapter.Clock

	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewHistoryJanitor creates the periodic history-clearing engine. A zero
// window means the default of 3 hours.
func NewHistoryJanitor(window time.Duration, history queue.HistoryLedger, clock adapter.Clock) engine.Engine {
	if window == 0 {
		window = defaultHistoryWindow
	}
	return &historyJanitor{
		window:    window,
		history:   history,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the engine's name
func (j *historyJanitor) Name() string {
	return "history-janitor"
}

// Start begins the clearing loop. The first clear happens one full window
// after start, then every window since the previous clear.
func (j *historyJanitor) Start(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		return fmt.Errorf("history janitor already running")
	}
	defer func() {
		j.running.Store(false)
		close(j.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting history janitor", zap.Duration("window", j.window))

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "History janitor stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-j.stopChan:
			logger.InfoCtx(ctx, "History janitor stop requested")
			return nil
		case <-j.clock.After(j.window):
		}

		if err := j.history.ClearAll(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
			continue
		}
		logger.InfoCtx(ctx, "History ledger cleared", zap.Duration("window", j.window))
	}
}

// Stop gracefully stops the janitor
func (j *historyJanitor) Stop(ctx context.Context) error {
	if !j.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping history janitor")
	close(j.stopChan)

	select {
	case <-j.stoppedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
