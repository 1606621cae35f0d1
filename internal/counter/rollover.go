package counter

import (
	"context"

	"go.uber.org/zap"
)

// rollDailyStats migrates exhausted per-day counters into the downloads
// archive and resets them for today. Runs at the start of every counter
// cycle, so staleness is bounded by the cycle interval rather than by
// wall-clock midnight. Rollover failures never abort the cycle: a stale row
// is retried on the next cycle.
func (e *counterEngine) rollDailyStats(ctx context.Context, log *zap.Logger) {
	today := dateOf(e.clock.Now())

	rows, err := e.store.ListRolloverCandidates(ctx, today)
	if err != nil {
		log.Error("Failed to list daily stats rollover candidates", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}

	var rolled int
	for _, row := range rows {
		if err := e.store.RolloverDailyStats(ctx, row, today); err != nil {
			log.Error("Failed to roll over daily stats",
				zap.Uint64("project_id", row.ProjectID),
				zap.Time("date", row.Date),
				zap.Error(err),
			)
			continue
		}
		rolled++
	}

	log.Info("Daily stats rollover completed",
		zap.Int("candidates", len(rows)),
		zap.Int("rolled", rolled),
	)
}
