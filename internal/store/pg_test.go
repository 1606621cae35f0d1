package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/modhaven/mh-aggregator/internal/store"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

var (
	statsToday     = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	statsYesterday = statsToday.AddDate(0, 0, -1)
)

// newTestStore opens an in-memory sqlite database and creates the analytics
// tables by hand: the production schema carries postgres column defaults the
// sqlite dialect cannot migrate. Single connection, so every query sees the
// same in-memory database.
func newTestStore(t *testing.T) (store.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE project_daily_stats (
			project_id INTEGER PRIMARY KEY,
			date DATETIME NOT NULL,
			downloads INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME
		)`,
		`CREATE TABLE project_downloads_archive (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL,
			date DATETIME NOT NULL,
			downloads INTEGER NOT NULL,
			created_at DATETIME,
			UNIQUE (project_id, date)
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return store.NewPGStore(db), db
}

func TestPGStore_UpsertDailyDownloads_Increments(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsToday, 2))
	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsToday, 4))

	recent, err := s.GetRecentDownloads(ctx, []uint64{1}, statsYesterday)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{1: 6}, recent)
}

func TestPGStore_UpsertDailyDownloads_KeepsStaleDate(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	// A row the rollover has not archived yet keeps counting under its
	// stored date; only the rollover itself may advance it
	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsYesterday, 5))
	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsToday, 3))

	var row schema.ProjectDailyStats
	require.NoError(t, db.First(&row, "project_id = ?", 1).Error)
	assert.Equal(t, uint64(8), row.Downloads)
	assert.True(t, row.Date.Equal(statsYesterday), "stale row was re-dated to %v", row.Date)

	// Still a rollover candidate, with nothing lost
	candidates, err := s.ListRolloverCandidates(ctx, statsToday)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(8), candidates[0].Downloads)
}

func TestPGStore_ListRolloverCandidates_SkipsCurrentDay(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsYesterday, 5))
	require.NoError(t, s.UpsertDailyDownloads(ctx, 2, statsToday, 3))

	candidates, err := s.ListRolloverCandidates(ctx, statsToday)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint64(1), candidates[0].ProjectID)
	assert.Equal(t, uint64(5), candidates[0].Downloads)
}

func TestPGStore_RolloverDailyStats(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsYesterday, 5))
	require.NoError(t, s.UpsertDailyDownloads(ctx, 2, statsToday, 3))

	candidates, err := s.ListRolloverCandidates(ctx, statsToday)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	require.NoError(t, s.RolloverDailyStats(ctx, candidates[0], statsToday))

	// Yesterday's count landed in the archive under its stored date
	var archived schema.ProjectDownloadsArchive
	require.NoError(t, db.First(&archived, "project_id = ?", 1).Error)
	assert.Equal(t, uint64(5), archived.Downloads)
	assert.True(t, archived.Date.Equal(statsYesterday))

	// The live row was reset for today
	var live schema.ProjectDailyStats
	require.NoError(t, db.First(&live, "project_id = ?", 1).Error)
	assert.Equal(t, uint64(0), live.Downloads)
	assert.True(t, live.Date.Equal(statsToday))

	// The current-day row of the other project is untouched
	var other schema.ProjectDailyStats
	require.NoError(t, db.First(&other, "project_id = ?", 2).Error)
	assert.Equal(t, uint64(3), other.Downloads)
	assert.True(t, other.Date.Equal(statsToday))

	// Nothing left to roll, and the recent sums see archive + live
	remaining, err := s.ListRolloverCandidates(ctx, statsToday)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	recent, err := s.GetRecentDownloads(ctx, []uint64{1, 2}, statsYesterday)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{1: 5, 2: 3}, recent)
}

func TestPGStore_RolloverDailyStats_Rerunnable(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDailyDownloads(ctx, 1, statsYesterday, 5))

	stale := schema.ProjectDailyStats{ProjectID: 1, Date: statsYesterday, Downloads: 5}
	require.NoError(t, s.RolloverDailyStats(ctx, stale, statsToday))
	// A retried rollover of the same stale row must not double-count the
	// archived day
	require.NoError(t, s.RolloverDailyStats(ctx, stale, statsToday))

	var count int64
	require.NoError(t, db.Model(&schema.ProjectDownloadsArchive{}).Where("project_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	recent, err := s.GetRecentDownloads(ctx, []uint64{1}, statsYesterday)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{1: 5}, recent)
}
