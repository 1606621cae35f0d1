package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

const lastFullSyncKey = "search:last_full_sync"

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	// database/sql treats MaxIdleConns above MaxOpenConns as MaxOpenConns,
	// clamp explicitly to keep the logged settings honest
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetProjectsByIDs retrieves projects by id
func (s *pgStore) GetProjectsByIDs(ctx context.Context, ids []uint64) ([]schema.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var projects []schema.Project
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	return projects, nil
}

// ListIndexableProjects returns the next keyset page of rebuild-eligible
// projects ordered by id
func (s *pgStore) ListIndexableProjects(ctx context.Context, afterID uint64, limit int) ([]schema.Project, error) {
	var projects []schema.Project
	err := s.db.WithContext(ctx).
		Where("id > ?", afterID).
		Where("visibility IN ?", []domain.Visibility{domain.VisibilityPublic, domain.VisibilityArchived}).
		Where("status = ?", domain.ProjectStatusApproved).
		Order("id ASC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list indexable projects: %w", err)
	}
	return projects, nil
}

// IncrementProjectDownloads applies a relative increment to a project's
// all-time download counter
func (s *pgStore) IncrementProjectDownloads(ctx context.Context, projectID uint64, n uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("downloads", gorm.Expr("downloads + ?", n)).Error
	if err != nil {
		return fmt.Errorf("failed to increment project downloads: %w", err)
	}
	return nil
}

// IncrementVersionDownloads applies a relative increment to a version's
// download counter
func (s *pgStore) IncrementVersionDownloads(ctx context.Context, versionID uint64, n uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Version{}).
		Where("id = ?", versionID).
		UpdateColumn("downloads", gorm.Expr("downloads + ?", n)).Error
	if err != nil {
		return fmt.Errorf("failed to increment version downloads: %w", err)
	}
	return nil
}

// UpsertDailyDownloads creates the project's daily stats row dated day, or
// increments an existing row's count. The stored date is never touched here:
// advancing it is the rollover's job, and re-dating a stale row would strand
// its un-archived count under the wrong day.
func (s *pgStore) UpsertDailyDownloads(ctx context.Context, projectID uint64, day time.Time, n uint64) error {
	row := schema.ProjectDailyStats{
		ProjectID: projectID,
		Date:      day,
		Downloads: n,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"downloads": gorm.Expr("project_daily_stats.downloads + ?", n),
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily downloads: %w", err)
	}
	return nil
}

// ListRolloverCandidates returns stale daily stats rows with pending counts
func (s *pgStore) ListRolloverCandidates(ctx context.Context, today time.Time) ([]schema.ProjectDailyStats, error) {
	var rows []schema.ProjectDailyStats
	err := s.db.WithContext(ctx).
		Where("date <> ?", today).
		Where("downloads > 0").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rollover candidates: %w", err)
	}
	return rows, nil
}

// RolloverDailyStats archives a stale daily stats row and resets it for
// today in one transaction
func (s *pgStore) RolloverDailyStats(ctx context.Context, row schema.ProjectDailyStats, today time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		archived := schema.ProjectDownloadsArchive{
			ProjectID: row.ProjectID,
			Date:      row.Date,
			Downloads: row.Downloads,
		}
		// Re-running a partially failed rollover must not double-count
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"downloads": row.Downloads}),
		}).Create(&archived).Error; err != nil {
			return fmt.Errorf("failed to archive daily stats: %w", err)
		}

		if err := tx.Model(&schema.ProjectDailyStats{}).
			Where("project_id = ?", row.ProjectID).
			Updates(map[string]interface{}{
				"downloads": 0,
				"date":      today,
			}).Error; err != nil {
			return fmt.Errorf("failed to reset daily stats: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to roll over daily stats for project %d: %w", row.ProjectID, err)
	}
	return nil
}

// GetRecentDownloads sums archived and live daily downloads per project
// since the given day
func (s *pgStore) GetRecentDownloads(ctx context.Context, projectIDs []uint64, since time.Time) (map[uint64]uint64, error) {
	result := make(map[uint64]uint64, len(projectIDs))
	if len(projectIDs) == 0 {
		return result, nil
	}

	type projectSum struct {
		ProjectID uint64
		Total     uint64
	}

	var archived []projectSum
	err := s.db.WithContext(ctx).
		Model(&schema.ProjectDownloadsArchive{}).
		Select("project_id, SUM(downloads) AS total").
		Where("project_id IN ?", projectIDs).
		Where("date >= ?", since).
		Group("project_id").
		Scan(&archived).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum archived downloads: %w", err)
	}
	for _, row := range archived {
		result[row.ProjectID] += row.Total
	}

	var live []schema.ProjectDailyStats
	err = s.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Where("date >= ?", since).
		Find(&live).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read live daily downloads: %w", err)
	}
	for _, row := range live {
		result[row.ProjectID] += row.Downloads
	}

	return result, nil
}

// GetLastFullSync retrieves the last full resync timestamp from the
// key-value store; zero when no full resync has run yet
func (s *pgStore) GetLastFullSync(ctx context.Context) (time.Time, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", lastFullSyncKey).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last full sync: %w", err)
	}

	t, err := time.Parse(time.RFC3339, kv.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last full sync: %w", err)
	}
	return t, nil
}

// SetLastFullSync stores the last full resync timestamp
func (s *pgStore) SetLastFullSync(ctx context.Context, t time.Time) error {
	kv := schema.KeyValueStore{
		Key:   lastFullSyncKey,
		Value: t.UTC().Format(time.RFC3339),
	}
	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set last full sync: %w", err)
	}
	return nil
}
