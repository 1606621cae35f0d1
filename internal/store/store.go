package store

import (
	"context"
	"time"

	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetProjectsByIDs retrieves projects by id; missing ids are simply
	// absent from the result
	GetProjectsByIDs(ctx context.Context, ids []uint64) ([]schema.Project, error)

	// ListIndexableProjects returns the next keyset page of projects
	// eligible for search inclusion (public or archived, AND approved),
	// ordered by id, starting strictly after afterID
	ListIndexableProjects(ctx context.Context, afterID uint64, limit int) ([]schema.Project, error)

	// IncrementProjectDownloads applies a relative download increment to a
	// project's all-time counter
	IncrementProjectDownloads(ctx context.Context, projectID uint64, n uint64) error

	// IncrementVersionDownloads applies a relative download increment to a
	// version's counter
	IncrementVersionDownloads(ctx context.Context, versionID uint64, n uint64) error

	// UpsertDailyDownloads creates the project's daily stats row for the
	// given day, or increments the existing row's count without re-dating
	// it (a stale row keeps its date until the rollover archives it)
	UpsertDailyDownloads(ctx context.Context, projectID uint64, day time.Time, n uint64) error

	// ListRolloverCandidates returns daily stats rows whose date is not
	// today and whose downloads are greater than zero
	ListRolloverCandidates(ctx context.Context, today time.Time) ([]schema.ProjectDailyStats, error)

	// RolloverDailyStats archives a daily stats row into the downloads
	// archive keyed by its stored date, then resets it to zero for today.
	// Archive and reset commit in one transaction.
	RolloverDailyStats(ctx context.Context, row schema.ProjectDailyStats, today time.Time) error

	// GetRecentDownloads returns per-project download sums since the given
	// day, combining archived days with the live daily rows
	GetRecentDownloads(ctx context.Context, projectIDs []uint64, since time.Time) (map[uint64]uint64, error)

	// GetLastFullSync retrieves the timestamp of the last full search
	// resync, zero when none has run
	GetLastFullSync(ctx context.Context) (time.Time, error)

	// SetLastFullSync stores the timestamp of the last full search resync
	SetLastFullSync(ctx context.Context, t time.Time) error
}
