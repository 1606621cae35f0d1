// Package search implements the search-index synchronization engine: a
// periodic background task that drains the sync queues into incremental
// document upserts/deletes, and rebuilds the whole index from the primary
// store once a day.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/modhaven/mh-aggregator/internal/adapter"
	"github.com/modhaven/mh-aggregator/internal/domain"
	"github.com/modhaven/mh-aggregator/internal/store"
	"github.com/modhaven/mh-aggregator/internal/store/schema"
)

// defaultRecentWindow is how far back the recent-downloads figure on a
// search document reaches
const defaultRecentWindow = 30 * 24 * time.Hour

// DocumentFormatter builds search documents from the live project
// projection and recent-download counts from analytics
//
//go:generate mockgen -source=document.go -destination=../mocks/document.go -package=mocks
type DocumentFormatter interface {
	// Format builds one document per project, in input order. Documents
	// are always rebuilt in full, never patched.
	Format(ctx context.Context, projects []schema.Project) ([]domain.ProjectSearchDocument, error)
}

type documentFormatter struct {
	store        store.Store
	clock        adapter.Clock
	recentWindow time.Duration
}

// NewDocumentFormatter creates a document formatter. A zero recentWindow
// means the default of 30 days.
func NewDocumentFormatter(st store.Store, clock adapter.Clock, recentWindow time.Duration) DocumentFormatter {
	if recentWindow == 0 {
		recentWindow = defaultRecentWindow
	}
	return &documentFormatter{store: st, clock: clock, recentWindow: recentWindow}
}

func (f *documentFormatter) Format(ctx context.Context, projects []schema.Project) ([]domain.ProjectSearchDocument, error) {
	if len(projects) == 0 {
		return nil, nil
	}

	ids := make([]uint64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	since := f.clock.Now().Add(-f.recentWindow)
	recent, err := f.store.GetRecentDownloads(ctx, ids, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent downloads: %w", err)
	}

	docs := make([]domain.ProjectSearchDocument, len(projects))
	for i, p := range projects {
		docs[i] = documentFrom(p, recent[p.ID])
	}
	return docs, nil
}

// documentFrom builds the denormalized search projection of one project
func documentFrom(p schema.Project, recentDownloads uint64) domain.ProjectSearchDocument {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.ProjectSearchDocument{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		OwnerName:       p.OwnerName,
		Summary:         p.Summary,
		IconURL:         p.IconURL,
		Tags:            tags,
		Downloads:       p.Downloads,
		RecentDownloads: recentDownloads,
		Stars:           p.Stars,
		DateCreated:     p.CreatedAt.UTC(),
		DateUpdated:     p.UpdatedAt.UTC(),
	}
}

// indexSettings are applied once per full resync; they define what the
// search/filter endpoints may query
func indexSettings() adapter.IndexSettings {
	return adapter.IndexSettings{
		FilterableAttributes: []string{"tags", "owner_name", "downloads", "stars"},
		SortableAttributes:   []string{"downloads", "recent_downloads", "stars", "date_created", "date_updated"},
		SearchableAttributes: []string{"name", "slug", "summary", "owner_name", "tags"},
	}
}
