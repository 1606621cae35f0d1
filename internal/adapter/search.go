package adapter

import (
	"context"

	"github.com/meilisearch/meilisearch-go"

	"github.com/modhaven/mh-aggregator/internal/domain"
)

// TaskInfo is the handle returned by asynchronous search-engine writes
type TaskInfo struct {
	UID    int64
	Status domain.TaskStatus
}

// IndexSettings describes the attributes the index exposes to queries.
// Applied once per full resync, not per document batch.
type IndexSettings struct {
	FilterableAttributes []string
	SortableAttributes   []string
	SearchableAttributes []string
}

// SearchIndex defines the interface for the project search index to enable
// mocking. All write operations are asynchronous on the engine side and
// return a task handle; callers poll GetTask to observe completion.
//
//go:generate mockgen -source=search.go -destination=../mocks/search.go -package=mocks -mock_names=SearchIndex=MockSearchIndex
type SearchIndex interface {
	// UpdateSettings reconfigures the index attributes
	UpdateSettings(ctx context.Context, settings IndexSettings) (TaskInfo, error)

	// DeleteAllDocuments removes every document from the index
	DeleteAllDocuments(ctx context.Context) (TaskInfo, error)

	// UpsertDocuments adds or replaces documents by primary key
	UpsertDocuments(ctx context.Context, docs []domain.ProjectSearchDocument) (TaskInfo, error)

	// DeleteDocuments removes documents by primary key
	DeleteDocuments(ctx context.Context, ids []string) (TaskInfo, error)

	// GetTask returns the current status of an asynchronous task
	GetTask(ctx context.Context, uid int64) (TaskInfo, error)
}

// MeiliIndex implements SearchIndex backed by a Meilisearch index
type MeiliIndex struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
}

// NewMeiliIndex creates a SearchIndex for the given Meilisearch host and
// index UID
func NewMeiliIndex(host, apiKey, indexUID string) SearchIndex {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &MeiliIndex{
		client: client,
		index:  client.Index(indexUID),
	}
}

func (m *MeiliIndex) UpdateSettings(ctx context.Context, settings IndexSettings) (TaskInfo, error) {
	task, err := m.index.UpdateSettingsWithContext(ctx, &meilisearch.Settings{
		FilterableAttributes: settings.FilterableAttributes,
		SortableAttributes:   settings.SortableAttributes,
		SearchableAttributes: settings.SearchableAttributes,
	})
	return taskInfoFrom(task, err)
}

func (m *MeiliIndex) DeleteAllDocuments(ctx context.Context) (TaskInfo, error) {
	task, err := m.index.DeleteAllDocumentsWithContext(ctx)
	return taskInfoFrom(task, err)
}

func (m *MeiliIndex) UpsertDocuments(ctx context.Context, docs []domain.ProjectSearchDocument) (TaskInfo, error) {
	task, err := m.index.AddDocumentsWithContext(ctx, docs, "id")
	return taskInfoFrom(task, err)
}

func (m *MeiliIndex) DeleteDocuments(ctx context.Context, ids []string) (TaskInfo, error) {
	task, err := m.index.DeleteDocumentsWithContext(ctx, ids)
	return taskInfoFrom(task, err)
}

func (m *MeiliIndex) GetTask(ctx context.Context, uid int64) (TaskInfo, error) {
	task, err := m.client.GetTaskWithContext(ctx, uid)
	if err != nil {
		return TaskInfo{}, err
	}
	return TaskInfo{UID: task.UID, Status: domain.TaskStatus(task.Status)}, nil
}

func taskInfoFrom(task *meilisearch.TaskInfo, err error) (TaskInfo, error) {
	if err != nil {
		return TaskInfo{}, err
	}
	return TaskInfo{UID: task.TaskUID, Status: domain.TaskStatus(task.Status)}, nil
}
