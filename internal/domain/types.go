package domain

import "time"

// Visibility represents a project's visibility state
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityArchived Visibility = "archived"
	VisibilityPrivate  Visibility = "private"
)

// ProjectStatus represents a project's moderation state
type ProjectStatus string

const (
	ProjectStatusPending  ProjectStatus = "pending"
	ProjectStatusApproved ProjectStatus = "approved"
	ProjectStatusRejected ProjectStatus = "rejected"
)

// DownloadEvent represents a single raw download attempt recorded by the
// file-serving collaborator. ID is an opaque random token assigned at
// enqueue time; events are consumed destructively, exactly once per cycle,
// and never mutated.
type DownloadEvent struct {
	ID        string `json:"id"`
	IPAddress string `json:"ip_address"`
	UserID    string `json:"user_id,omitempty"`
	ProjectID uint64 `json:"project_id"`
	VersionID uint64 `json:"version_id"`
}

// SameIdentity reports whether two events were made by the same downloader:
// matching IP address, or a matching non-empty user id.
func (e DownloadEvent) SameIdentity(other DownloadEvent) bool {
	if e.IPAddress != "" && e.IPAddress == other.IPAddress {
		return true
	}
	return e.UserID != "" && e.UserID == other.UserID
}

// ProjectChangeKind tells the event bridge which sync queue a
// project-changed message belongs to.
type ProjectChangeKind string

const (
	ProjectChangeUpserted ProjectChangeKind = "upserted"
	ProjectChangeRemoved  ProjectChangeKind = "removed"
)

// ProjectChangedEvent is published by any collaborator that mutates a
// project's indexable fields, visibility, or status.
type ProjectChangedEvent struct {
	ProjectID uint64            `json:"project_id"`
	Kind      ProjectChangeKind `json:"kind"`
}

// ProjectSearchDocument is the denormalized, read-optimized projection of a
// project stored in the search index. Documents are rebuilt in full on every
// sync and replaced by id, never partially patched.
type ProjectSearchDocument struct {
	ID              uint64    `json:"id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	OwnerName       string    `json:"owner_name"`
	Summary         string    `json:"summary"`
	IconURL         string    `json:"icon_url,omitempty"`
	Tags            []string  `json:"tags"`
	Downloads       uint64    `json:"downloads"`
	RecentDownloads uint64    `json:"recent_downloads"`
	Stars           uint64    `json:"stars"`
	DateCreated     time.Time `json:"date_created"`
	DateUpdated     time.Time `json:"date_updated"`
}

// TaskStatus represents the lifecycle state of an asynchronous search-engine
// write task.
type TaskStatus string

const (
	TaskStatusEnqueued   TaskStatus = "enqueued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSucceeded  TaskStatus = "succeeded"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCanceled   TaskStatus = "canceled"
)

// Terminal reports whether a task has left the enqueued/processing states.
func (s TaskStatus) Terminal() bool {
	return s != TaskStatusEnqueued && s != TaskStatusProcessing
}
