package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/modhaven/mh-aggregator/internal/domain"
)

// Project represents the projects table - the read model consumed by the
// aggregation engines. Mutation of everything except Downloads happens in
// the external CRUD tier; the counter engine is the exclusive writer of
// Downloads.
type Project struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Slug is the URL-safe unique project name
	Slug string `gorm:"column:slug;not null;uniqueIndex;type:text"`
	// Name is the display name
	Name string `gorm:"column:name;not null;type:text"`
	// OwnerName is the owning user's display name, denormalized for search
	OwnerName string `gorm:"column:owner_name;not null;type:text"`
	// Summary is the short description shown in search results
	Summary string `gorm:"column:summary;not null;default:'';type:text"`
	// IconURL points at the project icon, empty when unset
	IconURL string `gorm:"column:icon_url;not null;default:'';type:text"`
	// Visibility is the listing state (public, unlisted, archived, private)
	Visibility domain.Visibility `gorm:"column:visibility;not null;default:'public';type:text;index:idx_projects_visibility_status,priority:1"`
	// Status is the moderation state (pending, approved, rejected)
	Status domain.ProjectStatus `gorm:"column:status;not null;default:'pending';type:text;index:idx_projects_visibility_status,priority:2"`
	// Tags holds the searchable category tags as a JSON array
	Tags datatypes.JSONSlice[string] `gorm:"column:tags"`
	// Downloads is the all-time accepted download count
	Downloads uint64 `gorm:"column:downloads;not null;default:0"`
	// Stars is the follower count, denormalized for search sorting
	Stars     uint64    `gorm:"column:stars;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Versions []Version `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// Indexable reports whether the project qualifies for search inclusion:
// publicly listed or archived, and approved. Unlisted and private projects
// stay out of the index. The same predicate drives both the full rebuild
// query and the incremental upsert filter, so membership cannot flap
// between the two sync paths.
func (p *Project) Indexable() bool {
	if p.Status != domain.ProjectStatusApproved {
		return false
	}
	return p.Visibility == domain.VisibilityPublic || p.Visibility == domain.VisibilityArchived
}
