package schema

import "time"

// ProjectDownloadsArchive is the cold analytics table fed by the daily
// rollover: one row per project per archived day. Read back only to compute
// recent-download counts for search documents.
type ProjectDownloadsArchive struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID uint64    `gorm:"column:project_id;not null;uniqueIndex:idx_downloads_archive_project_date,priority:1"`
	Date      time.Time `gorm:"column:date;not null;type:date;uniqueIndex:idx_downloads_archive_project_date,priority:2"`
	Downloads uint64    `gorm:"column:downloads;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the ProjectDownloadsArchive model
func (ProjectDownloadsArchive) TableName() string {
	return "project_downloads_archive"
}
