package schema

import "time"

// ProjectDailyStats holds the warm per-project download counter for the
// current day. One row per project; the daily rollover archives exhausted
// rows into ProjectDownloadsArchive and resets them with Date advanced.
type ProjectDailyStats struct {
	ProjectID uint64 `gorm:"column:project_id;primaryKey"`
	// Date is the day the Downloads value belongs to
	Date time.Time `gorm:"column:date;not null;type:date"`
	// Downloads is the accepted download count for Date so far
	Downloads uint64    `gorm:"column:downloads;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the ProjectDailyStats model
func (ProjectDailyStats) TableName() string {
	return "project_daily_stats"
}
