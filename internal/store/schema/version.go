package schema

import "time"

// Version represents the project_versions table. Each version owns a primary
// file; downloads of that file feed the counter engine.
type Version struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID uint64 `gorm:"column:project_id;not null;index"`
	// Number is the human version string (e.g. "1.4.2")
	Number string `gorm:"column:number;not null;type:text"`
	// Channel is the release channel (release, beta, alpha)
	Channel string `gorm:"column:channel;not null;default:'release';type:text"`
	// Downloads is the accepted download count for this version
	Downloads uint64    `gorm:"column:downloads;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Version model
func (Version) TableName() string {
	return "project_versions"
}
