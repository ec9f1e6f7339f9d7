package model

import "time"

// TrainingRun 对应于数据库中的 training_runs 表，记录每一次快照构建。
type TrainingRun struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotID     string    `gorm:"type:varchar(36);index" json:"snapshotId"`
	Tier           string    `gorm:"type:varchar(20);not null" json:"tier"`
	RowLimit       int       `gorm:"not null" json:"rowLimit"`
	Movies         int       `gorm:"not null;default:0" json:"movies"`
	VocabularySize int       `gorm:"not null;default:0" json:"vocabularySize"`
	FeatureColumns string    `gorm:"type:varchar(255)" json:"featureColumns"`
	DurationMs     int64     `gorm:"not null" json:"durationMs"`
	Success        bool      `gorm:"not null;default:false" json:"success"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TrainingRun) TableName() string {
	return "training_runs"
}
