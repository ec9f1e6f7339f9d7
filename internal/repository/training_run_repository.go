// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"context"

	"gorm.io/gorm"

	"movie-rec-go/internal/model"
)

// TrainingRunRepository 接口定义了快照构建记录的数据操作方法。
type TrainingRunRepository interface {
	Create(ctx context.Context, run *model.TrainingRun) error
	ListRecent(ctx context.Context, limit int) ([]model.TrainingRun, error)
}

type trainingRunRepository struct {
	db *gorm.DB
}

// NewTrainingRunRepository 创建一个新的 TrainingRunRepository 实例。
func NewTrainingRunRepository(db *gorm.DB) TrainingRunRepository {
	return &trainingRunRepository{db: db}
}

// Create 在数据库中插入一条构建记录。
func (r *trainingRunRepository) Create(ctx context.Context, run *model.TrainingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// ListRecent 按创建时间倒序返回最近的 limit 条构建记录。
func (r *trainingRunRepository) ListRecent(ctx context.Context, limit int) ([]model.TrainingRun, error) {
	var runs []model.TrainingRun
	err := recentRuns(r.db.WithContext(ctx), limit).Find(&runs).Error
	return runs, err
}

func recentRuns(db *gorm.DB, limit int) *gorm.DB {
	return db.Model(&model.TrainingRun{}).Order("created_at DESC").Order("id DESC").Limit(limit)
}
