package psql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
)

type GormJobRepo struct {
	DB *gorm.DB
}

func NewGormJobRepo(db *gorm.DB) *GormJobRepo {
	return &GormJobRepo{DB: db}
}

func (r *GormJobRepo) CreateJob(ctx context.Context, record *entity.JobRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

func (r *GormJobRepo) GetJob(ctx context.Context, jobID string) (*entity.JobRecord, error) {
	record := &entity.JobRecord{}
	if err := r.DB.WithContext(ctx).First(record, "job_id = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	return record, nil
}

func (r *GormJobRepo) ListRecent(ctx context.Context, limit int) ([]entity.JobRecord, error) {
	var records []entity.JobRecord
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return records, nil
}
