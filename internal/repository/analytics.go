package repository

import (
	"context"
	"errors"

	"postdeck/internal/models"
	"postdeck/internal/observability"

	"gorm.io/gorm"
)

// AnalyticsRepository reads captured analytics snapshots.
type AnalyticsRepository interface {
	Latest(ctx context.Context) (*models.AnalyticsSnapshot, error)
	Create(ctx context.Context, snapshot *models.AnalyticsSnapshot) error
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository returns a new AnalyticsRepository implementation.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Latest(ctx context.Context) (*models.AnalyticsSnapshot, error) {
	defer observability.TrackQuery("latest", "analytics_snapshots")()

	var snapshot models.AnalyticsSnapshot
	err := r.db.WithContext(ctx).
		Preload("Platforms").
		Order("captured_at DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Analytics snapshot", "latest")
		}
		return nil, models.NewInternalError(err)
	}
	return &snapshot, nil
}

func (r *analyticsRepository) Create(ctx context.Context, snapshot *models.AnalyticsSnapshot) error {
	defer observability.TrackQuery("create", "analytics_snapshots")()

	if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
