package repository

import (
	"context"
	"errors"

	"postdeck/internal/models"
	"postdeck/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository stores per-platform publishing preferences.
type SettingsRepository interface {
	Get(ctx context.Context, platform models.Platform) (*models.PlatformSettings, error)
	List(ctx context.Context) ([]models.PlatformSettings, error)
	ListFor(ctx context.Context, platforms []models.Platform) ([]models.PlatformSettings, error)
	Upsert(ctx context.Context, settings *models.PlatformSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository returns a new SettingsRepository implementation.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, platform models.Platform) (*models.PlatformSettings, error) {
	defer observability.TrackQuery("get", "platform_settings")()

	var s models.PlatformSettings
	if err := r.db.WithContext(ctx).Where("platform = ?", platform).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Platform settings", platform)
		}
		return nil, models.NewInternalError(err)
	}
	return &s, nil
}

func (r *settingsRepository) List(ctx context.Context) ([]models.PlatformSettings, error) {
	defer observability.TrackQuery("list", "platform_settings")()

	var out []models.PlatformSettings
	if err := r.db.WithContext(ctx).Order("platform ASC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *settingsRepository) ListFor(ctx context.Context, platforms []models.Platform) ([]models.PlatformSettings, error) {
	defer observability.TrackQuery("list_for", "platform_settings")()

	var out []models.PlatformSettings
	if len(platforms) == 0 {
		return out, nil
	}
	if err := r.db.WithContext(ctx).Where("platform IN ?", platforms).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.PlatformSettings) error {
	defer observability.TrackQuery("upsert", "platform_settings")()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}},
			UpdateAll: true,
		}).
		Create(settings).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
