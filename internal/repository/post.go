package repository

import (
	"context"
	"errors"
	"time"

	"postdeck/internal/models"
	"postdeck/internal/observability"

	"gorm.io/gorm"
)

const maxListLimit = 100

// ScheduledPostRepository defines persistence operations for posts recorded
// by the publish sink.
type ScheduledPostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) error
	Update(ctx context.Context, post *models.ScheduledPost) error
	GetByID(ctx context.Context, id uint) (*models.ScheduledPost, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.ScheduledPost, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.ScheduledPost, error)
}

type scheduledPostRepository struct {
	db *gorm.DB
}

// NewScheduledPostRepository returns a new ScheduledPostRepository implementation.
func NewScheduledPostRepository(db *gorm.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

func (r *scheduledPostRepository) Create(ctx context.Context, post *models.ScheduledPost) error {
	defer observability.TrackQuery("create", "scheduled_posts")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *scheduledPostRepository) Update(ctx context.Context, post *models.ScheduledPost) error {
	defer observability.TrackQuery("update", "scheduled_posts")()

	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id uint) (*models.ScheduledPost, error) {
	defer observability.TrackQuery("get", "scheduled_posts")()

	var post models.ScheduledPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ListUpcoming returns scheduled posts due at or after now, soonest first.
func (r *scheduledPostRepository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.ScheduledPost, error) {
	defer observability.TrackQuery("list_upcoming", "scheduled_posts")()

	if limit <= 0 {
		limit = 5
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var posts []models.ScheduledPost
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for >= ?", models.PostStatusScheduled, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListBetween returns every recorded post whose slot falls in [from, to).
func (r *scheduledPostRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.ScheduledPost, error) {
	defer observability.TrackQuery("list_between", "scheduled_posts")()

	var posts []models.ScheduledPost
	err := r.db.WithContext(ctx).
		Where("scheduled_for >= ? AND scheduled_for < ?", from, to).
		Order("scheduled_for ASC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
