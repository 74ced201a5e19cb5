// Package repository implements the data access layer for the dashboard
// state and the publish sink.
package repository

import (
	"context"

	"postdeck/internal/models"
	"postdeck/internal/observability"

	"gorm.io/gorm"
)

// AccountRepository defines read operations for connected social accounts.
type AccountRepository interface {
	List(ctx context.Context) ([]models.SocialAccount, error)
	Create(ctx context.Context, account *models.SocialAccount) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) List(ctx context.Context) ([]models.SocialAccount, error) {
	defer observability.TrackQuery("list", "social_accounts")()

	var accounts []models.SocialAccount
	if err := r.db.WithContext(ctx).Order("platform ASC, username ASC").Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.SocialAccount) error {
	defer observability.TrackQuery("create", "social_accounts")()

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
