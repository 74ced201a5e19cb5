package service

import (
	"context"
	"strings"

	"postdeck/internal/cache"
	"postdeck/internal/models"
	"postdeck/internal/repository"
	"postdeck/internal/validation"
)

// SettingsService manages per-platform publishing preferences.
type SettingsService struct {
	repo repository.SettingsRepository
}

// UpdateSettingsInput is the editable part of a platform's settings.
type UpdateSettingsInput struct {
	Platform       string     `json:"platform" validate:"required,platform"`
	Enabled        bool       `json:"enabled"`
	AutoPost       bool       `json:"auto_post"`
	BestTimeToPost []string   `json:"best_time_to_post" validate:"max=24,dive,cron"`
	HashtagGroups  [][]string `json:"hashtag_groups" validate:"max=20"`
	DefaultPrivacy string     `json:"default_privacy" validate:"omitempty,oneof=public private unlisted friends"`
	CrossPosting   []string   `json:"cross_posting" validate:"dive,platform"`
}

func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns a platform's settings, or the defaults when none are stored.
func (s *SettingsService) Get(ctx context.Context, raw string) (*models.PlatformSettings, error) {
	platform, ok := models.ParsePlatform(raw)
	if !ok {
		return nil, models.NewValidationError("unknown platform: " + raw)
	}

	var out models.PlatformSettings
	err := cache.Aside(ctx, cache.SettingsKey(string(platform)), &out, cache.SettingsTTL, func() error {
		stored, err := s.repo.Get(ctx, platform)
		if models.ErrorCode(err) == models.CodeNotFound {
			out = models.DefaultPlatformSettings(platform)
			return nil
		}
		if err != nil {
			return err
		}
		out = *stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns settings for every supported platform in catalogue order,
// filling the gaps with defaults.
func (s *SettingsService) List(ctx context.Context) ([]models.PlatformSettings, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byPlatform := make(map[models.Platform]models.PlatformSettings, len(stored))
	for _, ps := range stored {
		byPlatform[ps.Platform] = ps
	}

	out := make([]models.PlatformSettings, 0, len(models.Platforms))
	for _, info := range models.Platforms {
		if ps, ok := byPlatform[info.ID]; ok {
			out = append(out, ps)
			continue
		}
		out = append(out, models.DefaultPlatformSettings(info.ID))
	}
	return out, nil
}

// Update validates and stores a platform's settings.
func (s *SettingsService) Update(ctx context.Context, in UpdateSettingsInput) (*models.PlatformSettings, error) {
	for i, expr := range in.BestTimeToPost {
		in.BestTimeToPost[i] = strings.TrimSpace(expr)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	platform, _ := models.ParsePlatform(in.Platform)

	settings := &models.PlatformSettings{
		Platform:       platform,
		Enabled:        in.Enabled,
		AutoPost:       in.AutoPost,
		BestTimeToPost: in.BestTimeToPost,
		HashtagGroups:  in.HashtagGroups,
		DefaultPrivacy: in.DefaultPrivacy,
	}
	if settings.BestTimeToPost == nil {
		settings.BestTimeToPost = []string{}
	}
	for _, raw := range in.CrossPosting {
		p, _ := models.ParsePlatform(raw)
		if p == platform || containsPlatform(settings.CrossPosting, p) {
			continue
		}
		settings.CrossPosting = append(settings.CrossPosting, p)
	}

	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	cache.InvalidateSettings(ctx, string(platform))
	return settings, nil
}

func containsPlatform(list []models.Platform, p models.Platform) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}
