package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"postdeck/internal/models"
	"postdeck/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written YAML data set.
//
//	accounts:
//	  - platform: instagram
//	    username: acme
//	    followers: 1200
//	settings:
//	  - platform: linkedin
//	    best_time_to_post: ["0 9 * * 1-5"]
//	posts:
//	  - content: Spring launch
//	    platforms: [x, threads]
//	    in: 48h
type Fixture struct {
	Accounts []AccountFixture  `yaml:"accounts"`
	Settings []SettingsFixture `yaml:"settings"`
	Posts    []PostFixture     `yaml:"posts"`
}

type AccountFixture struct {
	Platform  string `yaml:"platform" validate:"required,platform"`
	Username  string `yaml:"username" validate:"required"`
	Connected *bool  `yaml:"connected"`
	Followers int64  `yaml:"followers"`
}

type SettingsFixture struct {
	Platform       string   `yaml:"platform" validate:"required,platform"`
	Enabled        *bool    `yaml:"enabled"`
	AutoPost       bool     `yaml:"auto_post"`
	BestTimeToPost []string `yaml:"best_time_to_post" validate:"dive,cron"`
}

type PostFixture struct {
	Content   string   `yaml:"content"`
	Title     string   `yaml:"title"`
	PostType  string   `yaml:"post_type" validate:"omitempty,post_type"`
	Tags      []string `yaml:"tags"`
	Platforms []string `yaml:"platforms" validate:"min=1,dive,platform"`
	// In is the offset from load time, e.g. "36h".
	In string `yaml:"in" validate:"required"`
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes and validates fixture YAML.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i := range fx.Accounts {
		if err := validation.Struct(fx.Accounts[i]); err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
	}
	for i := range fx.Settings {
		if err := validation.Struct(fx.Settings[i]); err != nil {
			return nil, fmt.Errorf("settings[%d]: %w", i, err)
		}
	}
	for i := range fx.Posts {
		if err := validation.Struct(fx.Posts[i]); err != nil {
			return nil, fmt.Errorf("posts[%d]: %w", i, err)
		}
		if _, err := time.ParseDuration(fx.Posts[i].In); err != nil {
			return nil, fmt.Errorf("posts[%d]: invalid offset %q", i, fx.Posts[i].In)
		}
	}
	return &fx, nil
}

// Apply inserts the fixture rows. Settings replace any stored row.
func (fx *Fixture) Apply(ctx context.Context, db *gorm.DB) (Result, error) {
	var res Result
	now := time.Now()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range fx.Accounts {
			p, _ := models.ParsePlatform(a.Platform)
			account := &models.SocialAccount{
				Platform:  p,
				Username:  a.Username,
				Connected: a.Connected == nil || *a.Connected,
				Followers: a.Followers,
			}
			if err := tx.Create(account).Error; err != nil {
				return fmt.Errorf("create account %s: %w", a.Username, err)
			}
			res.Accounts++
		}
		for _, s := range fx.Settings {
			p, _ := models.ParsePlatform(s.Platform)
			settings := &models.PlatformSettings{
				Platform:       p,
				Enabled:        s.Enabled == nil || *s.Enabled,
				AutoPost:       s.AutoPost,
				BestTimeToPost: s.BestTimeToPost,
			}
			if settings.BestTimeToPost == nil {
				settings.BestTimeToPost = []string{}
			}
			if err := tx.Save(settings).Error; err != nil {
				return fmt.Errorf("save settings %s: %w", p, err)
			}
			res.Settings++
		}
		for _, pf := range fx.Posts {
			offset, _ := time.ParseDuration(pf.In)
			postType := models.PostType(pf.PostType)
			if postType == "" {
				postType = models.PostTypePost
			}
			post := &models.ScheduledPost{
				Content:      pf.Content,
				Title:        pf.Title,
				PostType:     postType,
				Tags:         pf.Tags,
				ScheduledFor: now.Add(offset).Truncate(time.Minute),
				Status:       models.PostStatusScheduled,
			}
			for _, raw := range pf.Platforms {
				p, _ := models.ParsePlatform(raw)
				post.Platforms = append(post.Platforms, p)
			}
			if err := tx.Create(post).Error; err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			res.Posts++
		}
		return nil
	})
	return res, err
}
