package seed

import (
	"context"
	"fmt"
	"log"

	"postdeck/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Seed        int64
	Posts       int
	MaxDays     int
	ShouldClean bool
	// FixturePath, when set, loads a YAML fixture on top of the generated data.
	FixturePath string
}

// Result counts what a run inserted.
type Result struct {
	Accounts  int
	Posts     int
	Snapshots int
	Settings  int
}

// Seeder fills the dashboard tables.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Posts <= 0 {
		opts.Posts = 20
	}
	return &Seeder{db: db, factory: NewFactory(opts.Seed), opts: opts}
}

// ClearAll deletes every dashboard row.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []interface{}{
		&models.PlatformMetric{},
		&models.AnalyticsSnapshot{},
		&models.ScheduledPost{},
		&models.SocialAccount{},
		&models.PlatformSettings{},
	}
	for _, t := range tables {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	return nil
}

// Run seeds one account and one settings row per platform, the configured
// number of scheduled posts and one analytics snapshot.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return res, err
		}
	}

	platforms := make([]models.Platform, 0, len(models.Platforms))
	for _, info := range models.Platforms {
		platforms = append(platforms, info.ID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range platforms {
			if err := tx.Create(s.factory.BuildAccount(p)).Error; err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			res.Accounts++
			if err := tx.Save(s.factory.BuildSettings(p)).Error; err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			res.Settings++
		}

		posts := make([]*models.ScheduledPost, 0, s.opts.Posts)
		for i := 0; i < s.opts.Posts; i++ {
			posts = append(posts, s.factory.BuildScheduledPost(s.opts.MaxDays))
		}
		if err := tx.CreateInBatches(posts, 100).Error; err != nil {
			return fmt.Errorf("create posts: %w", err)
		}
		res.Posts = len(posts)

		if err := tx.Create(s.factory.BuildAnalyticsSnapshot(platforms)).Error; err != nil {
			return fmt.Errorf("create analytics snapshot: %w", err)
		}
		res.Snapshots++
		return nil
	})
	if err != nil {
		return res, err
	}

	if s.opts.FixturePath != "" {
		fx, err := LoadFixture(s.opts.FixturePath)
		if err != nil {
			return res, err
		}
		added, err := fx.Apply(ctx, s.db)
		if err != nil {
			return res, err
		}
		res.Accounts += added.Accounts
		res.Posts += added.Posts
		res.Settings += added.Settings
		res.Snapshots += added.Snapshots
	}

	log.Printf("seeded %d accounts, %d posts, %d settings, %d snapshots",
		res.Accounts, res.Posts, res.Settings, res.Snapshots)
	return res, nil
}
