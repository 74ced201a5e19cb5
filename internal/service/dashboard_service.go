// Package service holds the dashboard provider, the publish sink and the
// platform settings service.
package service

import (
	"context"
	"fmt"
	"time"

	"postdeck/internal/cache"
	"postdeck/internal/models"
	"postdeck/internal/repository"

	"github.com/dustin/go-humanize"
)

const maxCalendarRange = 366 * 24 * time.Hour

// DashboardService is the read-only provider behind the dashboard views.
type DashboardService struct {
	accounts  repository.AccountRepository
	posts     repository.ScheduledPostRepository
	analytics repository.AnalyticsRepository
	now       func() time.Time
}

// Dashboard is the combined overview payload.
type Dashboard struct {
	Accounts  []models.SocialAccount `json:"accounts"`
	Upcoming  []models.ScheduledPost `json:"upcoming_posts"`
	Analytics *AnalyticsSummary      `json:"analytics"`
}

// AnalyticsSummary is the latest analytics snapshot plus display strings.
type AnalyticsSummary struct {
	Followers         int64             `json:"followers"`
	EngagementRate    float64           `json:"engagement_rate"`
	TotalPosts        int64             `json:"total_posts"`
	TotalInteractions int64             `json:"total_interactions"`
	CapturedAt        time.Time         `json:"captured_at"`
	Display           SummaryDisplay    `json:"display"`
	Platforms         []PlatformSummary `json:"platforms"`
}

type SummaryDisplay struct {
	Followers    string `json:"followers"`
	Engagement   string `json:"engagement"`
	Posts        string `json:"posts"`
	Interactions string `json:"interactions"`
}

type PlatformSummary struct {
	Platform   models.Platform `json:"platform"`
	Followers  int64           `json:"followers"`
	Engagement float64         `json:"engagement"`
	Posts      int64           `json:"posts"`
	Display    SummaryDisplay  `json:"display"`
}

func NewDashboardService(
	accounts repository.AccountRepository,
	posts repository.ScheduledPostRepository,
	analytics repository.AnalyticsRepository,
) *DashboardService {
	return &DashboardService{
		accounts:  accounts,
		posts:     posts,
		analytics: analytics,
		now:       time.Now,
	}
}

// Accounts lists the connected social accounts.
func (s *DashboardService) Accounts(ctx context.Context) ([]models.SocialAccount, error) {
	var out []models.SocialAccount
	err := cache.Aside(ctx, cache.AccountsKey, &out, cache.DashboardTTL, func() error {
		var err error
		out, err = s.accounts.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.SocialAccount{}
	}
	return out, nil
}

// UpcomingPosts returns scheduled posts due from now on, soonest first.
func (s *DashboardService) UpcomingPosts(ctx context.Context, limit int) ([]models.ScheduledPost, error) {
	if limit <= 0 {
		limit = cache.DefaultUpcomingLimit
	}
	var out []models.ScheduledPost
	err := cache.Aside(ctx, cache.UpcomingKey(limit), &out, cache.DashboardTTL, func() error {
		var err error
		out, err = s.posts.ListUpcoming(ctx, s.now(), limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ScheduledPost{}
	}
	return out, nil
}

// Calendar returns every recorded post scheduled in [from, to).
func (s *DashboardService) Calendar(ctx context.Context, from, to time.Time) ([]models.ScheduledPost, error) {
	if !to.After(from) {
		return nil, models.NewValidationError("to must be after from")
	}
	if to.Sub(from) > maxCalendarRange {
		return nil, models.NewValidationError("calendar range must not exceed one year")
	}
	posts, err := s.posts.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.ScheduledPost{}
	}
	return posts, nil
}

// AnalyticsSummary summarizes the latest analytics snapshot.
func (s *DashboardService) AnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error) {
	var out AnalyticsSummary
	err := cache.Aside(ctx, cache.AnalyticsSummaryKey, &out, cache.DashboardTTL, func() error {
		snap, err := s.analytics.Latest(ctx)
		if err != nil {
			return err
		}
		out = summarize(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Overview gathers accounts, upcoming posts and analytics. A missing
// analytics snapshot leaves Analytics nil.
func (s *DashboardService) Overview(ctx context.Context) (*Dashboard, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	upcoming, err := s.UpcomingPosts(ctx, cache.DefaultUpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("upcoming posts: %w", err)
	}
	summary, err := s.AnalyticsSummary(ctx)
	if err != nil && models.ErrorCode(err) != models.CodeNotFound {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &Dashboard{Accounts: accounts, Upcoming: upcoming, Analytics: summary}, nil
}

func summarize(snap *models.AnalyticsSnapshot) AnalyticsSummary {
	out := AnalyticsSummary{
		Followers:         snap.Followers,
		EngagementRate:    snap.EngagementRate,
		TotalPosts:        snap.TotalPosts,
		TotalInteractions: snap.TotalInteractions,
		CapturedAt:        snap.CapturedAt,
		Display:           display(snap.Followers, snap.EngagementRate, snap.TotalPosts, snap.TotalInteractions),
		Platforms:         make([]PlatformSummary, 0, len(snap.Platforms)),
	}
	for _, m := range snap.Platforms {
		out.Platforms = append(out.Platforms, PlatformSummary{
			Platform:   m.Platform,
			Followers:  m.Followers,
			Engagement: m.Engagement,
			Posts:      m.Posts,
			Display:    display(m.Followers, m.Engagement, m.Posts, m.Likes+m.Comments+m.Shares),
		})
	}
	return out
}

func display(followers int64, engagement float64, posts, interactions int64) SummaryDisplay {
	return SummaryDisplay{
		Followers:    humanize.Comma(followers),
		Engagement:   fmt.Sprintf("%.1f%%", engagement),
		Posts:        humanize.Comma(posts),
		Interactions: humanize.Comma(interactions),
	}
}
