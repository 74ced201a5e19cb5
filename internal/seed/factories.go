// Package seed provides helpers to create demo data for the dashboard
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"postdeck/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var bestTimes = []string{
	"0 9 * * 1-5",
	"30 12 * * *",
	"0 18 * * *",
	"0 20 * * 5,6",
	"15 7 * * 1",
}

// Factory builds dashboard entities from a seeded faker.
type Factory struct {
	fake *gofakeit.Faker
	now  func() time.Time
}

// NewFactory creates a Factory. The same seed yields the same data; zero
// seeds from the clock.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{fake: gofakeit.New(seed), now: time.Now}
}

// BuildAccount constructs an account for platform without persisting it.
func (f *Factory) BuildAccount(platform models.Platform, overrides ...func(*models.SocialAccount)) *models.SocialAccount {
	username := strings.ToLower(f.fake.Username())
	account := &models.SocialAccount{
		Platform:   platform,
		Username:   username,
		Connected:  f.fake.Number(0, 9) > 1,
		ProfileURL: fmt.Sprintf("https://%s.example.com/%s", platform, username),
		Followers:  int64(f.fake.Number(50, 250000)),
		Avatar:     fmt.Sprintf("https://picsum.photos/seed/%s/128/128", f.fake.UUID()),
	}
	for _, override := range overrides {
		override(account)
	}
	return account
}

// BuildScheduledPost constructs a scheduled post within the next maxDays.
func (f *Factory) BuildScheduledPost(maxDays int, overrides ...func(*models.ScheduledPost)) *models.ScheduledPost {
	if maxDays <= 0 {
		maxDays = 14
	}
	postTypes := []models.PostType{models.PostTypePost, models.PostTypePost, models.PostTypeStory, models.PostTypeReel}
	postType := postTypes[f.fake.Number(0, len(postTypes)-1)]

	post := &models.ScheduledPost{
		Content:      f.fake.Paragraph(1, 2, 12, " "),
		PostType:     postType,
		Tags:         f.tags(),
		Platforms:    f.platforms(),
		ScheduledFor: f.now().Add(time.Duration(f.fake.Number(1, maxDays*24)) * time.Hour).Truncate(time.Minute),
		Status:       models.PostStatusScheduled,
	}
	if postType != models.PostTypePost {
		post.Title = f.fake.Sentence(4)
	}
	kind, ext, ct := models.MediaKindImage, "jpg", "image/jpeg"
	if postType == models.PostTypeReel {
		kind, ext, ct = models.MediaKindVideo, "mp4", "video/mp4"
	}
	post.Media = []models.MediaRef{{
		Filename:    fmt.Sprintf("%s.%s", f.fake.Word(), ext),
		ContentType: ct,
		Size:        int64(f.fake.Number(40_000, 8_000_000)),
		Kind:        kind,
	}}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// BuildAnalyticsSnapshot constructs a snapshot whose totals are the sum of
// its per-platform metrics.
func (f *Factory) BuildAnalyticsSnapshot(platforms []models.Platform) *models.AnalyticsSnapshot {
	snap := &models.AnalyticsSnapshot{CapturedAt: f.now().UTC()}
	var engagement float64
	for _, p := range platforms {
		m := models.PlatformMetric{
			Platform:   p,
			Followers:  int64(f.fake.Number(100, 200000)),
			Engagement: float64(int(f.fake.Float64Range(0.5, 9.5)*10)) / 10,
			Posts:      int64(f.fake.Number(5, 800)),
			Views:      int64(f.fake.Number(1000, 2000000)),
			Likes:      int64(f.fake.Number(10, 50000)),
			Comments:   int64(f.fake.Number(0, 5000)),
			Shares:     int64(f.fake.Number(0, 3000)),
		}
		snap.Followers += m.Followers
		snap.TotalPosts += m.Posts
		snap.TotalInteractions += m.Likes + m.Comments + m.Shares
		engagement += m.Engagement
		snap.Platforms = append(snap.Platforms, m)
	}
	if len(platforms) > 0 {
		snap.EngagementRate = float64(int(engagement/float64(len(platforms))*10)) / 10
	}
	return snap
}

// BuildSettings constructs enabled settings with one or two best times.
func (f *Factory) BuildSettings(platform models.Platform) *models.PlatformSettings {
	n := f.fake.Number(1, 2)
	times := make([]string, 0, n)
	for _, i := range f.pick(n, len(bestTimes)) {
		times = append(times, bestTimes[i])
	}
	return &models.PlatformSettings{
		Platform:       platform,
		Enabled:        true,
		AutoPost:       f.fake.Bool(),
		BestTimeToPost: times,
		HashtagGroups:  [][]string{f.tags()},
		DefaultPrivacy: "public",
	}
}

func (f *Factory) tags() []string {
	n := f.fake.Number(0, 3)
	seen := make(map[string]struct{}, n)
	tags := make([]string, 0, n)
	for len(tags) < n {
		tag := strings.ToLower(f.fake.HipsterWord())
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func (f *Factory) platforms() []models.Platform {
	n := f.fake.Number(1, 3)
	out := make([]models.Platform, 0, n)
	for _, i := range f.pick(n, len(models.Platforms)) {
		out = append(out, models.Platforms[i].ID)
	}
	return out
}

// pick returns n distinct indexes below total in random order.
func (f *Factory) pick(n, total int) []int {
	if n > total {
		n = total
	}
	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	for len(out) < n {
		i := f.fake.Number(0, total-1)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}
