package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AccountsKey         = "dashboard:accounts"
	AnalyticsSummaryKey = "dashboard:analytics"
	UpcomingKeyPrefix   = "dashboard:upcoming:%d"
	SettingsKeyPrefix   = "settings:platform:%s"
)

const (
	DashboardTTL = 5 * time.Minute
	SettingsTTL  = 10 * time.Minute
)

// DefaultUpcomingLimit is the number of upcoming posts the dashboard shows.
const DefaultUpcomingLimit = 5

func UpcomingKey(limit int) string {
	return fmt.Sprintf(UpcomingKeyPrefix, limit)
}

func SettingsKey(platform string) string {
	return fmt.Sprintf(SettingsKeyPrefix, platform)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateDashboard drops the cached dashboard reads after the sink records
// a post.
func InvalidateDashboard(ctx context.Context) {
	Invalidate(ctx, AccountsKey, AnalyticsSummaryKey, UpcomingKey(DefaultUpcomingLimit))
}

func InvalidateSettings(ctx context.Context, platform string) {
	Invalidate(ctx, SettingsKey(platform))
}
