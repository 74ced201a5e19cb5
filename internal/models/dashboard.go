package models

import (
	"time"
)

// SocialAccount is a connected platform account shown on the dashboard.
type SocialAccount struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Platform   Platform  `gorm:"not null;index" json:"platform"`
	Username   string    `gorm:"not null" json:"username"`
	Connected  bool      `json:"connected"`
	ProfileURL string    `json:"profile_url,omitempty"`
	Followers  int64     `json:"followers"`
	Avatar     string    `json:"avatar,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PostStatus is the lifecycle state of a recorded post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// MediaRef describes an attached media file inside a recorded post.
type MediaRef struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Kind        MediaKind `json:"kind"`
}

// ScheduledPost is a finalized draft handed to the publish/schedule sink.
type ScheduledPost struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Content       string     `gorm:"type:text" json:"content"`
	Title         string     `json:"title,omitempty"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	PostType      PostType   `gorm:"not null;default:post" json:"post_type"`
	Tags          []string   `gorm:"serializer:json" json:"tags"`
	Media         []MediaRef `gorm:"serializer:json" json:"media"`
	Thumbnail     *MediaRef  `gorm:"serializer:json" json:"thumbnail,omitempty"`
	Platforms     []Platform `gorm:"serializer:json" json:"platforms"`
	ScheduledFor  time.Time  `gorm:"not null;index" json:"scheduled_for"`
	Status        PostStatus `gorm:"not null;index" json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AnalyticsSnapshot is a captured analytics summary.
type AnalyticsSnapshot struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	Followers         int64            `json:"followers"`
	EngagementRate    float64          `json:"engagement_rate"`
	TotalPosts        int64            `json:"total_posts"`
	TotalInteractions int64            `json:"total_interactions"`
	CapturedAt        time.Time        `gorm:"not null;index" json:"captured_at"`
	Platforms         []PlatformMetric `gorm:"foreignKey:SnapshotID" json:"platform_metrics"`
}

// PlatformMetric holds per-platform numbers of a snapshot.
type PlatformMetric struct {
	ID         uint     `gorm:"primaryKey" json:"-"`
	SnapshotID uint     `gorm:"not null;index" json:"-"`
	Platform   Platform `gorm:"not null" json:"platform"`
	Followers  int64    `json:"followers"`
	Engagement float64  `json:"engagement"`
	Posts      int64    `json:"posts"`
	Views      int64    `json:"views,omitempty"`
	Likes      int64    `json:"likes,omitempty"`
	Comments   int64    `json:"comments,omitempty"`
	Shares     int64    `json:"shares,omitempty"`
}

// PlatformSettings are per-platform publishing preferences.
type PlatformSettings struct {
	Platform       Platform   `gorm:"primaryKey" json:"platform"`
	Enabled        bool       `json:"enabled"`
	AutoPost       bool       `json:"auto_post"`
	BestTimeToPost []string   `gorm:"serializer:json" json:"best_time_to_post"`
	HashtagGroups  [][]string `gorm:"serializer:json" json:"hashtag_groups,omitempty"`
	DefaultPrivacy string     `json:"default_privacy,omitempty"`
	CrossPosting   []Platform `gorm:"serializer:json" json:"cross_posting,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DefaultPlatformSettings returns the settings used when none are stored.
func DefaultPlatformSettings(p Platform) PlatformSettings {
	return PlatformSettings{
		Platform:       p,
		Enabled:        true,
		BestTimeToPost: []string{},
	}
}
