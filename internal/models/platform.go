// Package models contains data structures for the application's domain models.
package models

import "strings"

// Platform identifies a target social network.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformX         Platform = "x"
	PlatformTikTok    Platform = "tiktok"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformPinterest Platform = "pinterest"
	PlatformThreads   Platform = "threads"
)

// PlatformInfo is the display metadata for a platform.
type PlatformInfo struct {
	ID    Platform `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
}

// Platforms lists every supported platform in selector order.
var Platforms = []PlatformInfo{
	{ID: PlatformFacebook, Name: "Facebook", Color: "#1877F2"},
	{ID: PlatformInstagram, Name: "Instagram", Color: "#E1306C"},
	{ID: PlatformYouTube, Name: "YouTube", Color: "#FF0000"},
	{ID: PlatformX, Name: "X (Twitter)", Color: "#000000"},
	{ID: PlatformTikTok, Name: "TikTok", Color: "#000000"},
	{ID: PlatformLinkedIn, Name: "LinkedIn", Color: "#0A66C2"},
	{ID: PlatformPinterest, Name: "Pinterest", Color: "#E60023"},
	{ID: PlatformThreads, Name: "Threads", Color: "#000000"},
}

// ParsePlatform normalizes an identifier. The legacy "twitter" id maps to X.
func ParsePlatform(raw string) (Platform, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "twitter" {
		return PlatformX, true
	}
	for _, p := range Platforms {
		if string(p.ID) == id {
			return p.ID, true
		}
	}
	return "", false
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	for _, info := range Platforms {
		if info.ID == p {
			return true
		}
	}
	return false
}

// PostType is the kind of content being composed.
type PostType string

const (
	PostTypePost  PostType = "post"
	PostTypeStory PostType = "story"
	PostTypeReel  PostType = "reel"
)

// Valid reports whether t is one of post, story or reel.
func (t PostType) Valid() bool {
	switch t {
	case PostTypePost, PostTypeStory, PostTypeReel:
		return true
	default:
		return false
	}
}

// MediaKind distinguishes image handles from video handles.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaItem is a handle to an uploaded file. The bytes live in the media store.
type MediaItem struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Kind        MediaKind `json:"kind"`
}

// IsImage reports whether the handle carries an image content type.
func (m MediaItem) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(m.ContentType), "image/")
}

// IsVideo reports whether the handle carries a video content type.
func (m MediaItem) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(m.ContentType), "video/")
}

// KindFor derives the media kind from a content type. Unknown types return "".
func KindFor(contentType string) MediaKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaKindImage
	case strings.HasPrefix(ct, "video/"):
		return MediaKindVideo
	default:
		return ""
	}
}
