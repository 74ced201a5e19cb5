// Package composer holds the state of one in-progress post and decides
// whether it can be published.
//
// Every operation is total. Invalid input never produces an error; it leaves
// the draft unchanged. The only gate is IsPublishable.
package composer

import (
	"slices"
	"strings"

	"postdeck/internal/models"
)

// Metadata is the optional descriptive data of a draft.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Thumbnail   *models.MediaItem
}

// Draft is a single unpersisted post under composition. It is not safe for
// concurrent use; callers serialize access.
type Draft struct {
	platforms []models.Platform
	postType  models.PostType
	body      string
	media     []models.MediaItem
	metadata  Metadata
}

// NewDraft returns an empty draft of type post.
func NewDraft() *Draft {
	return &Draft{postType: models.PostTypePost}
}

// TogglePlatform selects p when absent and deselects it when present.
func (d *Draft) TogglePlatform(p models.Platform) {
	if i := slices.Index(d.platforms, p); i >= 0 {
		d.platforms = slices.Delete(d.platforms, i, i+1)
		return
	}
	d.platforms = append(d.platforms, p)
}

// IsSelected reports whether p is currently selected.
func (d *Draft) IsSelected(p models.Platform) bool {
	return slices.Contains(d.platforms, p)
}

// Platforms returns the selected platforms in selection order.
func (d *Draft) Platforms() []models.Platform {
	return slices.Clone(d.platforms)
}

// SetPostType switches the post type. Media and metadata are kept.
func (d *Draft) SetPostType(t models.PostType) {
	if !t.Valid() {
		return
	}
	d.postType = t
}

// PostType returns the current post type.
func (d *Draft) PostType() models.PostType { return d.postType }

// SetBody replaces the caption text.
func (d *Draft) SetBody(text string) { d.body = text }

// Body returns the caption text.
func (d *Draft) Body() string { return d.body }

// SetTitle replaces the title.
func (d *Draft) SetTitle(text string) { d.metadata.Title = text }

// SetDescription replaces the description.
func (d *Draft) SetDescription(text string) { d.metadata.Description = text }

// AddMedia appends items in arrival order.
func (d *Draft) AddMedia(items ...models.MediaItem) {
	d.media = append(d.media, items...)
}

// RemoveMedia drops the item at index and returns it. Out of range is a no-op.
func (d *Draft) RemoveMedia(index int) (models.MediaItem, bool) {
	if index < 0 || index >= len(d.media) {
		return models.MediaItem{}, false
	}
	removed := d.media[index]
	d.media = slices.Delete(d.media, index, index+1)
	return removed, true
}

// Media returns the attached items in display order.
func (d *Draft) Media() []models.MediaItem {
	return slices.Clone(d.media)
}

// SetThumbnail installs item as the thumbnail when it is image-typed and
// returns the replaced thumbnail, if any. Anything else is ignored.
func (d *Draft) SetThumbnail(item models.MediaItem) (*models.MediaItem, bool) {
	if !item.IsImage() {
		return nil, false
	}
	prev := d.metadata.Thumbnail
	d.metadata.Thumbnail = &item
	return prev, true
}

// ClearThumbnail unsets the thumbnail and returns the previous one.
func (d *Draft) ClearThumbnail() *models.MediaItem {
	prev := d.metadata.Thumbnail
	d.metadata.Thumbnail = nil
	return prev
}

// Thumbnail returns the current thumbnail or nil.
func (d *Draft) Thumbnail() *models.MediaItem {
	if d.metadata.Thumbnail == nil {
		return nil
	}
	t := *d.metadata.Thumbnail
	return &t
}

// AddTag appends the trimmed text unless it is empty or already present.
func (d *Draft) AddTag(text string) bool {
	tag := strings.TrimSpace(text)
	if tag == "" || slices.Contains(d.metadata.Tags, tag) {
		return false
	}
	d.metadata.Tags = append(d.metadata.Tags, tag)
	return true
}

// RemoveTag removes an exact match.
func (d *Draft) RemoveTag(text string) bool {
	i := slices.Index(d.metadata.Tags, text)
	if i < 0 {
		return false
	}
	d.metadata.Tags = slices.Delete(d.metadata.Tags, i, i+1)
	return true
}

// Tags returns the tags in insertion order.
func (d *Draft) Tags() []string {
	return slices.Clone(d.metadata.Tags)
}

// Metadata returns a copy of the metadata.
func (d *Draft) Metadata() Metadata {
	m := d.metadata
	m.Tags = slices.Clone(d.metadata.Tags)
	m.Thumbnail = d.Thumbnail()
	return m
}

// HasValidContent checks the content half of the publish rule: a post needs
// a caption or media; a story or reel needs media and a title.
func (d *Draft) HasValidContent() bool {
	if d.postType == models.PostTypePost {
		return strings.TrimSpace(d.body) != "" || len(d.media) > 0
	}
	return len(d.media) > 0 && strings.TrimSpace(d.metadata.Title) != ""
}

// IsPublishable reports whether the publish action is available. It is
// computed from the current state on every call.
func (d *Draft) IsPublishable() bool {
	return len(d.platforms) > 0 && d.HasValidContent()
}
