package composer

import (
	"postdeck/internal/models"
)

// Snapshot is an immutable copy of a draft, suitable for serialization and
// for handing to the publish sink.
type Snapshot struct {
	Platforms       []models.Platform  `json:"platforms"`
	PostType        models.PostType    `json:"post_type"`
	Body            string             `json:"body"`
	Media           []models.MediaItem `json:"media"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Tags            []string           `json:"tags"`
	Thumbnail       *models.MediaItem  `json:"thumbnail,omitempty"`
	HasValidContent bool               `json:"has_valid_content"`
	Publishable     bool               `json:"publishable"`
}

// Snapshot copies the current state.
func (d *Draft) Snapshot() Snapshot {
	platforms := d.Platforms()
	if platforms == nil {
		platforms = []models.Platform{}
	}
	media := d.Media()
	if media == nil {
		media = []models.MediaItem{}
	}
	tags := d.Tags()
	if tags == nil {
		tags = []string{}
	}
	return Snapshot{
		Platforms:       platforms,
		PostType:        d.postType,
		Body:            d.body,
		Media:           media,
		Title:           d.metadata.Title,
		Description:     d.metadata.Description,
		Tags:            tags,
		Thumbnail:       d.Thumbnail(),
		HasValidContent: d.HasValidContent(),
		Publishable:     d.IsPublishable(),
	}
}

// MediaRefs converts the snapshot's media to the recorded form.
func (s Snapshot) MediaRefs() []models.MediaRef {
	refs := make([]models.MediaRef, 0, len(s.Media))
	for _, m := range s.Media {
		refs = append(refs, toRef(m))
	}
	return refs
}

// ThumbnailRef converts the thumbnail to the recorded form.
func (s Snapshot) ThumbnailRef() *models.MediaRef {
	if s.Thumbnail == nil {
		return nil
	}
	ref := toRef(*s.Thumbnail)
	return &ref
}

func toRef(m models.MediaItem) models.MediaRef {
	return models.MediaRef{
		Filename:    m.Filename,
		ContentType: m.ContentType,
		Size:        m.Size,
		Kind:        m.Kind,
	}
}
