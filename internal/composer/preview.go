package composer

import (
	"postdeck/internal/models"
)

// VisualKind says how a preview's visual is rendered.
type VisualKind string

const (
	VisualNone  VisualKind = "none"
	VisualImage VisualKind = "image"
	VisualVideo VisualKind = "video"
)

// Visual is the image or video shown at the top of a preview card.
type Visual struct {
	Kind    VisualKind `json:"kind"`
	MediaID string     `json:"media_id,omitempty"`
	URL     string     `json:"url,omitempty"`
}

// PlatformPreview is the read-only card rendered for one selected platform.
type PlatformPreview struct {
	Platform models.Platform `json:"platform"`
	Visual   Visual          `json:"visual"`
	Title    string          `json:"title,omitempty"`
	Caption  string          `json:"caption"`
	Tags     []string        `json:"tags"`
}

// URLResolver maps a media handle to the URL a renderer can load it from.
type URLResolver func(item models.MediaItem) string

// Preview projects the draft into one card per selected platform. It does not
// modify the draft and returns the same result for the same state.
func (d *Draft) Preview(resolve URLResolver) []PlatformPreview {
	visual := d.visual(resolve)

	caption := d.body
	if d.metadata.Description != "" {
		caption = d.metadata.Description
	}

	tags := make([]string, 0, len(d.metadata.Tags))
	for _, t := range d.metadata.Tags {
		tags = append(tags, "#"+t)
	}

	previews := make([]PlatformPreview, 0, len(d.platforms))
	for _, p := range d.platforms {
		previews = append(previews, PlatformPreview{
			Platform: p,
			Visual:   visual,
			Title:    d.metadata.Title,
			Caption:  caption,
			Tags:     append([]string(nil), tags...),
		})
	}
	return previews
}

func (d *Draft) visual(resolve URLResolver) Visual {
	url := func(item models.MediaItem) string {
		if resolve == nil {
			return ""
		}
		return resolve(item)
	}

	if t := d.metadata.Thumbnail; t != nil {
		return Visual{Kind: VisualImage, MediaID: t.ID, URL: url(*t)}
	}
	if len(d.media) == 0 {
		return Visual{Kind: VisualNone}
	}
	first := d.media[0]
	switch {
	case first.IsImage():
		return Visual{Kind: VisualImage, MediaID: first.ID, URL: url(first)}
	case first.IsVideo():
		return Visual{Kind: VisualVideo, MediaID: first.ID, URL: url(first)}
	default:
		return Visual{Kind: VisualNone}
	}
}
