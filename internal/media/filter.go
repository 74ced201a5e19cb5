// Package media implements the upload boundary and the preview resources
// that back attached media while a draft is being composed.
package media

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"postdeck/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// DefaultMaxSize is the per-file cap applied when none is configured.
const DefaultMaxSize int64 = 100 * 1024 * 1024

var (
	imageExtensions = []string{".jpeg", ".jpg", ".png", ".gif"}
	videoExtensions = []string{".mp4", ".mov", ".avi"}
)

// Upload is a file received from a picker or drag-drop.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// RejectReason explains why an upload was dropped.
type RejectReason string

const (
	RejectEmpty     RejectReason = "empty"
	RejectType      RejectReason = "type"
	RejectExtension RejectReason = "extension"
	RejectSize      RejectReason = "size"
)

// RejectionError is returned by Accept for an upload that fails the filter.
type RejectionError struct {
	Filename string
	Reason   RejectReason
	Detail   string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected %q (%s): %s", e.Filename, e.Reason, e.Detail)
}

// Accepted pairs a new media handle with its content.
type Accepted struct {
	Item    models.MediaItem
	Content []byte
}

// Filter accepts images and videos up to MaxSize.
type Filter struct {
	MaxSize int64
}

// NewFilter returns a filter with the given per-file cap. Non-positive caps
// fall back to DefaultMaxSize.
func NewFilter(maxSize int64) *Filter {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Filter{MaxSize: maxSize}
}

// Accept checks a single upload and, on success, assigns it a handle.
func (f *Filter) Accept(u Upload) (Accepted, error) {
	if len(u.Content) == 0 {
		return Accepted{}, &RejectionError{Filename: u.Filename, Reason: RejectEmpty, Detail: "no content"}
	}

	size := int64(len(u.Content))
	if size > f.MaxSize {
		return Accepted{}, &RejectionError{
			Filename: u.Filename,
			Reason:   RejectSize,
			Detail:   fmt.Sprintf("%s exceeds %s", humanize.IBytes(uint64(size)), humanize.IBytes(uint64(f.MaxSize))),
		}
	}

	contentType := DetectContentType(u.ContentType, u.Content)
	kind := models.KindFor(contentType)
	if kind == "" {
		return Accepted{}, &RejectionError{Filename: u.Filename, Reason: RejectType, Detail: contentType}
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	allowed := imageExtensions
	if kind == models.MediaKindVideo {
		allowed = videoExtensions
	}
	if !slices.Contains(allowed, ext) {
		return Accepted{}, &RejectionError{Filename: u.Filename, Reason: RejectExtension, Detail: ext}
	}

	return Accepted{
		Item: models.MediaItem{
			ID:          uuid.NewString(),
			Filename:    filepath.Base(u.Filename),
			ContentType: contentType,
			Size:        size,
			Kind:        kind,
		},
		Content: u.Content,
	}, nil
}

// AcceptThumbnail checks a cover image. Any image/* type is allowed, declared
// or sniffed, and neither the extension nor the per-file cap applies.
func (f *Filter) AcceptThumbnail(u Upload) (Accepted, error) {
	if len(u.Content) == 0 {
		return Accepted{}, &RejectionError{Filename: u.Filename, Reason: RejectEmpty, Detail: "no content"}
	}

	contentType := DetectContentType(u.ContentType, u.Content)
	if models.KindFor(contentType) != models.MediaKindImage {
		return Accepted{}, &RejectionError{Filename: u.Filename, Reason: RejectType, Detail: contentType}
	}

	return Accepted{
		Item: models.MediaItem{
			ID:          uuid.NewString(),
			Filename:    filepath.Base(u.Filename),
			ContentType: contentType,
			Size:        int64(len(u.Content)),
			Kind:        models.MediaKindImage,
		},
		Content: u.Content,
	}, nil
}

// Ingest filters a batch, keeping the arrival order of accepted uploads.
func (f *Filter) Ingest(uploads []Upload) ([]Accepted, []*RejectionError) {
	var accepted []Accepted
	var rejected []*RejectionError
	for _, u := range uploads {
		a, err := f.Accept(u)
		if err != nil {
			if rej, ok := err.(*RejectionError); ok {
				rejected = append(rejected, rej)
			}
			continue
		}
		accepted = append(accepted, a)
	}
	return accepted, rejected
}

// DetectContentType normalizes the declared type and falls back to sniffing
// when the declaration is missing or generic.
func DetectContentType(declared string, content []byte) string {
	ct := normalizeContentType(declared)
	if ct == "" || ct == "application/octet-stream" {
		ct = normalizeContentType(http.DetectContentType(content))
	}
	return ct
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
