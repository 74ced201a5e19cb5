package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"postdeck/internal/media"
	"postdeck/internal/middleware"
	"postdeck/internal/models"
	"postdeck/internal/observability"
	"postdeck/internal/session"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
)

const (
	mediaFormField     = "files"
	thumbnailFormField = "thumbnail"
)

// UploadMedia handles POST /api/sessions/:id/media. Every "files" part goes
// through the media filter; rejected files are dropped and the response shows
// the accepted ones only.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Expected a multipart form"))
	}
	files := form.File[mediaFormField]
	if len(files) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No files uploaded"))
	}

	accepted := s.ingest(c, files)
	state, err := sess.AddMedia(accepted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// SetThumbnail handles PUT /api/sessions/:id/thumbnail. Any image type is
// taken as the cover; a non-image file is ignored and leaves the current
// thumbnail in place.
func (s *Server) SetThumbnail(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return nil
	}
	header, err := c.FormFile(thumbnailFormField)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	accepted, ok := s.ingestThumbnail(c, header)
	if !ok {
		state, err := sess.State()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(state)
	}
	state, err := sess.SetThumbnail(accepted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// RemoveMedia handles DELETE /api/sessions/:id/media/:index
func (s *Server) RemoveMedia(c *fiber.Ctx) error {
	index, err := parseIndex(c, "index")
	if err != nil {
		return nil
	}
	return s.mutate(c, func(sess *session.Session) (session.State, error) {
		return sess.RemoveMedia(index)
	})
}

// ClearThumbnail handles DELETE /api/sessions/:id/thumbnail
func (s *Server) ClearThumbnail(c *fiber.Ctx) error {
	return s.mutate(c, (*session.Session).ClearThumbnail)
}

// ServePreview handles GET /api/previews/:token. ?format=webp or jpeg asks
// for a downscaled image rendition.
func (s *Server) ServePreview(c *fiber.Ctx) error {
	item, content, ok := s.registry.Resolve(c.Params("token"))
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Preview", c.Params("token")))
	}
	rendition, err := s.renderer.Render(item, content, c.Query("format"))
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "preview rendition failed, serving original",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()),
		)
		rendition = media.Rendition{ContentType: item.ContentType, Content: content}
	}
	c.Set(fiber.HeaderContentType, rendition.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(rendition.Content)
}

// ingest reads the uploaded parts and filters them. Rejections are logged and
// counted.
func (s *Server) ingest(c *fiber.Ctx, files []*multipart.FileHeader) []media.Accepted {
	uploads := make([]media.Upload, 0, len(files))
	var rejected []*media.RejectionError
	for _, fh := range files {
		if fh.Size > s.filter.MaxSize {
			rejected = append(rejected, &media.RejectionError{
				Filename: fh.Filename,
				Reason:   media.RejectSize,
				Detail:   fmt.Sprintf("%s exceeds %s", humanize.IBytes(uint64(fh.Size)), humanize.IBytes(uint64(s.filter.MaxSize))),
			})
			continue
		}
		content, err := readPart(fh)
		if err != nil {
			rejected = append(rejected, &media.RejectionError{Filename: fh.Filename, Reason: media.RejectEmpty, Detail: err.Error()})
			continue
		}
		uploads = append(uploads, media.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Content:     content,
		})
	}

	accepted, filtered := s.filter.Ingest(uploads)
	rejected = append(rejected, filtered...)
	s.recordUploads(c, accepted, rejected)
	return accepted
}

// ingestThumbnail reads a cover upload and passes it through the thumbnail
// filter, which has no size or extension limits.
func (s *Server) ingestThumbnail(c *fiber.Ctx, fh *multipart.FileHeader) (media.Accepted, bool) {
	content, err := readPart(fh)
	if err != nil {
		s.recordUploads(c, nil, []*media.RejectionError{{Filename: fh.Filename, Reason: media.RejectEmpty, Detail: err.Error()}})
		return media.Accepted{}, false
	}
	accepted, err := s.filter.AcceptThumbnail(media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		var rej *media.RejectionError
		if !errors.As(err, &rej) {
			rej = &media.RejectionError{Filename: fh.Filename, Reason: media.RejectType, Detail: err.Error()}
		}
		s.recordUploads(c, nil, []*media.RejectionError{rej})
		return media.Accepted{}, false
	}
	s.recordUploads(c, []media.Accepted{accepted}, nil)
	return accepted, true
}

// recordUploads logs and counts each filter decision.
func (s *Server) recordUploads(c *fiber.Ctx, accepted []media.Accepted, rejected []*media.RejectionError) {
	for _, rej := range rejected {
		observability.MediaRejected.WithLabelValues(string(rej.Reason)).Inc()
		middleware.Logger.InfoContext(c.UserContext(), "upload rejected",
			slog.String("filename", rej.Filename),
			slog.String("reason", string(rej.Reason)),
			slog.String("detail", rej.Detail),
		)
	}
	for _, a := range accepted {
		observability.MediaAccepted.WithLabelValues(string(a.Item.Kind)).Inc()
		middleware.Logger.InfoContext(c.UserContext(), "upload accepted",
			slog.String("filename", a.Item.Filename),
			slog.String("size", humanize.IBytes(uint64(a.Item.Size))),
			slog.String("kind", string(a.Item.Kind)),
		)
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return content, nil
}
