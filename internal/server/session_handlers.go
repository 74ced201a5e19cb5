package server

import (
	"log/slog"
	"net/url"
	"time"

	"postdeck/internal/middleware"
	"postdeck/internal/models"
	"postdeck/internal/service"
	"postdeck/internal/session"

	"github.com/gofiber/fiber/v2"
)

// TextRequest carries a replacement value for a text field.
type TextRequest struct {
	Text string `json:"text"`
}

// PostTypeRequest selects the post type.
type PostTypeRequest struct {
	PostType string `json:"post_type"`
}

// TagRequest names a tag to add.
type TagRequest struct {
	Tag string `json:"tag"`
}

// SubmitRequest finalizes the draft.
type SubmitRequest struct {
	Mode         string     `json:"mode"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// SubmitResponse is the recorded post.
type SubmitResponse struct {
	Post *models.ScheduledPost `json:"post"`
}

// GetPlatforms handles GET /api/platforms
func (s *Server) GetPlatforms(c *fiber.Ctx) error {
	return c.JSON(models.Platforms)
}

// CreateSession handles POST /api/sessions
func (s *Server) CreateSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Create()
	if err != nil {
		return respondError(c, err)
	}
	state, err := sess.State()
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(state)
}

// ListSessions handles GET /api/sessions
func (s *Server) ListSessions(c *fiber.Ctx) error {
	return c.JSON(s.sessions.List())
}

// GetSession handles GET /api/sessions/:id
func (s *Server) GetSession(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return nil
	}
	state, err := sess.State()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// EndSession handles DELETE /api/sessions/:id
func (s *Server) EndSession(c *fiber.Ctx) error {
	if !s.sessions.End(c.Params("id")) {
		return respondError(c, session.ErrNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TogglePlatform handles POST /api/sessions/:id/platforms/:platform/toggle
func (s *Server) TogglePlatform(c *fiber.Ctx) error {
	platform, ok := models.ParsePlatform(c.Params("platform"))
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown platform: "+c.Params("platform")))
	}
	return s.mutate(c, func(sess *session.Session) (session.State, error) {
		return sess.TogglePlatform(platform)
	})
}

// SetPostType handles PUT /api/sessions/:id/post-type. Unknown types leave
// the draft unchanged.
func (s *Server) SetPostType(c *fiber.Ctx) error {
	var req PostTypeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.mutate(c, func(sess *session.Session) (session.State, error) {
		return sess.SetPostType(models.PostType(req.PostType))
	})
}

// SetBody handles PUT /api/sessions/:id/body
func (s *Server) SetBody(c *fiber.Ctx) error {
	return s.setText(c, (*session.Session).SetBody)
}

// SetTitle handles PUT /api/sessions/:id/title
func (s *Server) SetTitle(c *fiber.Ctx) error {
	return s.setText(c, (*session.Session).SetTitle)
}

// SetDescription handles PUT /api/sessions/:id/description
func (s *Server) SetDescription(c *fiber.Ctx) error {
	return s.setText(c, (*session.Session).SetDescription)
}

// SetTagInput handles PUT /api/sessions/:id/tag-input
func (s *Server) SetTagInput(c *fiber.Ctx) error {
	return s.setText(c, (*session.Session).SetTagInput)
}

func (s *Server) setText(c *fiber.Ctx, set func(*session.Session, string) (session.State, error)) error {
	var req TextRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.mutate(c, func(sess *session.Session) (session.State, error) {
		return set(sess, req.Text)
	})
}

// CommitTag handles POST /api/sessions/:id/tags/commit
func (s *Server) CommitTag(c *fiber.Ctx) error {
	return s.mutate(c, (*session.Session).CommitTag)
}

// AddTag handles POST /api/sessions/:id/tags
func (s *Server) AddTag(c *fiber.Ctx) error {
	var req TagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.mutate(c, func(sess *session.Session) (session.State, error) {
		return sess.AddTag(req.Tag)
	})
}

// RemoveTag handles DELETE /api/sessions/:id/tags/:tag
func (s *Server) RemoveTag(c *fiber.Ctx) error {
	tag, err := url.PathUnescape(c.Params("tag"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid tag"))
	}
	return s.mutate(c, func(sess *session.Session) (session.State, error) {
		return sess.RemoveTag(tag)
	})
}

// GetPreview handles GET /api/sessions/:id/preview
func (s *Server) GetPreview(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return nil
	}
	previews, err := sess.Preview()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(previews)
}

// SubmitDraft handles POST /api/sessions/:id/submit
func (s *Server) SubmitDraft(c *fiber.Ctx) error {
	var req SubmitRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	sess, err := s.lookupSession(c)
	if err != nil {
		return nil
	}
	snapshot, err := sess.Snapshot()
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.publisher.Submit(c.UserContext(), service.SubmitInput{
		Snapshot:     snapshot,
		Mode:         service.SubmitMode(req.Mode),
		ScheduledFor: req.ScheduledFor,
		SessionID:    sess.ID,
	})
	if err != nil {
		middleware.Logger.InfoContext(c.UserContext(), "submit refused",
			slog.String("error", err.Error()),
		)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(SubmitResponse{Post: post})
}
