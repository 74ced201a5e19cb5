package server

import (
	"time"

	"postdeck/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetDashboard handles GET /api/dashboard
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	overview, err := s.dashboard.Overview(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}

// GetAccounts handles GET /api/accounts
func (s *Server) GetAccounts(c *fiber.Ctx) error {
	accounts, err := s.dashboard.Accounts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

// GetAnalytics handles GET /api/analytics
func (s *Server) GetAnalytics(c *fiber.Ctx) error {
	summary, err := s.dashboard.AnalyticsSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetCalendar handles GET /api/calendar?from=&to= (RFC 3339). The range
// defaults to the seven days starting today.
func (s *Server) GetCalendar(c *fiber.Ctx) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("from must be an RFC 3339 time"))
		}
		if c.Query("to") == "" {
			to = from.AddDate(0, 0, 7)
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("to must be an RFC 3339 time"))
		}
	}

	posts, err := s.dashboard.Calendar(c.UserContext(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"from":  from,
		"to":    to,
		"posts": posts,
	})
}

// GetUpcomingPosts handles GET /api/posts/upcoming?limit=
func (s *Server) GetUpcomingPosts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("limit cannot be negative"))
	}
	posts, err := s.dashboard.UpcomingPosts(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
