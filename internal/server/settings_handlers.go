package server

import (
	"postdeck/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPlatformSettings handles GET /api/settings/platforms
func (s *Server) ListPlatformSettings(c *fiber.Ctx) error {
	out, err := s.settings.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetPlatformSettings handles GET /api/settings/platforms/:platform
func (s *Server) GetPlatformSettings(c *fiber.Ctx) error {
	out, err := s.settings.Get(c.UserContext(), c.Params("platform"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdatePlatformSettings handles PUT /api/settings/platforms/:platform. The
// path names the platform; a platform in the body is ignored.
func (s *Server) UpdatePlatformSettings(c *fiber.Ctx) error {
	var in service.UpdateSettingsInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.Platform = c.Params("platform")

	out, err := s.settings.Update(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
