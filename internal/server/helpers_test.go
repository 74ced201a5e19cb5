package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"postdeck/internal/models"
	"postdeck/internal/service"
	"postdeck/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", session.ErrNotFound, fiber.StatusNotFound},
		{"session ended", fmt.Errorf("toggle: %w", session.ErrEnded), fiber.StatusNotFound},
		{"session limit", session.ErrLimitReached, fiber.StatusServiceUnavailable},
		{"validation", models.NewValidationError("bad"), fiber.StatusBadRequest},
		{"not found", models.NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{"not publishable", models.NewNotPublishableError(service.ErrNotPublishable.Error()), fiber.StatusUnprocessableEntity},
		{"unavailable", models.NewUnavailableError("busy"), fiber.StatusServiceUnavailable},
		{"internal", models.NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapServiceError(tt.err))
		})
	}
}

func TestParseIndex(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:index", func(c *fiber.Ctx) error {
		i, err := parseIndex(c, "index")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"index": i})
	})

	tests := []struct {
		path string
		want int
	}{
		{"/items/3", fiber.StatusOK},
		{"/items/-1", fiber.StatusOK},
		{"/items/first", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRespondErrorCarriesCode(t *testing.T) {
	app := fiber.New()
	app.Get("/sessions/:id", func(c *fiber.Ctx) error {
		return respondError(c, session.ErrNotFound)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, models.CodeNotFound, body.Code)
}
