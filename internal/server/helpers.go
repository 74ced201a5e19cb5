package server

import (
	"errors"
	"strconv"

	"postdeck/internal/middleware"
	"postdeck/internal/models"
	"postdeck/internal/session"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// mapServiceError maps an error to its HTTP status.
func mapServiceError(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEnded):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrLimitReached):
		return fiber.StatusServiceUnavailable
	}

	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeNotPublishable:
		return fiber.StatusUnprocessableEntity
	case models.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Session sentinels become
// AppErrors so every error body carries a code.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEnded):
		err = models.NewNotFoundError("Session", c.Params("id"))
	case errors.Is(err, session.ErrLimitReached):
		err = models.NewUnavailableError("Too many open sessions, try again later")
	}
	return models.RespondWithError(c, status, err)
}

// lookupSession resolves the :id route parameter. On failure it writes a 404
// and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) lookupSession(c *fiber.Ctx) (*session.Session, error) {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		_ = respondError(c, err)
		return nil, errResponseWritten
	}
	c.SetUserContext(middleware.WithSessionID(c.UserContext(), sess.ID))
	return sess, nil
}

// parseIndex extracts an integer route parameter; range checks are left to
// the draft. A non-numeric value writes a 400 and returns errResponseWritten.
func parseIndex(c *fiber.Ctx, param string) (int, error) {
	i, err := strconv.Atoi(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return i, nil
}

// parseBody decodes the JSON body into dest. On failure it writes a 400 and
// returns errResponseWritten.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// mutate runs op on the session named by :id and answers with the resulting
// state. No-op operations still answer 200.
func (s *Server) mutate(c *fiber.Ctx, op func(*session.Session) (session.State, error)) error {
	sess, err := s.lookupSession(c)
	if err != nil {
		return nil
	}
	state, err := op(sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}
