package server

import (
	"errors"
	"strconv"
	"strings"

	"hirocks/internal/middleware"
	"hirocks/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 ID입니다."))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseOptionalID parses a positive integer query or form value. An empty
// value yields nil.
func parseOptionalID(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return nil, models.NewValidationError("잘못된 ID입니다.")
	}
	id := uint(v)
	return &id, nil
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "status", status, "error", err)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		err = &models.AppError{Code: "INTERNAL_ERROR", Message: "서버 오류가 발생했습니다.", Err: err}
	}
	return models.RespondWithError(c, status, err)
}
