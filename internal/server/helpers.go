package server

import (
	"errors"

	"classhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts the "id" route parameter as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// statusForError maps an application error to its HTTP status code.
// Unknown errors are treated as internal.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeInsufficientBalance:
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error response for a service/repository error.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForError(err), err)
}
