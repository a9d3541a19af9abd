package server

import (
	"time"

	"classhub/internal/cache"
	"classhub/internal/models"
	"classhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	profile, err := s.userService.Profile(c.Context(), userID, c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Bio      string `json:"bio"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   userID,
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteMyAccount handles DELETE /api/users/me. The caller's messages,
// conspects, and roster entries are removed; hosted classrooms survive
// with a null host. The session token is revoked on the way out.
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.userService.DeleteAccount(c.Context(), userID); err != nil {
		return respondError(c, err)
	}

	if jti, ok := c.Locals("jti").(string); ok && jti != "" {
		ttl := tokenLifetime
		if exp, ok := c.Locals("tokenExp").(time.Time); ok && !exp.IsZero() {
			ttl = time.Until(exp)
		}
		if ttl > 0 {
			_ = cache.DenyToken(c.Context(), jti, ttl)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Account deleted",
	})
}

// UploadAvatar handles POST /api/users/me/avatar (multipart)
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("An avatar file is required"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer src.Close()

	objectName, err := s.avatars.Save(src, fileHeader.Filename)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user, err := s.userService.SetAvatar(c.Context(), userID, objectName)
	if err != nil {
		_ = s.avatars.Remove(objectName)
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username
// The username must match exactly (case-insensitive).
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := s.userService.GetByUsername(c.Context(), username)
	if err != nil {
		return respondError(c, err)
	}

	profile, err := s.userService.Profile(c.Context(), user.ID, c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetAllUsers handles GET /api/users
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	pagination := parsePagination(c, 20)

	users, err := s.userRepo.List(c.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
