package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"classhub/internal/cache"
	"classhub/internal/models"
	"classhub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name                 string `json:"name"`
		Username             string `json:"username"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}
	if req.PasswordConfirmation != "" && req.Password != req.PasswordConfirmation {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Passwords do not match"))
	}

	// Usernames are stored lowercase so profile lookups are case-insensitive.
	username := strings.ToLower(req.Username)

	if err := validation.ValidateUsername(username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	// Check if user already exists
	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("Email already registered"))
	}
	existing, err = s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		return respondError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("Username already taken"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		Name:     req.Name,
		Username: username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Balance:  models.DefaultBalance,
	}
	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return respondError(c, createErr)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout. The presented token's JTI is
// denied for the remainder of its lifetime.
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	exp, _ := c.Locals("tokenExp").(time.Time)

	if jti != "" {
		ttl := tokenLifetime
		if !exp.IsZero() {
			ttl = time.Until(exp)
		}
		if ttl > 0 {
			if err := cache.DenyToken(c.Context(), jti, ttl); err != nil {
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

const tokenLifetime = 7 * 24 * time.Hour

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenLifetime).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
