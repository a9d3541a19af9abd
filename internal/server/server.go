// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"classhub/internal/cache"
	"classhub/internal/config"
	"classhub/internal/database"
	"classhub/internal/middleware"
	"classhub/internal/models"
	"classhub/internal/pages"
	"classhub/internal/repository"
	"classhub/internal/service"
	"classhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "classhub-api"
	tokenAudience = "classhub-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	app    *fiber.App
	prom   *fiberprometheus.FiberPrometheus

	userRepo      repository.UserRepository
	topicRepo     repository.TopicRepository
	classroomRepo repository.ClassroomRepository
	messageRepo   repository.MessageRepository
	conspectRepo  repository.ConspectRepository

	uploads *storage.FileStore
	avatars *storage.FileStore
	pages   *pages.Reader

	classroomService *service.ClassroomService
	messageService   *service.MessageService
	conspectService  *service.ConspectService
	userService      *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	uploads, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload store: %w", err)
	}
	avatars, err := storage.NewFileStore(cfg.AvatarDir)
	if err != nil {
		return nil, fmt.Errorf("avatar store: %w", err)
	}
	pageReader, err := pages.NewReader(cfg.PagesDir)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:        cfg,
		db:            db,
		redis:         redisClient,
		prom:          fiberprometheus.New("classhub-api"),
		userRepo:      repository.NewUserRepository(db),
		topicRepo:     repository.NewTopicRepository(db),
		classroomRepo: repository.NewClassroomRepository(db),
		messageRepo:   repository.NewMessageRepository(db),
		conspectRepo:  repository.NewConspectRepository(db),
		uploads:       uploads,
		avatars:       avatars,
		pages:         pageReader,
	}

	server.classroomService = service.NewClassroomService(
		server.classroomRepo, server.topicRepo, server.messageRepo, server.conspectRepo, uploads)
	server.messageService = service.NewMessageService(
		server.messageRepo, server.classroomRepo, server.userRepo)
	server.conspectService = service.NewConspectService(
		server.conspectRepo, server.classroomRepo, server.userRepo, uploads)
	server.userService = service.NewUserService(
		server.userRepo, server.classroomRepo, server.messageRepo,
		server.conspectRepo, uploads)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Prometheus metrics
	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on
	// error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public browse/read routes
	api.Get("/classrooms", s.BrowseClassrooms)
	api.Get("/classrooms/:id", s.GetClassroom)
	api.Get("/activities", s.GetActivities)
	// Topics stay open to anonymous read and write
	api.Get("/topics", s.GetTopics)
	api.Post("/topics", s.CreateTopic)
	api.Get("/topics/:id", s.GetTopic)
	api.Put("/topics/:id", s.UpdateTopic)
	api.Delete("/topics/:id", s.DeleteTopic)
	api.Get("/pages/:slug", s.GetPage)

	// Live in-process metrics dashboard
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "ClassHub Metrics"}))

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// User routes. /users/me must be registered before the public
	// /users/:username route so "me" is never treated as a username.
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Delete("/me", s.DeleteMyAccount)
	users.Post("/me/avatar", s.UploadAvatar)
	api.Get("/users", s.AuthRequired(), s.GetAllUsers)
	api.Get("/users/:username", s.GetUserProfile)

	// Classroom routes
	classrooms := protected.Group("/classrooms")
	classrooms.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_classroom"), s.CreateClassroom)
	classrooms.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "post_message"), s.PostMessage)
	classrooms.Post("/:id/conspects", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "upload_conspect"), s.UploadConspect)
	classrooms.Put("/:id", s.UpdateClassroom)
	classrooms.Delete("/:id", s.DeleteClassroom)

	// Message routes
	protected.Delete("/messages/:id", s.DeleteMessage)

	// Conspect routes. Download is a two-step flow: GET returns either
	// the file (author) or a payment prompt, POST /confirm settles the
	// transfer and returns the file.
	conspects := protected.Group("/conspects")
	conspects.Get("/:id/download", s.DownloadConspect)
	conspects.Post("/:id/download/confirm", s.ConfirmConspectDownload)
	conspects.Delete("/:id", s.DeleteConspect)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional: caching, rate limiting, and token revocation
		// all fail open without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if cache.IsTokenDenied(c.Context(), jti) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
			c.Locals("jti", jti)
		}
		if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
			c.Locals("tokenExp", exp.Time)
		}

		c.Locals("userID", uint(userID))
		return c.Next()
	}
}

// optionalUserID attempts to extract userID from the Authorization header
// but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "ClassHub API",
		BodyLimit: 32 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Println("error closing redis:", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
