package server

import (
	"strings"
	"time"

	"classhub/internal/cache"
	"classhub/internal/models"
	"classhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

const topicsCacheKey = "topics:all"

// BrowseClassrooms handles GET /api/classrooms?q=&page=
// It returns a page of classrooms matching q across name, description,
// topic, and host username, plus the topic and recent-activity sidebars.
func (s *Server) BrowseClassrooms(c *fiber.Ctx) error {
	q := c.Query("q")
	page := c.QueryInt("page", 1)

	result, err := s.classroomService.Browse(c.Context(), q, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetClassroom handles GET /api/classrooms/:id
func (s *Server) GetClassroom(c *fiber.Ctx) error {
	classroomID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	detail, err := s.classroomService.Detail(c.Context(), classroomID)
	if err != nil {
		return respondError(c, err)
	}

	// For authenticated viewers, report whether they are on the roster.
	isMember := false
	if userID, ok := s.optionalUserID(c); ok {
		for _, student := range detail.Classroom.Students {
			if student.ID == userID {
				isMember = true
				break
			}
		}
	}

	return c.JSON(fiber.Map{
		"classroom": detail.Classroom,
		"messages":  detail.Messages,
		"conspects": detail.Conspects,
		"is_member": isMember,
	})
}

// CreateClassroom handles POST /api/classrooms
func (s *Server) CreateClassroom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Topic       string `json:"topic"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	classroom, err := s.classroomService.Create(c.Context(), service.CreateClassroomInput{
		HostID:      userID,
		TopicName:   req.Topic,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	// A new topic may have been created.
	cache.Invalidate(c.Context(), topicsCacheKey)

	return c.Status(fiber.StatusCreated).JSON(classroom)
}

// UpdateClassroom handles PUT /api/classrooms/:id (host only)
func (s *Server) UpdateClassroom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	classroomID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Topic       string `json:"topic"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	classroom, err := s.classroomService.Update(c.Context(), service.UpdateClassroomInput{
		UserID:      userID,
		ClassroomID: classroomID,
		TopicName:   req.Topic,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.Context(), topicsCacheKey)

	return c.JSON(classroom)
}

// DeleteClassroom handles DELETE /api/classrooms/:id (host only)
func (s *Server) DeleteClassroom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	classroomID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.classroomService.Delete(c.Context(), userID, classroomID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Classroom deleted",
	})
}

// GetTopics handles GET /api/topics?q=
// The unfiltered list is cached; searches always hit the database.
func (s *Server) GetTopics(c *fiber.Ctx) error {
	q := c.Query("q")

	var topics []models.Topic
	if q != "" {
		found, err := s.topicRepo.Search(c.Context(), q)
		if err != nil {
			return respondError(c, err)
		}
		topics = found
		return c.JSON(topics)
	}

	err := cache.CacheAside(c.Context(), topicsCacheKey, &topics, 5*time.Minute, func() error {
		all, fetchErr := s.topicRepo.List(c.Context(), 0)
		if fetchErr != nil {
			return fetchErr
		}
		topics = all
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topics)
}

// CreateTopic handles POST /api/topics. Topics are get-or-create on the
// exact name, so posting an existing name returns the existing row.
func (s *Server) CreateTopic(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Topic name is required"))
	}

	topic, err := s.topicRepo.GetOrCreate(c.Context(), name)
	if err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.Context(), topicsCacheKey)
	return c.Status(fiber.StatusCreated).JSON(topic)
}

// GetTopic handles GET /api/topics/:id
func (s *Server) GetTopic(c *fiber.Ctx) error {
	topicID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	topic, err := s.topicRepo.GetByID(c.Context(), topicID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topic)
}

// UpdateTopic handles PUT /api/topics/:id
func (s *Server) UpdateTopic(c *fiber.Ctx) error {
	topicID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Name string `json:"name"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Topic name is required"))
	}

	topic, err := s.topicRepo.GetByID(c.Context(), topicID)
	if err != nil {
		return respondError(c, err)
	}
	topic.Name = name
	if err := s.topicRepo.Update(c.Context(), topic); err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.Context(), topicsCacheKey)
	return c.JSON(topic)
}

// DeleteTopic handles DELETE /api/topics/:id. Classrooms tagged with the
// topic survive untagged.
func (s *Server) DeleteTopic(c *fiber.Ctx) error {
	topicID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if _, err := s.topicRepo.GetByID(c.Context(), topicID); err != nil {
		return respondError(c, err)
	}
	if err := s.topicRepo.Delete(c.Context(), topicID); err != nil {
		return respondError(c, err)
	}

	cache.Invalidate(c.Context(), topicsCacheKey)
	return c.JSON(fiber.Map{
		"message": "Topic deleted",
	})
}

// GetPage handles GET /api/pages/:slug for the static informational pages.
func (s *Server) GetPage(c *fiber.Ctx) error {
	slug := c.Params("slug")

	content, err := s.pages.Read(slug)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"slug":    slug,
		"content": content,
	})
}
