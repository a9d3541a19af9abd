package server

import (
	"classhub/internal/models"
	"classhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostMessage handles POST /api/classrooms/:id/messages
// Posting also adds the author to the classroom roster.
func (s *Server) PostMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	classroomID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.messageService.Post(c.Context(), service.PostMessageInput{
		AuthorID:    userID,
		ClassroomID: classroomID,
		Body:        req.Body,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// DeleteMessage handles DELETE /api/messages/:id (author only)
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	messageID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if _, err := s.messageService.Delete(c.Context(), service.DeleteMessageInput{
		UserID:    userID,
		MessageID: messageID,
	}); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Message deleted",
	})
}

// GetActivities handles GET /api/activities, the site-wide recent
// message feed.
func (s *Server) GetActivities(c *fiber.Ctx) error {
	pagination := parsePagination(c, 20)

	messages, err := s.messageService.Activities(c.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}
