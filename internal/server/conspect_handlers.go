package server

import (
	"classhub/internal/models"
	"classhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadConspect handles POST /api/classrooms/:id/conspects (multipart)
func (s *Server) UploadConspect(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	classroomID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A file is required"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer src.Close()

	conspect, err := s.conspectService.Upload(c.Context(), service.UploadConspectInput{
		AuthorID:    userID,
		ClassroomID: classroomID,
		Description: c.FormValue("description"),
		File:        src,
		Filename:    fileHeader.Filename,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conspect)
}

// DownloadConspect handles GET /api/conspects/:id/download
// The author gets the file directly. Anyone else gets a payment prompt;
// no balance moves until they confirm.
func (s *Server) DownloadConspect(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	conspectID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	decision, err := s.conspectService.Request(c.Context(), userID, conspectID)
	if err != nil {
		return respondError(c, err)
	}

	if decision.State == service.AccessAwaiting {
		return c.JSON(fiber.Map{
			"state":    decision.State,
			"price":    decision.Price,
			"conspect": decision.Conspect,
			"confirm":  c.Path() + "/confirm",
		})
	}

	return c.Download(decision.FilePath, decision.Conspect.OriginalName)
}

// ConfirmConspectDownload handles POST /api/conspects/:id/download/confirm
// This settles the balance transfer and streams the file.
func (s *Server) ConfirmConspectDownload(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	conspectID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	decision, err := s.conspectService.Confirm(c.Context(), userID, conspectID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Download(decision.FilePath, decision.Conspect.OriginalName)
}

// DeleteConspect handles DELETE /api/conspects/:id (author only)
func (s *Server) DeleteConspect(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	conspectID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if _, err := s.conspectService.Delete(c.Context(), userID, conspectID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Conspect deleted",
	})
}
