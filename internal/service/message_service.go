package service

import (
	"context"
	"strings"

	"classhub/internal/models"
	"classhub/internal/observability"
	"classhub/internal/repository"
)

const maxMessageLen = 10000

type MessageService struct {
	messageRepo   repository.MessageRepository
	classroomRepo repository.ClassroomRepository
	userRepo      repository.UserRepository
}

type PostMessageInput struct {
	AuthorID    uint
	ClassroomID uint
	Body        string
}

type DeleteMessageInput struct {
	UserID    uint
	MessageID uint
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	classroomRepo repository.ClassroomRepository,
	userRepo repository.UserRepository,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		classroomRepo: classroomRepo,
		userRepo:      userRepo,
	}
}

// Post creates a message and, as a side effect, adds the author to the
// classroom's roster. Re-posting as an existing member is a no-op on the
// roster.
func (s *MessageService) Post(ctx context.Context, in PostMessageInput) (*models.Message, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, models.NewValidationError("Message body is required")
	}
	if len(in.Body) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 10000 characters)")
	}

	classroom, err := s.classroomRepo.GetByID(ctx, in.ClassroomID)
	if err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		AuthorID:    in.AuthorID,
		ClassroomID: in.ClassroomID,
		Body:        in.Body,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := s.classroomRepo.AddStudent(ctx, classroom, author); err != nil {
		return nil, err
	}

	observability.MessagesPosted.Inc()
	return s.messageRepo.GetByID(ctx, message.ID)
}

// Delete removes a message. Only the author may do this.
func (s *MessageService) Delete(ctx context.Context, in DeleteMessageInput) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	if message.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only delete your own messages")
	}
	if err := s.messageRepo.Delete(ctx, in.MessageID); err != nil {
		return nil, err
	}
	return message, nil
}

// Activities returns the site-wide message feed, most recent first.
func (s *MessageService) Activities(ctx context.Context, limit, offset int) ([]models.Message, error) {
	return s.messageRepo.List(ctx, limit, offset)
}
