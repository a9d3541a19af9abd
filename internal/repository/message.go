package repository

import (
	"context"
	"errors"
	"strings"

	"classhub/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for message data operations.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	ListByClassroom(ctx context.Context, classroomID uint) ([]models.Message, error)
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Message, error)
	// List returns all messages, most recent first (the activity feed).
	List(ctx context.Context, limit, offset int) ([]models.Message, error)
	// ListRecentByTopic returns the newest messages whose classroom's topic
	// name contains q (case-insensitive).
	ListRecentByTopic(ctx context.Context, q string, limit int) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Preload("Author").First(&message, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Message{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) ListByClassroom(ctx context.Context, classroomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("classroom_id = ?", classroomID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	tx := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) List(ctx context.Context, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) ListRecentByTopic(ctx context.Context, q string, limit int) ([]models.Message, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Joins("JOIN classrooms ON classrooms.id = messages.classroom_id").
		Joins("LEFT JOIN topics ON topics.id = classrooms.topic_id").
		Where("LOWER(topics.name) LIKE ?", pattern).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
