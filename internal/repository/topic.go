package repository

import (
	"context"
	"errors"
	"strings"

	"classhub/internal/models"

	"gorm.io/gorm"
)

// TopicRepository defines the interface for topic data operations.
type TopicRepository interface {
	// GetOrCreate resolves a topic by exact name, creating it on first use.
	GetOrCreate(ctx context.Context, name string) (*models.Topic, error)
	GetByID(ctx context.Context, id uint) (*models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
	// Delete removes a topic; classrooms tagged with it survive untagged.
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit int) ([]models.Topic, error)
	// Search filters topics by case-insensitive name substring.
	Search(ctx context.Context, q string) ([]models.Topic, error)
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository creates a new topic repository
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) GetOrCreate(ctx context.Context, name string) (*models.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Topic name is required")
	}
	var topic models.Topic
	if err := r.db.WithContext(ctx).
		Where(models.Topic{Name: name}).
		FirstOrCreate(&topic).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &topic, nil
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Topic", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &topic, nil
}

func (r *topicRepository) Update(ctx context.Context, topic *models.Topic) error {
	if err := r.db.WithContext(ctx).Save(topic).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete untags the topic's classrooms before removing the row, so the
// behavior does not depend on the database enforcing FK actions.
func (r *topicRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Classroom{}).Where("topic_id = ?", id).Update("topic_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Topic{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *topicRepository) List(ctx context.Context, limit int) ([]models.Topic, error) {
	var topics []models.Topic
	tx := r.db.WithContext(ctx).Order("id")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) Search(ctx context.Context, q string) ([]models.Topic, error) {
	var topics []models.Topic
	pattern := "%" + strings.ToLower(q) + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("id").
		Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}
