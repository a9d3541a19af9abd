package repository

import (
	"context"
	"errors"

	"classhub/internal/models"

	"gorm.io/gorm"
)

// ConspectRepository defines the interface for conspect data operations.
type ConspectRepository interface {
	Create(ctx context.Context, conspect *models.Conspect) error
	GetByID(ctx context.Context, id uint) (*models.Conspect, error)
	Delete(ctx context.Context, id uint) error
	ListByClassroom(ctx context.Context, classroomID uint) ([]models.Conspect, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Conspect, error)
}

type conspectRepository struct {
	db *gorm.DB
}

// NewConspectRepository creates a new conspect repository
func NewConspectRepository(db *gorm.DB) ConspectRepository {
	return &conspectRepository{db: db}
}

func (r *conspectRepository) Create(ctx context.Context, conspect *models.Conspect) error {
	if err := r.db.WithContext(ctx).Create(conspect).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *conspectRepository) GetByID(ctx context.Context, id uint) (*models.Conspect, error) {
	var conspect models.Conspect
	err := r.db.WithContext(ctx).Preload("Author").First(&conspect, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conspect", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conspect, nil
}

func (r *conspectRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Conspect{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *conspectRepository) ListByClassroom(ctx context.Context, classroomID uint) ([]models.Conspect, error) {
	var conspects []models.Conspect
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("classroom_id = ?", classroomID).
		Order("created_at DESC, id DESC").
		Find(&conspects).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conspects, nil
}

func (r *conspectRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Conspect, error) {
	var conspects []models.Conspect
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Find(&conspects).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conspects, nil
}
