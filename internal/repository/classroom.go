package repository

import (
	"context"
	"errors"
	"strings"

	"classhub/internal/models"

	"gorm.io/gorm"
)

// ClassroomRepository defines the interface for classroom data operations.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id uint) (*models.Classroom, error)
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id uint) error
	// Search matches q as a case-insensitive substring of the host
	// username, topic name, classroom name, or description, newest
	// activity first. Returns the page plus the total match count.
	Search(ctx context.Context, q string, limit, offset int) ([]models.Classroom, int64, error)
	ListByHost(ctx context.Context, hostID uint, limit, offset int) ([]models.Classroom, int64, error)
	// AddStudent adds a user to the roster; adding an existing member is a no-op.
	AddStudent(ctx context.Context, classroom *models.Classroom, user *models.User) error
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository creates a new classroom repository
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	if err := r.db.WithContext(ctx).Create(classroom).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (*models.Classroom, error) {
	var classroom models.Classroom
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		Preload("Students").
		First(&classroom, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Classroom", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &classroom, nil
}

func (r *classroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	if err := r.db.WithContext(ctx).Save(classroom).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes a classroom together with its messages, conspects, and
// roster entries, in one transaction.
func (r *classroomRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("classroom_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("classroom_id = ?", id).Delete(&models.Conspect{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM classroom_students WHERE classroom_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Classroom{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *classroomRepository) Search(ctx context.Context, q string, limit, offset int) ([]models.Classroom, int64, error) {
	pattern := "%" + strings.ToLower(q) + "%"

	base := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Joins("LEFT JOIN users ON users.id = classrooms.host_id").
		Joins("LEFT JOIN topics ON topics.id = classrooms.topic_id").
		Where(
			"LOWER(users.username) LIKE ? OR LOWER(topics.name) LIKE ? OR LOWER(classrooms.name) LIKE ? OR LOWER(classrooms.description) LIKE ?",
			pattern, pattern, pattern, pattern,
		)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var classrooms []models.Classroom
	err := base.Session(&gorm.Session{}).
		Preload("Host").
		Preload("Topic").
		Order("classrooms.updated_at DESC, classrooms.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&classrooms).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return classrooms, total, nil
}

func (r *classroomRepository) ListByHost(ctx context.Context, hostID uint, limit, offset int) ([]models.Classroom, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Where("host_id = ?", hostID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var classrooms []models.Classroom
	err := base.Session(&gorm.Session{}).
		Preload("Topic").
		Order("updated_at DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&classrooms).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return classrooms, total, nil
}

func (r *classroomRepository) AddStudent(ctx context.Context, classroom *models.Classroom, user *models.User) error {
	// Association Append upserts the join row, so re-adding is a no-op.
	err := r.db.WithContext(ctx).
		Model(classroom).
		Omit("Students.*").
		Association("Students").
		Append(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
