// Package repository contains the data access layer. Each entity gets an
// interface over *gorm.DB with context-first methods and explicit finder
// methods per query.
package repository

import (
	"context"
	"errors"

	"classhub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	// TransferBalance atomically moves amount from one balance to another.
	// Fails with INSUFFICIENT_BALANCE when the source cannot cover it.
	TransferBalance(ctx context.Context, fromID, toID uint, amount int) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil for not found, not an error
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes a user. Hosted classrooms survive with a null host; the
// user's messages, conspects, and roster entries go with the account. Done
// explicitly in one transaction so the behavior does not depend on the
// database enforcing FK actions.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Classroom{}).Where("host_id = ?", id).Update("host_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Conspect{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM classroom_students WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) TransferBalance(ctx context.Context, fromID, toID uint, amount int) error {
	if amount <= 0 {
		return models.NewValidationError("Transfer amount must be positive")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional debit keeps the operation atomic without row locks:
		// zero rows affected means missing user or insufficient funds.
		debit := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", fromID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			var from models.User
			if err := tx.First(&from, fromID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("User", fromID)
				}
				return err
			}
			return models.NewInsufficientBalanceError(from.Balance, amount)
		}

		credit := tx.Model(&models.User{}).
			Where("id = ?", toID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return models.NewNotFoundError("User", toID)
		}
		return nil
	})
}
