package service

import (
	"context"
	"strings"

	"classhub/internal/models"
	"classhub/internal/repository"
	"classhub/internal/storage"
	"classhub/internal/validation"
)

// ProfilePageSize is the classroom page size on a profile view.
const ProfilePageSize = 3

// profileMessageCap bounds the recent-message list on a profile view.
const profileMessageCap = 5

type UserService struct {
	userRepo      repository.UserRepository
	classroomRepo repository.ClassroomRepository
	messageRepo   repository.MessageRepository
	conspectRepo  repository.ConspectRepository
	files         *storage.FileStore
}

type UpdateProfileInput struct {
	UserID   uint
	Name     string
	Username string
	Email    string
	Bio      string
}

// ProfileResult is a user together with their hosted classrooms (one
// page) and most recent messages.
type ProfileResult struct {
	User       *models.User       `json:"user"`
	Classrooms []models.Classroom `json:"classrooms"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Messages   []models.Message   `json:"messages"`
}

func NewUserService(
	userRepo repository.UserRepository,
	classroomRepo repository.ClassroomRepository,
	messageRepo repository.MessageRepository,
	conspectRepo repository.ConspectRepository,
	files *storage.FileStore,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		classroomRepo: classroomRepo,
		messageRepo:   messageRepo,
		conspectRepo:  conspectRepo,
		files:         files,
	}
}

func (s *UserService) Profile(ctx context.Context, userID uint, page int) (*ProfileResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * ProfilePageSize

	classrooms, total, err := s.classroomRepo.ListByHost(ctx, userID, ProfilePageSize, offset)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByAuthor(ctx, userID, profileMessageCap)
	if err != nil {
		return nil, err
	}

	return &ProfileResult{
		User:       user,
		Classrooms: classrooms,
		Total:      total,
		Page:       page,
		PageSize:   ProfilePageSize,
		Messages:   messages,
	}, nil
}

// GetByUsername resolves a profile by exact username, case folded.
// Substring matching is not supported.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// UpdateProfile edits the caller's own account fields.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		username := strings.ToLower(in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != user.Username {
			existing, err := s.userRepo.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, models.NewValidationError("Username already taken")
			}
		}
		user.Username = username
	}

	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if in.Email != user.Email {
			existing, err := s.userRepo.GetByEmail(ctx, in.Email)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, models.NewValidationError("Email already registered")
			}
		}
		user.Email = in.Email
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	user.Bio = in.Bio

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the caller's account. Their messages, conspects,
// and roster entries go with it; hosted classrooms survive with a null
// host. Conspect files are removed from disk after the rows are gone.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	conspects, err := s.conspectRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	for _, conspect := range conspects {
		_ = s.files.Remove(conspect.File)
	}
	return nil
}

// SetAvatar records the stored avatar object name on the user.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, objectName string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Avatar = objectName
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
