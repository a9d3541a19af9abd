package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"classhub/internal/models"
	"classhub/internal/repository"
	"classhub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classroomRepoStub is a stub for repository.ClassroomRepository.
type classroomRepoStub struct {
	createFn     func(context.Context, *models.Classroom) error
	getByIDFn    func(context.Context, uint) (*models.Classroom, error)
	updateFn     func(context.Context, *models.Classroom) error
	deleteFn     func(context.Context, uint) error
	searchFn     func(context.Context, string, int, int) ([]models.Classroom, int64, error)
	listByHostFn func(context.Context, uint, int, int) ([]models.Classroom, int64, error)
	addStudentFn func(context.Context, *models.Classroom, *models.User) error
}

func (s *classroomRepoStub) Create(ctx context.Context, classroom *models.Classroom) error {
	return s.createFn(ctx, classroom)
}
func (s *classroomRepoStub) GetByID(ctx context.Context, id uint) (*models.Classroom, error) {
	return s.getByIDFn(ctx, id)
}
func (s *classroomRepoStub) Update(ctx context.Context, classroom *models.Classroom) error {
	return s.updateFn(ctx, classroom)
}
func (s *classroomRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *classroomRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.Classroom, int64, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *classroomRepoStub) ListByHost(ctx context.Context, hostID uint, limit, offset int) ([]models.Classroom, int64, error) {
	return s.listByHostFn(ctx, hostID, limit, offset)
}
func (s *classroomRepoStub) AddStudent(ctx context.Context, classroom *models.Classroom, user *models.User) error {
	return s.addStudentFn(ctx, classroom, user)
}

var _ repository.ClassroomRepository = (*classroomRepoStub)(nil)

func noopClassroomRepo() *classroomRepoStub {
	host := uint(1)
	return &classroomRepoStub{
		createFn: func(_ context.Context, _ *models.Classroom) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Classroom, error) {
			return &models.Classroom{ID: id, HostID: &host, Name: "Algebra"}, nil
		},
		updateFn: func(_ context.Context, _ *models.Classroom) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		searchFn: func(_ context.Context, _ string, _, _ int) ([]models.Classroom, int64, error) {
			return nil, 0, nil
		},
		listByHostFn: func(_ context.Context, _ uint, _, _ int) ([]models.Classroom, int64, error) {
			return nil, 0, nil
		},
		addStudentFn: func(_ context.Context, _ *models.Classroom, _ *models.User) error { return nil },
	}
}

// topicRepoStub is a stub for repository.TopicRepository.
type topicRepoStub struct {
	getOrCreateFn func(context.Context, string) (*models.Topic, error)
	getByIDFn     func(context.Context, uint) (*models.Topic, error)
	updateFn      func(context.Context, *models.Topic) error
	deleteFn      func(context.Context, uint) error
	listFn        func(context.Context, int) ([]models.Topic, error)
	searchFn      func(context.Context, string) ([]models.Topic, error)
}

func (s *topicRepoStub) GetOrCreate(ctx context.Context, name string) (*models.Topic, error) {
	return s.getOrCreateFn(ctx, name)
}
func (s *topicRepoStub) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	return s.getByIDFn(ctx, id)
}
func (s *topicRepoStub) Update(ctx context.Context, topic *models.Topic) error {
	return s.updateFn(ctx, topic)
}
func (s *topicRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *topicRepoStub) List(ctx context.Context, limit int) ([]models.Topic, error) {
	return s.listFn(ctx, limit)
}
func (s *topicRepoStub) Search(ctx context.Context, q string) ([]models.Topic, error) {
	return s.searchFn(ctx, q)
}

var _ repository.TopicRepository = (*topicRepoStub)(nil)

func noopTopicRepo() *topicRepoStub {
	return &topicRepoStub{
		getOrCreateFn: func(_ context.Context, name string) (*models.Topic, error) {
			return &models.Topic{ID: 7, Name: name}, nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Topic, error) {
			return &models.Topic{ID: id, Name: "Algebra"}, nil
		},
		updateFn: func(_ context.Context, _ *models.Topic) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		listFn:   func(_ context.Context, _ int) ([]models.Topic, error) { return nil, nil },
		searchFn: func(_ context.Context, _ string) ([]models.Topic, error) { return nil, nil },
	}
}

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn            func(context.Context, *models.Message) error
	getByIDFn           func(context.Context, uint) (*models.Message, error)
	deleteFn            func(context.Context, uint) error
	listByClassroomFn   func(context.Context, uint) ([]models.Message, error)
	listByAuthorFn      func(context.Context, uint, int) ([]models.Message, error)
	listFn              func(context.Context, int, int) ([]models.Message, error)
	listRecentByTopicFn func(context.Context, string, int) ([]models.Message, error)
}

func (s *messageRepoStub) Create(ctx context.Context, message *models.Message) error {
	return s.createFn(ctx, message)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) ListByClassroom(ctx context.Context, classroomID uint) ([]models.Message, error) {
	return s.listByClassroomFn(ctx, classroomID)
}
func (s *messageRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Message, error) {
	return s.listByAuthorFn(ctx, authorID, limit)
}
func (s *messageRepoStub) List(ctx context.Context, limit, offset int) ([]models.Message, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *messageRepoStub) ListRecentByTopic(ctx context.Context, q string, limit int) ([]models.Message, error) {
	return s.listRecentByTopicFn(ctx, q, limit)
}

var _ repository.MessageRepository = (*messageRepoStub)(nil)

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn: func(_ context.Context, _ *models.Message) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Message, error) {
			return &models.Message{ID: id, AuthorID: 1, ClassroomID: 1, Body: "hello"}, nil
		},
		deleteFn:          func(_ context.Context, _ uint) error { return nil },
		listByClassroomFn: func(_ context.Context, _ uint) ([]models.Message, error) { return nil, nil },
		listByAuthorFn:    func(_ context.Context, _ uint, _ int) ([]models.Message, error) { return nil, nil },
		listFn:            func(_ context.Context, _, _ int) ([]models.Message, error) { return nil, nil },
		listRecentByTopicFn: func(_ context.Context, _ string, _ int) ([]models.Message, error) {
			return nil, nil
		},
	}
}

// conspectRepoStub is a stub for repository.ConspectRepository.
type conspectRepoStub struct {
	createFn          func(context.Context, *models.Conspect) error
	getByIDFn         func(context.Context, uint) (*models.Conspect, error)
	deleteFn          func(context.Context, uint) error
	listByClassroomFn func(context.Context, uint) ([]models.Conspect, error)
	listByAuthorFn    func(context.Context, uint) ([]models.Conspect, error)
}

func (s *conspectRepoStub) Create(ctx context.Context, conspect *models.Conspect) error {
	return s.createFn(ctx, conspect)
}
func (s *conspectRepoStub) GetByID(ctx context.Context, id uint) (*models.Conspect, error) {
	return s.getByIDFn(ctx, id)
}
func (s *conspectRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *conspectRepoStub) ListByClassroom(ctx context.Context, classroomID uint) ([]models.Conspect, error) {
	return s.listByClassroomFn(ctx, classroomID)
}
func (s *conspectRepoStub) ListByAuthor(ctx context.Context, authorID uint) ([]models.Conspect, error) {
	return s.listByAuthorFn(ctx, authorID)
}

var _ repository.ConspectRepository = (*conspectRepoStub)(nil)

func noopConspectRepo() *conspectRepoStub {
	return &conspectRepoStub{
		createFn: func(_ context.Context, _ *models.Conspect) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Conspect, error) {
			return &models.Conspect{ID: id, AuthorID: 1, ClassroomID: 1, File: "notes.pdf"}, nil
		},
		deleteFn:          func(_ context.Context, _ uint) error { return nil },
		listByClassroomFn: func(_ context.Context, _ uint) ([]models.Conspect, error) { return nil, nil },
		listByAuthorFn:    func(_ context.Context, _ uint) ([]models.Conspect, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByEmailFn      func(context.Context, string) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
	deleteFn          func(context.Context, uint) error
	listFn            func(context.Context, int, int) ([]models.User, error)
	transferBalanceFn func(context.Context, uint, uint, int) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) TransferBalance(ctx context.Context, fromID, toID uint, amount int) error {
	return s.transferBalanceFn(ctx, fromID, toID, amount)
}

var _ repository.UserRepository = (*userRepoStub)(nil)

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "alice", Email: "alice@example.com", Balance: models.DefaultBalance}, nil
		},
		getByEmailFn:      func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:          func(_ context.Context, _ *models.User) error { return nil },
		updateFn:          func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:          func(_ context.Context, _ uint) error { return nil },
		listFn:            func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		transferBalanceFn: func(_ context.Context, _, _ uint, _ int) error { return nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeForbidden, appErr.Code)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func newTestFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return files
}

func TestClassroomService_Create(t *testing.T) {
	t.Parallel()

	t.Run("empty name is invalid", func(t *testing.T) {
		t.Parallel()
		svc := NewClassroomService(noopClassroomRepo(), noopTopicRepo(), noopMessageRepo(), noopConspectRepo(), nil)
		_, err := svc.Create(context.Background(), CreateClassroomInput{HostID: 1, TopicName: "Math", Name: "  "})
		assertValidationError(t, err)
	})

	t.Run("resolves topic with get-or-create", func(t *testing.T) {
		t.Parallel()
		var askedTopic string
		topicRepo := noopTopicRepo()
		topicRepo.getOrCreateFn = func(_ context.Context, name string) (*models.Topic, error) {
			askedTopic = name
			return &models.Topic{ID: 3, Name: name}, nil
		}

		var created *models.Classroom
		classroomRepo := noopClassroomRepo()
		classroomRepo.createFn = func(_ context.Context, c *models.Classroom) error {
			c.ID = 11
			created = c
			return nil
		}

		svc := NewClassroomService(classroomRepo, topicRepo, noopMessageRepo(), noopConspectRepo(), nil)
		got, err := svc.Create(context.Background(), CreateClassroomInput{
			HostID:      5,
			TopicName:   "Linear Algebra",
			Name:        "Matrix clinic",
			Description: "office hours",
		})
		require.NoError(t, err)
		assert.Equal(t, "Linear Algebra", askedTopic)
		require.NotNil(t, created.TopicID)
		assert.Equal(t, uint(3), *created.TopicID)
		require.NotNil(t, created.HostID)
		assert.Equal(t, uint(5), *created.HostID)
		assert.Equal(t, uint(11), got.ID)
	})
}

func TestClassroomService_Update_HostOnly(t *testing.T) {
	t.Parallel()

	t.Run("non-host is forbidden", func(t *testing.T) {
		t.Parallel()
		host := uint(1)
		classroomRepo := noopClassroomRepo()
		classroomRepo.getByIDFn = func(_ context.Context, id uint) (*models.Classroom, error) {
			return &models.Classroom{ID: id, HostID: &host, Name: "Algebra"}, nil
		}
		svc := NewClassroomService(classroomRepo, noopTopicRepo(), noopMessageRepo(), noopConspectRepo(), nil)
		_, err := svc.Update(context.Background(), UpdateClassroomInput{
			UserID: 2, ClassroomID: 1, TopicName: "Math", Name: "Hijacked",
		})
		assertForbiddenError(t, err)
	})

	t.Run("host updates name and topic", func(t *testing.T) {
		t.Parallel()
		host := uint(1)
		stored := &models.Classroom{ID: 1, HostID: &host, Name: "Algebra"}
		classroomRepo := noopClassroomRepo()
		classroomRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Classroom, error) {
			return stored, nil
		}
		classroomRepo.updateFn = func(_ context.Context, c *models.Classroom) error {
			stored = c
			return nil
		}
		svc := NewClassroomService(classroomRepo, noopTopicRepo(), noopMessageRepo(), noopConspectRepo(), nil)
		got, err := svc.Update(context.Background(), UpdateClassroomInput{
			UserID: 1, ClassroomID: 1, TopicName: "Geometry", Name: "Shapes",
		})
		require.NoError(t, err)
		assert.Equal(t, "Shapes", got.Name)
		require.NotNil(t, got.TopicID)
		assert.Equal(t, uint(7), *got.TopicID)
	})
}

func TestClassroomService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("non-host is forbidden", func(t *testing.T) {
		t.Parallel()
		svc := NewClassroomService(noopClassroomRepo(), noopTopicRepo(), noopMessageRepo(), noopConspectRepo(), nil)
		err := svc.Delete(context.Background(), 99, 1)
		assertForbiddenError(t, err)
	})

	t.Run("host delete removes conspect files", func(t *testing.T) {
		t.Parallel()
		files := newTestFileStore(t)
		objectName, err := files.Save(strings.NewReader("conspect body"), "notes.pdf")
		require.NoError(t, err)
		require.True(t, files.Exists(objectName))

		conspectRepo := noopConspectRepo()
		conspectRepo.listByClassroomFn = func(_ context.Context, _ uint) ([]models.Conspect, error) {
			return []models.Conspect{{ID: 1, File: objectName}}, nil
		}

		svc := NewClassroomService(noopClassroomRepo(), noopTopicRepo(), noopMessageRepo(), conspectRepo, files)
		require.NoError(t, svc.Delete(context.Background(), 1, 1))
		assert.False(t, files.Exists(objectName))
	})
}

func TestClassroomService_Browse(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	var gotQuery string
	classroomRepo := noopClassroomRepo()
	classroomRepo.searchFn = func(_ context.Context, q string, limit, offset int) ([]models.Classroom, int64, error) {
		gotQuery, gotLimit, gotOffset = q, limit, offset
		return []models.Classroom{{ID: 1}, {ID: 2}, {ID: 3}}, 8, nil
	}
	topicRepo := noopTopicRepo()
	topicRepo.listFn = func(_ context.Context, limit int) ([]models.Topic, error) {
		assert.Equal(t, BrowseTopicCount, limit)
		return []models.Topic{{ID: 1, Name: "Math"}}, nil
	}
	messageRepo := noopMessageRepo()
	messageRepo.listRecentByTopicFn = func(_ context.Context, q string, limit int) ([]models.Message, error) {
		assert.Equal(t, "math", q)
		assert.Equal(t, BrowseMessageCount, limit)
		return []models.Message{{ID: 4}}, nil
	}

	svc := NewClassroomService(classroomRepo, topicRepo, messageRepo, noopConspectRepo(), nil)
	result, err := svc.Browse(context.Background(), "math", 2)
	require.NoError(t, err)

	assert.Equal(t, "math", gotQuery)
	assert.Equal(t, BrowsePageSize, gotLimit)
	assert.Equal(t, BrowsePageSize, gotOffset) // page 2 skips one page
	assert.Equal(t, int64(8), result.Total)
	assert.Equal(t, 2, result.Page)
	assert.Len(t, result.Classrooms, 3)
	assert.Len(t, result.Topics, 1)
	assert.Len(t, result.Messages, 1)

	t.Run("page below one is clamped", func(t *testing.T) {
		result, err := svc.Browse(context.Background(), "math", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 0, gotOffset)
	})
}
