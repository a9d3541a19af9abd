// Package service implements the business rules on top of the repository
// layer: ownership checks, the topic get-or-create flow, roster side
// effects, and the conspect unlock transfer.
package service

import (
	"context"
	"strings"

	"classhub/internal/models"
	"classhub/internal/repository"
	"classhub/internal/storage"
)

// BrowsePageSize is the classroom page size on the browse/search view.
const BrowsePageSize = 3

// BrowseTopicCount and BrowseMessageCount size the browse view sidebars.
const (
	BrowseTopicCount   = 5
	BrowseMessageCount = 5
)

type ClassroomService struct {
	classroomRepo repository.ClassroomRepository
	topicRepo     repository.TopicRepository
	messageRepo   repository.MessageRepository
	conspectRepo  repository.ConspectRepository
	files         *storage.FileStore
}

type CreateClassroomInput struct {
	HostID      uint
	TopicName   string
	Name        string
	Description string
}

type UpdateClassroomInput struct {
	UserID      uint
	ClassroomID uint
	TopicName   string
	Name        string
	Description string
}

// BrowseResult is the composed browse/search payload: one page of matching
// classrooms plus the sidebar data the landing view renders alongside it.
type BrowseResult struct {
	Classrooms []models.Classroom `json:"classrooms"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Topics     []models.Topic     `json:"topics"`
	Messages   []models.Message   `json:"messages"`
}

// ClassroomDetail is a classroom with its messages, conspects, and roster.
type ClassroomDetail struct {
	Classroom *models.Classroom `json:"classroom"`
	Messages  []models.Message  `json:"messages"`
	Conspects []models.Conspect `json:"conspects"`
}

func NewClassroomService(
	classroomRepo repository.ClassroomRepository,
	topicRepo repository.TopicRepository,
	messageRepo repository.MessageRepository,
	conspectRepo repository.ConspectRepository,
	files *storage.FileStore,
) *ClassroomService {
	return &ClassroomService{
		classroomRepo: classroomRepo,
		topicRepo:     topicRepo,
		messageRepo:   messageRepo,
		conspectRepo:  conspectRepo,
		files:         files,
	}
}

func (s *ClassroomService) Create(ctx context.Context, in CreateClassroomInput) (*models.Classroom, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Classroom name is required")
	}

	topic, err := s.topicRepo.GetOrCreate(ctx, in.TopicName)
	if err != nil {
		return nil, err
	}

	classroom := &models.Classroom{
		HostID:      &in.HostID,
		TopicID:     &topic.ID,
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.classroomRepo.Create(ctx, classroom); err != nil {
		return nil, err
	}
	return s.classroomRepo.GetByID(ctx, classroom.ID)
}

func (s *ClassroomService) Update(ctx context.Context, in UpdateClassroomInput) (*models.Classroom, error) {
	classroom, err := s.classroomRepo.GetByID(ctx, in.ClassroomID)
	if err != nil {
		return nil, err
	}
	if classroom.HostID == nil || *classroom.HostID != in.UserID {
		return nil, models.NewForbiddenError("Only the host can update a classroom")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Classroom name is required")
	}

	// The topic is re-resolved with the same get-or-create rule as create.
	topic, err := s.topicRepo.GetOrCreate(ctx, in.TopicName)
	if err != nil {
		return nil, err
	}

	classroom.Name = in.Name
	classroom.Description = in.Description
	classroom.TopicID = &topic.ID
	classroom.Topic = topic
	if err := s.classroomRepo.Update(ctx, classroom); err != nil {
		return nil, err
	}
	return s.classroomRepo.GetByID(ctx, classroom.ID)
}

// Delete removes a host's classroom. Dependent messages and conspect
// records cascade; conspect files are removed from disk best-effort once
// the rows are gone.
func (s *ClassroomService) Delete(ctx context.Context, userID, classroomID uint) error {
	classroom, err := s.classroomRepo.GetByID(ctx, classroomID)
	if err != nil {
		return err
	}
	if classroom.HostID == nil || *classroom.HostID != userID {
		return models.NewForbiddenError("Only the host can delete a classroom")
	}

	conspects, err := s.conspectRepo.ListByClassroom(ctx, classroomID)
	if err != nil {
		return err
	}

	if err := s.classroomRepo.Delete(ctx, classroomID); err != nil {
		return err
	}

	if s.files != nil {
		for _, c := range conspects {
			_ = s.files.Remove(c.File)
		}
	}
	return nil
}

func (s *ClassroomService) Detail(ctx context.Context, classroomID uint) (*ClassroomDetail, error) {
	classroom, err := s.classroomRepo.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	conspects, err := s.conspectRepo.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	return &ClassroomDetail{
		Classroom: classroom,
		Messages:  messages,
		Conspects: conspects,
	}, nil
}

// Browse composes the landing view: one page of classrooms matching q, the
// total match count, the first topics, and the latest messages whose
// classroom topic matches q.
func (s *ClassroomService) Browse(ctx context.Context, q string, page int) (*BrowseResult, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * BrowsePageSize

	classrooms, total, err := s.classroomRepo.Search(ctx, q, BrowsePageSize, offset)
	if err != nil {
		return nil, err
	}
	topics, err := s.topicRepo.List(ctx, BrowseTopicCount)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListRecentByTopic(ctx, q, BrowseMessageCount)
	if err != nil {
		return nil, err
	}

	return &BrowseResult{
		Classrooms: classrooms,
		Total:      total,
		Page:       page,
		PageSize:   BrowsePageSize,
		Topics:     topics,
		Messages:   messages,
	}, nil
}
