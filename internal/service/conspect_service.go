package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"classhub/internal/models"
	"classhub/internal/observability"
	"classhub/internal/repository"
	"classhub/internal/storage"
)

// AccessState names a step of the conspect access protocol:
// REQUEST -> {OWNER_BYPASS | AWAITING_CONFIRMATION -> CONFIRMED}.
// Cancelling is simply never confirming; no server state is held for it.
type AccessState string

const (
	AccessOwnerBypass AccessState = "OWNER_BYPASS"
	AccessAwaiting    AccessState = "AWAITING_CONFIRMATION"
	AccessConfirmed   AccessState = "CONFIRMED"
)

// AccessDecision is the outcome of a download request or confirmation.
// FilePath is set only when the file may be streamed to the requester.
type AccessDecision struct {
	State    AccessState      `json:"state"`
	Price    int              `json:"price"`
	Conspect *models.Conspect `json:"conspect"`
	FilePath string           `json:"-"`
}

type ConspectService struct {
	conspectRepo  repository.ConspectRepository
	classroomRepo repository.ClassroomRepository
	userRepo      repository.UserRepository
	files         *storage.FileStore
}

type UploadConspectInput struct {
	AuthorID    uint
	ClassroomID uint
	Description string
	File        io.Reader
	Filename    string
}

func NewConspectService(
	conspectRepo repository.ConspectRepository,
	classroomRepo repository.ClassroomRepository,
	userRepo repository.UserRepository,
	files *storage.FileStore,
) *ConspectService {
	return &ConspectService{
		conspectRepo:  conspectRepo,
		classroomRepo: classroomRepo,
		userRepo:      userRepo,
		files:         files,
	}
}

func (s *ConspectService) Upload(ctx context.Context, in UploadConspectInput) (*models.Conspect, error) {
	if in.File == nil || strings.TrimSpace(in.Filename) == "" {
		return nil, models.NewValidationError("A file is required")
	}
	if _, err := s.classroomRepo.GetByID(ctx, in.ClassroomID); err != nil {
		return nil, err
	}

	objectName, err := s.files.Save(in.File, in.Filename)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	conspect := &models.Conspect{
		AuthorID:     in.AuthorID,
		ClassroomID:  in.ClassroomID,
		Description:  in.Description,
		File:         objectName,
		OriginalName: in.Filename,
	}
	if err := s.conspectRepo.Create(ctx, conspect); err != nil {
		_ = s.files.Remove(objectName)
		return nil, err
	}

	observability.ConspectUploads.Inc()
	return s.conspectRepo.GetByID(ctx, conspect.ID)
}

// Request handles a read of the download endpoint. The author gets the
// file immediately; everyone else gets a confirmation prompt and no state
// changes.
func (s *ConspectService) Request(ctx context.Context, userID, conspectID uint) (*AccessDecision, error) {
	conspect, err := s.conspectRepo.GetByID(ctx, conspectID)
	if err != nil {
		return nil, err
	}

	if conspect.AuthorID == userID {
		return s.grant(conspect, AccessOwnerBypass)
	}
	return &AccessDecision{
		State:    AccessAwaiting,
		Price:    models.UnlockPrice,
		Conspect: conspect,
	}, nil
}

// Confirm handles the paid unlock: it atomically debits the requester and
// credits the author, then grants the file. The author confirming their
// own conspect never moves any balance.
func (s *ConspectService) Confirm(ctx context.Context, userID, conspectID uint) (*AccessDecision, error) {
	conspect, err := s.conspectRepo.GetByID(ctx, conspectID)
	if err != nil {
		return nil, err
	}

	if conspect.AuthorID == userID {
		return s.grant(conspect, AccessOwnerBypass)
	}

	if err := s.userRepo.TransferBalance(ctx, userID, conspect.AuthorID, models.UnlockPrice); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeInsufficientBalance {
			observability.BalanceTransfers.WithLabelValues(observability.TransferInsufficient).Inc()
		}
		return nil, err
	}

	observability.BalanceTransfers.WithLabelValues(observability.TransferConfirmed).Inc()
	return s.grant(conspect, AccessConfirmed)
}

// Delete removes a conspect record and its file. Only the author may do this.
func (s *ConspectService) Delete(ctx context.Context, userID, conspectID uint) (*models.Conspect, error) {
	conspect, err := s.conspectRepo.GetByID(ctx, conspectID)
	if err != nil {
		return nil, err
	}
	if conspect.AuthorID != userID {
		return nil, models.NewForbiddenError("You can only delete your own conspects")
	}
	if err := s.conspectRepo.Delete(ctx, conspectID); err != nil {
		return nil, err
	}
	_ = s.files.Remove(conspect.File)
	return conspect, nil
}

func (s *ConspectService) grant(conspect *models.Conspect, state AccessState) (*AccessDecision, error) {
	path, err := s.files.Path(conspect.File)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if state == AccessOwnerBypass {
		observability.BalanceTransfers.WithLabelValues(observability.TransferOwnerBypass).Inc()
	}
	return &AccessDecision{
		State:    state,
		Price:    models.UnlockPrice,
		Conspect: conspect,
		FilePath: path,
	}, nil
}
