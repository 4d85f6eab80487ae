package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/mq"
	"github.com/example/irequest/internal/repository"
)

// Service gates who can see, modify and transition a request, and performs
// the transitions together with their audit bookkeeping. Route handlers treat
// it as the policy oracle: no access rule lives anywhere else.
type Service struct {
	db       *gorm.DB
	requests *repository.RequestRepository
	statuses *models.StatusSet
	events   mq.Publisher
	log      *zap.Logger
	strict   bool
}

// NewService builds the life-cycle service. events may be nil; strict enables
// transition-table validation on UpdateStatus (legacy behavior is permissive).
func NewService(db *gorm.DB, requests *repository.RequestRepository, statuses *models.StatusSet, events mq.Publisher, log *zap.Logger, strict bool) *Service {
	return &Service{db: db, requests: requests, statuses: statuses, events: events, log: log, strict: strict}
}

// Statuses exposes the resolved sentinel status set.
func (s *Service) Statuses() *models.StatusSet { return s.statuses }

// Create persists a new request owned by the actor, as a draft or directly in
// the "Mới" status.
func (s *Service) Create(ctx context.Context, actor auth.Context, req *models.Request, draft bool) error {
	if strings.TrimSpace(req.Title) == "" {
		return errors.Wrap(ErrValidation, "title is required")
	}
	req.CreatorID = actor.UserID
	if draft {
		req.StatusID = s.statuses.ID(models.StatusDraft)
	} else {
		req.StatusID = s.statuses.ID(models.StatusNew)
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return err
	}
	if !draft {
		s.publish(ctx, "request.created", req, actor.UserID, "")
	}
	return nil
}

// Get returns a request the actor is allowed to see. Drafts are visible to
// their creator only; non-drafts to creator, assignee and admins.
func (s *Service) Get(ctx context.Context, actor auth.Context, id uint) (*models.Request, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.StatusID == s.statuses.ID(models.StatusDraft) {
		if req.CreatorID != actor.UserID {
			return nil, errors.WithStack(ErrNotFound)
		}
		return req, nil
	}
	if actor.IsAdmin || req.CreatorID == actor.UserID || s.isAssignee(req, actor.UserID) {
		return req, nil
	}
	return nil, errors.WithStack(ErrForbidden)
}

// CanProcess reports whether the user may approve, reject or start processing
// the request: true iff the user is exactly its creator or its assignee.
// Admins get no bypass here; they act through assignment.
func (s *Service) CanProcess(ctx context.Context, requestID uint, userID uuid.UUID) (bool, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	return s.canProcess(req, userID), nil
}

// UpdateStatus sets the request's status and appends a history row in one
// transaction. In strict mode the transition must be legal per the intended
// status machine; permissive mode accepts any existing status.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Context, requestID, statusID uint, note string) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !s.canProcess(req, actor.UserID) {
		return errors.WithStack(ErrForbidden)
	}

	var status models.Status
	if err := s.db.WithContext(ctx).First(&status, "id = ?", statusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrValidation, "status %d does not exist", statusID)
		}
		return errors.WithStack(err)
	}

	if s.strict {
		from, okFrom := s.statuses.Kind(req.StatusID)
		to, okTo := s.statuses.Kind(statusID)
		if okFrom && okTo && !transitionAllowed(from, to) {
			return errors.Wrapf(ErrValidation, "transition %q -> %q is not allowed", from.Name(), to.Name())
		}
	}

	if err := s.applyStatus(ctx, req.ID, statusID, note); err != nil {
		return err
	}
	req.StatusID = statusID
	s.publish(ctx, "request.status_changed", req, actor.UserID, note)
	return nil
}

// StartProcessing transitions the request into "Đang xử lý".
func (s *Service) StartProcessing(ctx context.Context, actor auth.Context, requestID uint) error {
	return s.UpdateStatus(ctx, actor, requestID, s.statuses.ID(models.StatusInProgress), "Request processing started")
}

// Approve marks the request approved and records the approval. Faithful to
// the legacy system, the history row references the "Hoàn thành" status but
// the request's own StatusID is left unchanged.
func (s *Service) Approve(ctx context.Context, actor auth.Context, requestID uint, note string) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !s.canProcess(req, actor.UserID) {
		return errors.WithStack(ErrForbidden)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.requests.WithTx(tx)
		if err := tx.Model(&models.Request{}).Where("id = ?", req.ID).
			Updates(map[string]interface{}{"is_approved": true, "updated_at": now}).Error; err != nil {
			return errors.WithStack(err)
		}
		if err := txRepo.AppendApproval(ctx, &models.RequestApproval{
			RequestID:  req.ID,
			ApproverID: actor.UserID,
			Note:       note,
		}); err != nil {
			return err
		}
		return txRepo.AppendHistory(ctx, &models.RequestStepHistory{
			RequestID: req.ID,
			StatusID:  s.statuses.ID(models.StatusCompleted),
			Note:      note,
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, "request.approved", req, actor.UserID, note)
	return nil
}

// Reject moves the request to "Từ chối". The note is mandatory and validated
// before any database work.
func (s *Service) Reject(ctx context.Context, actor auth.Context, requestID uint, note string) error {
	if strings.TrimSpace(note) == "" {
		return errors.Wrap(ErrValidation, "rejection note is required")
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !s.canProcess(req, actor.UserID) {
		return errors.WithStack(ErrForbidden)
	}

	rejectedID := s.statuses.ID(models.StatusRejected)
	if err := s.applyStatus(ctx, req.ID, rejectedID, "Rejected by user: "+note); err != nil {
		return err
	}
	req.StatusID = rejectedID
	s.publish(ctx, "request.rejected", req, actor.UserID, note)
	return nil
}

// PublishDraft moves the actor's draft into "Mới". A non-owning caller gets
// not-found, never a hint that the draft exists. No history row is written
// for this transition, matching the legacy system.
func (s *Service) PublishDraft(ctx context.Context, requestID uint, userID uuid.UUID) error {
	ok, err := s.requests.PublishDraft(ctx, requestID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithStack(ErrNotFound)
	}
	s.publish(ctx, "request.submitted", &models.Request{ID: requestID, StatusID: s.statuses.ID(models.StatusNew)}, userID, "")
	return nil
}

// Assign sets the request's assignee. Admin only.
func (s *Service) Assign(ctx context.Context, actor auth.Context, requestID uint, assigneeID uuid.UUID) error {
	if !actor.IsAdmin {
		return errors.WithStack(ErrForbidden)
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	err = errors.WithStack(s.db.WithContext(ctx).Model(&models.Request{}).Where("id = ?", req.ID).
		Updates(map[string]interface{}{"assigned_user_id": assigneeID, "updated_at": time.Now()}).Error)
	if err != nil {
		return err
	}
	req.AssignedUserID = &assigneeID
	s.publish(ctx, "request.assigned", req, actor.UserID, "")
	return nil
}

// applyStatus performs the paired status update and history insert. Both
// writes commit together or neither does.
func (s *Service) applyStatus(ctx context.Context, requestID, statusID uint, note string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Request{}).Where("id = ?", requestID).
			Updates(map[string]interface{}{"status_id": statusID, "updated_at": now}).Error; err != nil {
			return errors.WithStack(err)
		}
		return s.requests.WithTx(tx).AppendHistory(ctx, &models.RequestStepHistory{
			RequestID: requestID,
			StatusID:  statusID,
			Note:      note,
		})
	})
}

func (s *Service) getRequest(ctx context.Context, id uint) (*models.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "request %d", id)
		}
		return nil, err
	}
	return req, nil
}

func (s *Service) canProcess(req *models.Request, userID uuid.UUID) bool {
	return req.CreatorID == userID || s.isAssignee(req, userID)
}

func (s *Service) isAssignee(req *models.Request, userID uuid.UUID) bool {
	return req.AssignedUserID != nil && *req.AssignedUserID == userID
}

func (s *Service) publish(ctx context.Context, name string, req *models.Request, actorID uuid.UUID, note string) {
	if s.events == nil {
		return
	}
	event := mq.Event{
		Name:       name,
		RequestID:  req.ID,
		ActorID:    actorID.String(),
		Title:      req.Title,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	}
	if kind, ok := s.statuses.Kind(req.StatusID); ok {
		event.Status = kind.Name()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event failed", zap.String("event", name), zap.Uint("request_id", req.ID), zap.Error(err))
	}
}
