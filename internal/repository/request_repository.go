package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/models"
)

// RequestRepository provides persistence access for Request entities and
// their append-only history and approval records.
//
// Every listing and counting method excludes drafts; only the explicit
// drafts methods, scoped to the owning creator, can see them.
type RequestRepository struct {
	db       *gorm.DB
	statuses *models.StatusSet
}

// NewRequestRepository constructs a repository using the provided gorm DB.
func NewRequestRepository(db *gorm.DB, statuses *models.StatusSet) *RequestRepository {
	return &RequestRepository{db: db, statuses: statuses}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx, statuses: r.statuses}
}

// Create persists the request instance.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(req).Error)
}

// Update persists the modified request.
func (r *RequestRepository) Update(ctx context.Context, req *models.Request) error {
	return errors.WithStack(r.db.WithContext(ctx).Save(req).Error)
}

// FindByID returns the request by id with its lookups preloaded.
func (r *RequestRepository) FindByID(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Priority").
		Preload("Creator").
		Preload("AssignedUser").
		Preload("Workflow.Steps").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &req, nil
}

// Delete removes a request. Admin-only at the route layer.
func (r *RequestRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Request{}, id)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(gorm.ErrRecordNotFound)
	}
	return nil
}

// visible restricts a query to non-draft requests the actor may see: all of
// them for admins, otherwise those the actor created or is assigned to.
func (r *RequestRepository) visible(q *gorm.DB, actor auth.Context) *gorm.DB {
	q = q.Where("requests.status_id <> ?", r.statuses.ID(models.StatusDraft))
	if !actor.IsAdmin {
		q = q.Where("requests.creator_id = ? OR requests.assigned_user_id = ?", actor.UserID, actor.UserID)
	}
	return q
}

// ListVisible returns non-draft requests visible to the actor, newest first.
func (r *RequestRepository) ListVisible(ctx context.Context, actor auth.Context, limit int) ([]models.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	var requests []models.Request
	err := r.visible(r.db.WithContext(ctx), actor).
		Preload("Status").
		Preload("Priority").
		Order("requests.created_at desc").
		Limit(limit).
		Find(&requests).Error
	return requests, errors.WithStack(err)
}

// CountVisible counts non-draft requests visible to the actor.
func (r *RequestRepository) CountVisible(ctx context.Context, actor auth.Context) (int64, error) {
	var count int64
	err := r.visible(r.db.WithContext(ctx).Model(&models.Request{}), actor).Count(&count).Error
	return count, errors.WithStack(err)
}

// ListAssigned returns non-draft requests assigned to the user, most urgent
// priority first, then newest.
func (r *RequestRepository) ListAssigned(ctx context.Context, userID uuid.UUID, limit int) ([]models.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	var requests []models.Request
	err := r.db.WithContext(ctx).
		Joins("JOIN priorities ON priorities.id = requests.priority_id").
		Where("requests.assigned_user_id = ?", userID).
		Where("requests.status_id <> ?", r.statuses.ID(models.StatusDraft)).
		Preload("Status").
		Preload("Priority").
		Order("priorities.sort_order asc, requests.created_at desc").
		Limit(limit).
		Find(&requests).Error
	return requests, errors.WithStack(err)
}

// ListDrafts returns the creator's drafts, newest first.
func (r *RequestRepository) ListDrafts(ctx context.Context, userID uuid.UUID) ([]models.Request, error) {
	var requests []models.Request
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND status_id = ?", userID, r.statuses.ID(models.StatusDraft)).
		Preload("Priority").
		Order("created_at desc").
		Find(&requests).Error
	return requests, errors.WithStack(err)
}

// CountDrafts counts the creator's drafts.
func (r *RequestRepository) CountDrafts(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("creator_id = ? AND status_id = ?", userID, r.statuses.ID(models.StatusDraft)).
		Count(&count).Error
	return count, errors.WithStack(err)
}

// PublishDraft moves a draft to the "Mới" status. Ownership is enforced by
// the WHERE clause: a non-matching id/owner pair updates zero rows, which the
// caller must treat as not-found so nothing leaks about other users' drafts.
func (r *RequestRepository) PublishDraft(ctx context.Context, id uint, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND creator_id = ?", id, userID).
		Updates(map[string]interface{}{
			"status_id":  r.statuses.ID(models.StatusNew),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, errors.WithStack(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AppendHistory inserts an audit trail row.
func (r *RequestRepository) AppendHistory(ctx context.Context, entry *models.RequestStepHistory) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(entry).Error)
}

// AppendApproval inserts an approval record.
func (r *RequestRepository) AppendApproval(ctx context.Context, approval *models.RequestApproval) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(approval).Error)
}

// History returns the audit trail for a request, oldest first.
func (r *RequestRepository) History(ctx context.Context, requestID uint) ([]models.RequestStepHistory, error) {
	var entries []models.RequestStepHistory
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Preload("Status").
		Order("created_at asc, id asc").
		Find(&entries).Error
	return entries, errors.WithStack(err)
}

// Approvals returns the approval records for a request, oldest first.
func (r *RequestRepository) Approvals(ctx context.Context, requestID uint) ([]models.RequestApproval, error) {
	var approvals []models.RequestApproval
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at asc, id asc").
		Find(&approvals).Error
	return approvals, errors.WithStack(err)
}

// StatusCount is one per-status aggregate row.
type StatusCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DashboardStats aggregates non-draft requests for the dashboard.
type DashboardStats struct {
	Total     int64         `json:"total"`
	Pending   int64         `json:"pending"`
	Completed int64         `json:"completed"`
	ByStatus  []StatusCount `json:"byStatus"`
}

// Dashboard computes the dashboard aggregates. Drafts are excluded from every
// figure; pending vs completed splits on Status.IsFinal.
func (r *RequestRepository) Dashboard(ctx context.Context) (*DashboardStats, error) {
	draftID := r.statuses.ID(models.StatusDraft)
	stats := &DashboardStats{}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Request{}).
			Joins("JOIN statuses ON statuses.id = requests.status_id").
			Where("requests.status_id <> ?", draftID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	if err := base().Where("statuses.is_final = ?", true).Count(&stats.Completed).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	stats.Pending = stats.Total - stats.Completed

	err := base().
		Select("statuses.name AS name, count(*) AS count").
		Group("statuses.name").
		Order("count desc").
		Scan(&stats.ByStatus).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return stats, nil
}
