package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
)

// NotificationRepository provides persistence access for notifications.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository using the provided gorm DB.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists the notification instance.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(n).Error)
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, errors.WithStack(err)
}

// CountUnread counts the user's unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, errors.WithStack(err)
}

// MarkRead flags a notification as read. The WHERE clause scopes the update
// to the owning user; a non-matching pair updates zero rows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return false, errors.WithStack(res.Error)
	}
	return res.RowsAffected > 0, nil
}
