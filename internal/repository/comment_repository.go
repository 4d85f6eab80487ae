package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
)

// CommentRepository provides persistence access for request comments.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs a repository using the provided gorm DB.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create persists the comment instance.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(comment).Error)
}

// ListByRequest returns the comments of a request, oldest first. When
// includeInternal is false, comments marked internal are filtered out.
func (r *CommentRepository) ListByRequest(ctx context.Context, requestID uint, includeInternal bool) ([]models.Comment, error) {
	q := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Preload("User").
		Order("created_at asc, id asc")
	if !includeInternal {
		q = q.Where("is_internal = ?", false)
	}
	var comments []models.Comment
	err := q.Find(&comments).Error
	return comments, errors.WithStack(err)
}
