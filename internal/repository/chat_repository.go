package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
)

// ChatRepository provides persistence access for direct chat messages.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a repository using the provided gorm DB.
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create persists the message instance.
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(msg).Error)
}

// Conversation returns messages exchanged between two users, oldest first.
func (r *ChatRepository) Conversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&messages).Error
	return messages, errors.WithStack(err)
}
