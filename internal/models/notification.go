package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is delivered by polling; there is no push channel.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	Title     string    `gorm:"size:255" json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is a direct message between two users, fetched by polling.
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uuid.UUID `gorm:"type:uuid;index" json:"senderId"`
	RecipientID uuid.UUID `gorm:"type:uuid;index" json:"recipientId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}
