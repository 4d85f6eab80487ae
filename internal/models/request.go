package models

import (
	"time"

	"github.com/google/uuid"
)

// Request is the ticket entity. A request whose status is the draft sentinel
// is invisible outside the creator's own drafts view.
type Request struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:255" json:"title"`
	Description    string     `json:"description"`
	CreatorID      uuid.UUID  `gorm:"type:uuid;index" json:"creatorId"`
	Creator        *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	AssignedUserID *uuid.UUID `gorm:"type:uuid;index" json:"assignedUserId"`
	AssignedUser   *User      `gorm:"foreignKey:AssignedUserID" json:"assignedUser,omitempty"`
	StatusID       uint       `gorm:"index" json:"statusId"`
	Status         *Status    `json:"status,omitempty"`
	PriorityID     uint       `json:"priorityId"`
	Priority       *Priority  `json:"priority,omitempty"`
	WorkflowID     *uint      `json:"workflowId"`
	Workflow       *Workflow  `json:"workflow,omitempty"`
	IsApproved     bool       `json:"isApproved"`
	AttachmentName string     `gorm:"size:255" json:"attachmentName"`
	AttachmentPath string     `gorm:"size:512" json:"attachmentPath"`
	FormData       string     `json:"formData"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// RequestStepHistory is an append-only audit record of a status change.
// Rows are never mutated or deleted.
type RequestStepHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID uint      `gorm:"index" json:"requestId"`
	StatusID  uint      `json:"statusId"`
	Status    *Status   `json:"status,omitempty"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestApproval is an append-only approval record.
type RequestApproval struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  uint      `gorm:"index" json:"requestId"`
	ApproverID uuid.UUID `gorm:"type:uuid" json:"approverId"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Comment is a discussion entry on a request. Internal comments are hidden
// from the request creator unless they are the assignee or an admin.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  uint      `gorm:"index" json:"requestId"`
	UserID     uuid.UUID `gorm:"type:uuid" json:"userId"`
	User       *User     `json:"user,omitempty"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}
