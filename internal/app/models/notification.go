package models

import "time"

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationMessage             NotificationType = "MESSAGE"
	NotificationAssignmentPublished NotificationType = "ASSIGNMENT_PUBLISHED"
	NotificationAssignmentSubmitted NotificationType = "ASSIGNMENT_SUBMITTED"
	NotificationAssignmentGraded    NotificationType = "ASSIGNMENT_GRADED"
	NotificationAnnouncement        NotificationType = "ANNOUNCEMENT"
	NotificationSystem              NotificationType = "SYSTEM"
)

// IsValid reports whether t is a known notification type
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationMessage, NotificationAssignmentPublished, NotificationAssignmentSubmitted,
		NotificationAssignmentGraded, NotificationAnnouncement, NotificationSystem:
		return true
	}
	return false
}

// Notification is a persisted per-recipient notice
type Notification struct {
	ID            int64            `json:"id" db:"id"`
	RecipientID   int64            `json:"recipientId" db:"recipient_id"`
	SenderID      *int64           `json:"senderId,omitempty" db:"sender_id"`
	Type          NotificationType `json:"type" db:"type"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	ReferenceType *string          `json:"referenceType,omitempty" db:"reference_type"`
	ReferenceID   *int64           `json:"referenceId,omitempty" db:"reference_id"`
	IsRead        bool             `json:"isRead" db:"is_read"`
	ReadAt        *time.Time       `json:"readAt,omitempty" db:"read_at"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}
