package services

import (
	"context"

	"github.com/yigit/campuslink/internal/app/models"
)

// Services defined in this package:
// - ConversationService: direct/group conversations and their unread counters
// - MessageService: sending, listing, reading and deleting chat messages
// - NotificationService: per-recipient notifications and course announcements
// - AssignmentService: assignment lifecycle, submissions and grading

// EventPublisher pushes server events to socket rooms. Delivery is best-effort.
type EventPublisher interface {
	EmitToUser(ctx context.Context, userID int64, event string, payload interface{}) error
	EmitToConversation(ctx context.Context, conversationID int64, event string, payload interface{}) error
	EvictFromConversation(ctx context.Context, userID, conversationID int64) error
}

// Actor identifies the caller of a service operation
type Actor struct {
	UserID int64
	Role   models.RoleType
}
