package repositories

import (
	"context"

	"github.com/yigit/campuslink/internal/app/models"
)

// UserStore reads the users reference table
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// MissingIDs returns the ids that do not belong to an active user
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// CourseStore reads courses and enrollments
type CourseStore interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	ActiveStudentIDs(ctx context.Context, courseID int64) ([]int64, error)
	IsStudentEnrolled(ctx context.Context, courseID, studentID int64) (bool, error)
}

// ConversationStore persists conversations and their unread counters
type ConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)
	FindDirect(ctx context.Context, userA, userB int64) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error)
	UpdateTitle(ctx context.Context, id int64, title string) (*models.Conversation, error)
	AddParticipants(ctx context.Context, id int64, userIDs []int64) (*models.Conversation, error)
	RemoveParticipant(ctx context.Context, id int64, userID int64) (*models.Conversation, error)
	TotalUnread(ctx context.Context, userID int64) (int64, error)
}

// MessageStore persists messages; writes keep the conversation counters in step
type MessageStore interface {
	// CreateWithCounters inserts msg and bumps every other participant's counter in
	// one transaction, returning the conversation as it stands after the write.
	CreateWithCounters(ctx context.Context, msg *models.Message) (*models.Conversation, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID int64, beforeID *int64, limit int) ([]*models.Message, error)
	// MarkConversationRead resets readerID's counter and marks messages from others as read
	MarkConversationRead(ctx context.Context, conversationID, readerID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationFilter narrows a notification listing
type NotificationFilter struct {
	UnreadOnly bool
	Type       models.NotificationType
	Offset     uint64
	Limit      uint64
}

// NotificationStore persists per-recipient notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, recipientID int64, filter NotificationFilter) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id, recipientID int64) error
}

// AssignmentFilter narrows an assignment listing
type AssignmentFilter struct {
	CourseID *int64
	Status   *models.AssignmentStatus
	// EnrolledStudentID restricts results to courses the student is enrolled in
	EnrolledStudentID *int64
}

// AssignmentStore persists assignments and submissions
type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	GetByID(ctx context.Context, id int64) (*models.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]*models.Assignment, error)
	Update(ctx context.Context, a *models.Assignment) error
	UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error
	Delete(ctx context.Context, id int64) error

	UpsertSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, assignmentID, studentID int64) (*models.Submission, error)
	ListSubmissions(ctx context.Context, assignmentID int64) ([]*models.Submission, error)
	GradeSubmission(ctx context.Context, s *models.Submission) error
}
