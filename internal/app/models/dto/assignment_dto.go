package dto

import (
	"time"

	"github.com/yigit/campuslink/internal/app/models"
)

// CreateAssignmentRequest creates a DRAFT assignment
type CreateAssignmentRequest struct {
	CourseID    int64     `json:"courseId" binding:"required,gt=0"`
	Title       string    `json:"title" binding:"required,notblank,max=200"`
	Description string    `json:"description" binding:"max=10000"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
	TotalPoints int       `json:"totalPoints" binding:"required,min=1,max=1000"`
}

// UpdateAssignmentRequest edits an assignment; nil fields are left as is
type UpdateAssignmentRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=10000"`
	DueDate     *time.Time `json:"dueDate"`
	TotalPoints *int       `json:"totalPoints" binding:"omitempty,min=1,max=1000"`
}

// UpdateAssignmentStatusRequest moves an assignment through its lifecycle
type UpdateAssignmentStatusRequest struct {
	Status models.AssignmentStatus `json:"status" binding:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// ListAssignmentsQuery filters assignments
type ListAssignmentsQuery struct {
	CourseID int64  `form:"courseId" binding:"omitempty,gt=0"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// SubmitAssignmentRequest uploads (metadata of) a student's work
type SubmitAssignmentRequest struct {
	Files   []models.Attachment `json:"files" binding:"required,min=1,max=10,dive"`
	Comment string              `json:"comment" binding:"max=2000"`
}

// GradeSubmissionRequest grades a submission
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" binding:"required,gte=0"`
	Feedback string   `json:"feedback" binding:"max=5000"`
}
