package models

import "time"

// AssignmentStatus is the lifecycle state of an assignment
type AssignmentStatus string

const (
	AssignmentDraft     AssignmentStatus = "DRAFT"
	AssignmentPublished AssignmentStatus = "PUBLISHED"
	AssignmentArchived  AssignmentStatus = "ARCHIVED"
)

// Bounds enforced on create and update
const (
	AssignmentTitleMaxLength = 200
	AssignmentMinPoints      = 1
	AssignmentMaxPoints      = 1000
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentDraft:     {AssignmentPublished, AssignmentArchived},
	AssignmentPublished: {AssignmentArchived},
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Assignment belongs to a course and collects submissions
type Assignment struct {
	ID          int64            `json:"id" db:"id"`
	CourseID    int64            `json:"courseId" db:"course_id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	DueDate     time.Time        `json:"dueDate" db:"due_date"`
	TotalPoints int              `json:"totalPoints" db:"total_points"`
	Status      AssignmentStatus `json:"status" db:"status"`
	CreatedBy   int64            `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}

// IsPastDue reports whether at is after the due date
func (a *Assignment) IsPastDue(at time.Time) bool {
	return at.After(a.DueDate)
}

// SubmissionStatus is the grading state of a submission
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionLate      SubmissionStatus = "LATE"
	SubmissionGraded    SubmissionStatus = "GRADED"
)

// Submission is one student's work for an assignment
type Submission struct {
	ID           int64            `json:"id" db:"id"`
	AssignmentID int64            `json:"assignmentId" db:"assignment_id"`
	StudentID    int64            `json:"studentId" db:"student_id"`
	Files        []Attachment     `json:"files" db:"files"`
	Comment      string           `json:"comment" db:"comment"`
	Status       SubmissionStatus `json:"status" db:"status"`
	Grade        *float64         `json:"grade,omitempty" db:"grade"`
	Feedback     *string          `json:"feedback,omitempty" db:"feedback"`
	SubmittedAt  time.Time        `json:"submittedAt" db:"submitted_at"`
	GradedAt     *time.Time       `json:"gradedAt,omitempty" db:"graded_at"`
	GradedBy     *int64           `json:"gradedBy,omitempty" db:"graded_by"`
}
