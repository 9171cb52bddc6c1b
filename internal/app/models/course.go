package models

// Department is referenced by courses
type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Code string `json:"code" db:"code"`
}

// Course is read for authorization and fan-out lookups
type Course struct {
	ID           int64  `json:"id" db:"id"`
	DepartmentID int64  `json:"departmentId" db:"department_id"`
	Code         string `json:"code" db:"code"`
	Title        string `json:"title" db:"title"`
	InstructorID *int64 `json:"instructorId,omitempty" db:"instructor_id"`
}

// IsTaughtBy reports whether userID is the course instructor
func (c *Course) IsTaughtBy(userID int64) bool {
	return c.InstructorID != nil && *c.InstructorID == userID
}

// EnrollmentStatus is the state of a student's enrollment
type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
)
