package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/dberrors"
	"github.com/yigit/campuslink/internal/pkg/logger"
)

const submissionUniqueConstraint = "assignment_submissions_assignment_student_key"

var assignmentColumns = []string{
	"id", "course_id", "title", "description", "due_date", "total_points", "status",
	"created_by", "created_at", "updated_at",
}

var submissionColumns = []string{
	"id", "assignment_id", "student_id", "files", "comment", "status", "grade::float8",
	"feedback", "submitted_at", "graded_at", "graded_by",
}

// AssignmentRepository persists assignments and their submissions
type AssignmentRepository struct {
	DB *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DueDate, &a.TotalPoints,
		&a.Status, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	var files []byte
	err := row.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &files, &s.Comment, &s.Status, &s.Grade,
		&s.Feedback, &s.SubmittedAt, &s.GradedAt, &s.GradedBy)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrSubmissionNotFound
		}
		return nil, err
	}

	s.Files = []models.Attachment{}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &s.Files); err != nil {
			return nil, fmt.Errorf("decode submission files: %w", err)
		}
	}
	return &s, nil
}

// Create inserts a as a new assignment
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	sql, args, err := psql.Insert("assignments").
		Columns("course_id", "title", "description", "due_date", "total_points", "status", "created_by").
		Values(a.CourseID, a.Title, a.Description, a.DueDate, a.TotalPoints, a.Status, a.CreatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create assignment query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", a.CourseID).Msg("Error creating assignment")
		return err
	}
	return nil
}

// GetByID returns an assignment by id
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	sql, args, err := psql.Select(assignmentColumns...).
		From("assignments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get assignment query: %w", err)
	}
	return scanAssignment(r.DB.QueryRow(ctx, sql, args...))
}

// List returns assignments matching filter, soonest due first
func (r *AssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]*models.Assignment, error) {
	q := psql.Select(assignmentColumns...).From("assignments")
	if filter.CourseID != nil {
		q = q.Where(squirrel.Eq{"course_id": *filter.CourseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.EnrolledStudentID != nil {
		q = q.Where(
			"course_id IN (SELECT course_id FROM enrollments WHERE student_id = ? AND status = ?)",
			*filter.EnrolledStudentID, models.EnrollmentEnrolled,
		)
	}

	sql, args, err := q.OrderBy("due_date ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list assignments query: %w", err)
	}

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing assignments")
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Update writes the editable fields of a
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	sql, args, err := psql.Update("assignments").
		Set("title", a.Title).
		Set("description", a.Description).
		Set("due_date", a.DueDate).
		Set("total_points", a.TotalPoints).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update assignment query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&a.UpdatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return apperrors.ErrAssignmentNotFound
		}
		return err
	}
	return nil
}

// UpdateStatus sets the lifecycle status
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error {
	tag, err := r.DB.Exec(ctx, `UPDATE assignments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}
	return nil
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}
	return nil
}

// UpsertSubmission creates the student's submission or replaces its files, unless
// it has already been graded.
func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, s *models.Submission) error {
	files, err := encodeAttachments(s.Files)
	if err != nil {
		return err
	}

	sql, args, err := psql.Insert("assignment_submissions").
		Columns("assignment_id", "student_id", "files", "comment", "status", "submitted_at").
		Values(s.AssignmentID, s.StudentID, files, s.Comment, s.Status, s.SubmittedAt).
		Suffix(`ON CONFLICT ON CONSTRAINT ` + submissionUniqueConstraint + ` DO UPDATE SET
			files = EXCLUDED.files,
			comment = EXCLUDED.comment,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at
			WHERE assignment_submissions.status <> 'GRADED'
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert submission query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&s.ID); err != nil {
		// the conflict update was skipped by its WHERE clause
		if dberrors.IsNoRows(err) {
			return apperrors.ErrSubmissionGraded
		}
		logger.Error().Err(err).Int64("assignmentID", s.AssignmentID).Msg("Error storing submission")
		return err
	}
	return nil
}

// GetSubmission returns a student's submission for an assignment
func (r *AssignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID int64) (*models.Submission, error) {
	sql, args, err := psql.Select(submissionColumns...).
		From("assignment_submissions").
		Where(squirrel.Eq{"assignment_id": assignmentID, "student_id": studentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get submission query: %w", err)
	}
	return scanSubmission(r.DB.QueryRow(ctx, sql, args...))
}

// ListSubmissions returns all submissions of an assignment, earliest first
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID int64) ([]*models.Submission, error) {
	sql, args, err := psql.Select(submissionColumns...).
		From("assignment_submissions").
		Where(squirrel.Eq{"assignment_id": assignmentID}).
		OrderBy("submitted_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list submissions query: %w", err)
	}

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assignmentID", assignmentID).Msg("Error listing submissions")
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// GradeSubmission records grade and feedback and marks the submission GRADED
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, s *models.Submission) error {
	sql, args, err := psql.Update("assignment_submissions").
		Set("grade", s.Grade).
		Set("feedback", s.Feedback).
		Set("status", models.SubmissionGraded).
		Set("graded_at", squirrel.Expr("NOW()")).
		Set("graded_by", s.GradedBy).
		Where(squirrel.Eq{"assignment_id": s.AssignmentID, "student_id": s.StudentID}).
		Suffix("RETURNING id, graded_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build grade submission query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.GradedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return apperrors.ErrSubmissionNotFound
		}
		return err
	}
	s.Status = models.SubmissionGraded
	return nil
}
