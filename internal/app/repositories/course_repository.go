package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/dberrors"
	"github.com/yigit/campuslink/internal/pkg/logger"
)

// CourseRepository reads courses and enrollments
type CourseRepository struct {
	DB *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{DB: db}
}

// GetByID returns a course by id
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := psql.Select("id", "department_id", "code", "title", "instructor_id").
		From("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get course query: %w", err)
	}

	var c models.Course
	if err := r.DB.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.DepartmentID, &c.Code, &c.Title, &c.InstructorID); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error getting course")
		return nil, err
	}
	return &c, nil
}

// ActiveStudentIDs lists students currently enrolled in the course
func (r *CourseRepository) ActiveStudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	sql, args, err := psql.Select("DISTINCT e.student_id").
		From("enrollments e").
		Join("users u ON u.id = e.student_id").
		Where(squirrel.Eq{"e.course_id": courseID, "e.status": models.EnrollmentEnrolled, "u.is_active": true}).
		OrderBy("e.student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build enrolled students query: %w", err)
	}

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error listing enrolled students")
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// IsStudentEnrolled reports an active enrollment of an active studentID in courseID
func (r *CourseRepository) IsStudentEnrolled(ctx context.Context, courseID, studentID int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM enrollments e
		   JOIN users u ON u.id = e.student_id
		   WHERE e.course_id = $1 AND e.student_id = $2 AND e.status = $3 AND u.is_active
		 )`,
		courseID, studentID, models.EnrollmentEnrolled,
	).Scan(&exists)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentID).Msg("Error checking enrollment")
		return false, err
	}
	return exists, nil
}
